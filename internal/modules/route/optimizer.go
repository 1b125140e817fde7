// README: Nearest-neighbor route construction refined by bounded 2-opt passes.
package route

import (
	"math"

	"greenroute/internal/geo"
)

// Optimize reorders stops to reduce total travel distance.
//
// The route starts at stops[0] and is open-ended: there is no return leg. The
// result never travels further than the input order. Fewer than two stops are
// returned unchanged. Coordinates are not validated; callers filter out stops
// without usable coordinates first.
func Optimize(stops []RoutePoint, opts Options) RouteAnalysis {
	opts = opts.withDefaults()

	points := make([]RoutePoint, len(stops))
	copy(points, stops)
	if len(points) < 2 {
		return RouteAnalysis{OptimizedRoute: points}
	}

	dist := distanceMatrix(points)
	identity := make([]int, len(points))
	for i := range identity {
		identity[i] = i
	}
	originalDistance := orderDistance(dist, identity)

	order := nearestNeighbor(dist)
	improveTwoOpt(dist, order, opts.MaxPasses)
	optimizedDistance := orderDistance(dist, order)

	// Fall back to the caller's order when the heuristic did not beat it.
	if !(optimizedDistance <= originalDistance) {
		order = identity
		optimizedDistance = originalDistance
	}

	route := make([]RoutePoint, len(points))
	for pos, idx := range order {
		route[pos] = points[idx]
		route[pos].SequenceOrder = pos + 1
	}

	saved := math.Max(0, originalDistance-optimizedDistance)
	savings := 0.0
	if originalDistance > 0 {
		savings = saved / originalDistance * 100
	}

	return RouteAnalysis{
		OptimizedRoute:    route,
		OriginalDistance:  originalDistance,
		OptimizedDistance: optimizedDistance,
		DistanceSaved:     saved,
		TimeSaved:         saved / opts.AvgSpeedMPH * 60,
		Savings:           savings,
	}
}

// TotalDistance sums consecutive haversine legs in the given order.
func TotalDistance(stops []RoutePoint) float64 {
	total := 0.0
	for i := 1; i < len(stops); i++ {
		total += geo.Between(stops[i-1].Point(), stops[i].Point())
	}
	return total
}

func distanceMatrix(points []RoutePoint) [][]float64 {
	n := len(points)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.Between(points[i].Point(), points[j].Point())
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

func orderDistance(dist [][]float64, order []int) float64 {
	total := 0.0
	for i := 1; i < len(order); i++ {
		total += dist[order[i-1]][order[i]]
	}
	return total
}

// nearestNeighbor builds a visiting order from index 0, always stepping to
// the closest unvisited stop. Ties go to the stop that appears first.
func nearestNeighbor(dist [][]float64) []int {
	n := len(dist)
	visited := make([]bool, n)
	order := make([]int, 0, n)

	current := 0
	visited[current] = true
	order = append(order, current)

	for len(order) < n {
		best := -1
		bestDist := math.Inf(1)
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if best == -1 {
				best = j
			}
			if dist[current][j] < bestDist {
				best = j
				bestDist = dist[current][j]
			}
		}
		visited[best] = true
		order = append(order, best)
		current = best
	}
	return order
}

// improveTwoOpt reverses segments of order in place while doing so shortens
// the open path. The first stop stays fixed. At most maxPasses passes run.
func improveTwoOpt(dist [][]float64, order []int, maxPasses int) {
	n := len(order)
	if n < 3 {
		return
	}
	for pass := 0; pass < maxPasses; pass++ {
		improved := false
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				prev, first, last := order[i-1], order[i], order[k]
				before := dist[prev][first]
				after := dist[prev][last]
				if k+1 < n {
					next := order[k+1]
					before += dist[last][next]
					after += dist[first][next]
				}
				if after < before-improvementEpsilon {
					reverse(order[i : k+1])
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
