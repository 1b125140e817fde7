// README: Live landscaper positions in a Redis GEO set, written by tracking.
package matching

import (
	"context"

	"github.com/redis/go-redis/v9"

	"greenroute/internal/geo"
	"greenroute/internal/types"
)

const livePositionsKey = "tracking:landscapers"

type PositionStore struct {
	redis *redis.Client
}

func NewPositionStore(rdb *redis.Client) *PositionStore {
	return &PositionStore{redis: rdb}
}

func (s *PositionStore) SetPosition(ctx context.Context, id types.ID, p geo.Point) error {
	return s.redis.GeoAdd(ctx, livePositionsKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

func (s *PositionStore) RemovePosition(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, livePositionsKey, string(id)).Err()
}

// Positions returns the known live positions for ids. Unknown ids are absent
// from the map.
func (s *PositionStore) Positions(ctx context.Context, ids []types.ID) (map[types.ID]geo.Point, error) {
	out := make(map[types.ID]geo.Point, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members := make([]string, len(ids))
	for i, id := range ids {
		members[i] = string(id)
	}
	res, err := s.redis.GeoPos(ctx, livePositionsKey, members...).Result()
	if err != nil {
		return nil, err
	}
	for i, pos := range res {
		if pos == nil {
			continue
		}
		out[ids[i]] = geo.Point{Lat: pos.Latitude, Lng: pos.Longitude}
	}
	return out, nil
}
