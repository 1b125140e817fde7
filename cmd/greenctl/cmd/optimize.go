package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"greenroute/internal/config"
	"greenroute/internal/modules/route"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [stops-file]",
	Short: "Optimize a stop list from a JSON or YAML file",
	Long: `Reorder the stops in a file to shorten the drive. The first stop stays first.

The file holds a list of stops (or an object with a "stops" list):

  - id: job-1
    name: Smith front lawn
    latitude: 40.7128
    longitude: -74.0060`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stops, err := loadStops(args[0])
		if err != nil {
			return err
		}
		opts := route.Options{
			AvgSpeedMPH: viper.GetFloat64("speed"),
			MaxPasses:   viper.GetInt("passes"),
		}
		printAnalysis(cmd, route.Optimize(stops, opts))
		return nil
	},
}

func loadStops(path string) ([]route.RoutePoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stops: %w", err)
	}

	var wrapped struct {
		Stops []route.RoutePoint `json:"stops" yaml:"stops"`
	}
	var list []route.RoutePoint

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &list); err != nil {
			if err := yaml.Unmarshal(data, &wrapped); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			list = wrapped.Stops
		}
	default:
		if err := json.Unmarshal(data, &list); err != nil {
			if err := json.Unmarshal(data, &wrapped); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			list = wrapped.Stops
		}
	}
	return list, nil
}

func printAnalysis(cmd *cobra.Command, a route.RouteAnalysis) {
	cmd.Println("Optimized route")
	cmd.Println("──────────────────────────────")
	for i, p := range a.OptimizedRoute {
		label := p.Name
		if label == "" {
			label = p.Address
		}
		cmd.Printf("%2d. %-12s %s\n", i+1, p.ID, label)
	}
	cmd.Println("──────────────────────────────")
	cmd.Printf("Original:   %.2f mi\n", a.OriginalDistance)
	cmd.Printf("Optimized:  %.2f mi\n", a.OptimizedDistance)
	cmd.Printf("Saved:      %.2f mi (%.1f%%), about %.0f min\n", a.DistanceSaved, a.Savings, a.TimeSaved)
}

func init() {
	def := config.DefaultRoute()
	optimizeCmd.Flags().Float64("speed", def.AvgSpeedMPH, "average driving speed in mph")
	_ = viper.BindPFlag("speed", optimizeCmd.Flags().Lookup("speed"))
	optimizeCmd.Flags().Int("passes", def.MaxPasses, "maximum 2-opt improvement passes")
	_ = viper.BindPFlag("passes", optimizeCmd.Flags().Lookup("passes"))

	rootCmd.AddCommand(optimizeCmd)
}
