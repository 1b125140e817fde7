package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"greenroute/internal/geo"
)

var distanceCmd = &cobra.Command{
	Use:   "distance [lat1] [lon1] [lat2] [lon2]",
	Short: "Great-circle distance in miles",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		var v [4]float64
		for i, a := range args {
			f, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("argument %d: %q is not a number", i+1, a)
			}
			v[i] = f
		}
		cmd.Printf("%.3f mi\n", geo.Distance(v[0], v[1], v[2], v[3]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distanceCmd)
}
