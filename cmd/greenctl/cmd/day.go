package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"greenroute/internal/modules/route"
)

var dayCmd = &cobra.Command{
	Use:   "day [landscaper-id] [YYYY-MM-DD]",
	Short: "Fetch a landscaper's optimized day from the API",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		base := viper.GetString("url")
		token := viper.GetString("token")
		if token == "" {
			return fmt.Errorf("API token not found; set --token or GREENROUTE_TOKEN")
		}

		endpoint := fmt.Sprintf("%s/api/landscapers/%s/routes/%s", base, url.PathEscape(args[0]), url.PathEscape(args[1]))
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		client := &http.Client{Timeout: 10 * time.Second}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("send request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("request failed with status code: %d", resp.StatusCode)
		}

		var plan route.DayPlan
		if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		printAnalysis(cmd, plan.Analysis)
		if len(plan.Skipped) > 0 {
			cmd.Printf("Skipped %d stop(s) without coordinates\n", len(plan.Skipped))
		}
		if plan.RoadMinutes != nil {
			cmd.Printf("Road estimate: %.0f min\n", *plan.RoadMinutes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dayCmd)
}
