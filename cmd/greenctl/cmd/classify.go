package cmd

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"greenroute/internal/ai"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [description...]",
	Short: "Map a job description to a service type with Gemini",
	Long: `Sends a free-text job description to Gemini and prints the service type
the matcher would search for.

Requires GEMINI_API_KEY (or --gemini-key).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := viper.GetString("gemini_api_key")
		if key == "" {
			return errors.New("gemini api key not set")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		classifier, err := ai.NewGeminiClassifier(ctx, key)
		if err != nil {
			return err
		}
		defer classifier.Close()

		service, err := classifier.ClassifyService(ctx, strings.Join(args, " "))
		if errors.Is(err, ai.ErrUnknownService) {
			cmd.Println("no confident match; known services:", strings.Join(ai.ServiceTypes, ", "))
			return nil
		}
		if err != nil {
			return err
		}
		cmd.Println(service)
		return nil
	},
}

func init() {
	classifyCmd.Flags().String("gemini-key", "", "Gemini API key")
	_ = viper.BindPFlag("gemini_api_key", classifyCmd.Flags().Lookup("gemini-key"))
	_ = viper.BindEnv("gemini_api_key", "GEMINI_API_KEY")
	rootCmd.AddCommand(classifyCmd)
}
