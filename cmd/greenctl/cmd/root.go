package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "greenctl",
	Short: "greenctl plans landscaping routes from the terminal",
	Long: `greenctl is the command-line companion to the greenroute API.

Common workflows:

  Optimize a stop list offline:
    greenctl optimize stops.yaml --speed 25

  Distance between two coordinates in miles:
    greenctl distance 40.7128 -74.0060 40.7580 -73.9855

  Fetch a landscaper's optimized day from the API:
    greenctl day <landscaper-id> 2026-05-04

  Classify a job description:
    greenctl classify "overgrown hedges along the driveway"

Configuration:
  Flags, $HOME/.greenctl.yaml, or environment variables:
    GREENROUTE_URL      API endpoint (default: http://localhost:8080)
    GREENROUTE_TOKEN    Firebase ID token for authentication
    GEMINI_API_KEY      Gemini key for classify`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".greenctl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("GREENROUTE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.greenctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "greenroute API URL")
	_ = viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Firebase ID token")
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}
