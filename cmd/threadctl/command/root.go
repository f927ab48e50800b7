package command

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"kisah-comments/internal/client"
	"kisah-comments/internal/config"
)

var (
	apiURL string
	token  string
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "threadctl",
	Short: "threadctl - operate the Kisah comment engine",
	Long: `threadctl runs maintenance tasks against the comment store (migrations,
thread archives, test tokens) and drives the comment API like a client would.

Commands that talk to the API read the bearer token from --token or THREADCTL_TOKEN.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = config.Load()
		if token == "" {
			token = os.Getenv("THREADCTL_TOKEN")
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "comment API base URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token for API commands")
}

func apiClient() *client.HTTPClient {
	return client.NewHTTPClient(apiURL, token)
}
