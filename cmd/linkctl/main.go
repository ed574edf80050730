// Command linkctl manages short links on a running tinylink server.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/tinylink/internal/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		serverURL string
		timeout   time.Duration
	)

	commands := func(cmd *cobra.Command) *client.Commands {
		c := client.New(serverURL, client.WithHTTPClient(&http.Client{Timeout: timeout}))
		return client.NewCommands(c, cmd.OutOrStdout())
	}

	rootCmd := &cobra.Command{
		Use:          "linkctl",
		Short:        "Manage tinylink short links",
		SilenceUsage: true,
	}

	defaultURL := os.Getenv("TINYLINK_SERVER_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server-url", "u", defaultURL, "Server URL (env TINYLINK_SERVER_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", client.DefaultTimeout, "Request timeout")

	var code string
	createCmd := &cobra.Command{
		Use:   "create [URL]",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands(cmd).Create(cmd.Context(), args[0], code)
		},
	}
	createCmd.Flags().StringVarP(&code, "code", "c", "", "Custom short code (6-8 alphanumeric characters)")

	getCmd := &cobra.Command{
		Use:   "get [CODE]",
		Short: "Show a short link and its click statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands(cmd).Get(cmd.Context(), args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all short links, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands(cmd).List(cmd.Context())
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [CODE]",
		Short: "Delete a short link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands(cmd).Delete(cmd.Context(), args[0])
		},
	}

	rootCmd.AddCommand(createCmd, getCmd, listCmd, deleteCmd)
	rootCmd.SetErrPrefix("linkctl:")
	return rootCmd
}
