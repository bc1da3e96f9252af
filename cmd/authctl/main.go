// Command authctl drives the auth API from a terminal, keeping its session
// in a local file between invocations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/zoubaax/on-time/pkg/client"
	"github.com/zoubaax/on-time/pkg/logger"
)

var version = "dev"

type globalOptions struct {
	apiURL      string
	sessionPath string
	verbose     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Command line client for the auth API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := os.Getenv("AUTHCTL_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:5000/api"
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api-url", defaultURL, "API base URL (env AUTHCTL_API_URL)")
	rootCmd.PersistentFlags().StringVar(&opts.sessionPath, "session", "", "session file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log client activity")

	rootCmd.AddCommand(
		signUpCmd(opts),
		signInCmd(opts),
		signOutCmd(opts),
		googleCmd(opts),
		callbackCmd(opts),
		profileCmd(opts),
		statusCmd(opts),
		usersCmd(opts),
		versionCmd(),
	)

	return rootCmd
}

// newClient opens the stored session and builds an API client over it.
func newClient(opts *globalOptions) (*client.Client, error) {
	path := opts.sessionPath
	if path == "" {
		p, err := client.DefaultStoragePath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	session, err := client.NewSession(client.NewFileStorage(path))
	if err != nil {
		return nil, err
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr, Service: "authctl"})

	return client.New(opts.apiURL, session,
		client.WithLogger(logger.Component("client")),
		client.OnSessionExpired(func() {
			warn("Session expired. Sign in again with `authctl signin`.")
		}),
	), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

func warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}
