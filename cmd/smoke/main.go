// Package main is the entry point for the smoke CLI, which checks every
// route of a running instance.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/techwolf/example-api/internal/smoke"
	"github.com/techwolf/example-api/pkg/logger"
)

// Default configuration constants.
const (
	defaultRounds      = 1
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 10 * time.Second
	defaultTestTimeout = 5 * time.Minute
	envPrefix          = "SMOKE"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check every route of a running Example API instance",
		Long: `smoke sends every product and user route to a running instance and
checks the exact status and body of each response.

It first calls /healthz, then runs 12 success cases plus the invalid id,
missing keyword and method-not-allowed cases, -rounds times over a worker
pool. It exits non-zero on any mismatch.

Every flag can also be set through the environment:
  SMOKE_URL, SMOKE_ROUNDS, SMOKE_WORKERS, SMOKE_TIMEOUT, SMOKE_LOG, SMOKE_VERBOSE

Examples:
  smoke
  smoke --rounds 50 --workers 16 --url http://localhost:9090`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSmoke(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("url", "http://localhost:8080", "Base URL of the service")
	flags.Int("rounds", defaultRounds, "How many times each case is sent")
	flags.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	flags.Duration("timeout", defaultTimeout, "HTTP request timeout")
	flags.String("log", "", "Also write log output to this file")
	flags.BoolP("verbose", "v", false, "Log every request")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	return cmd
}

func runSmoke(parent context.Context, v *viper.Viper) error {
	if parent == nil {
		parent = context.Background()
	}

	closer, err := smoke.SetupLogging(v.GetString("log"), v.GetBool("verbose"))
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to setup logging:", err)
		return err
	}
	defer func() { _ = closer.Close() }()

	ctx, cancel := context.WithTimeout(parent, defaultTestTimeout)
	defer cancel()

	config := &smoke.Config{
		BaseURL: v.GetString("url"),
		Rounds:  v.GetInt("rounds"),
		Workers: v.GetInt("workers"),
		Timeout: v.GetDuration("timeout"),
		Verbose: v.GetBool("verbose"),
		LogFile: v.GetString("log"),
	}

	if _, err := smoke.Run(ctx, config, logger.Get()); err != nil {
		logger.Get().Error(ctx, "smoke test failed", logger.Error(err))
		return err
	}
	return nil
}
