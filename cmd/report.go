package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/naka-gawa/pr-report/internal/config"
	"github.com/naka-gawa/pr-report/internal/domain"
	"github.com/naka-gawa/pr-report/internal/gateway"
	"github.com/naka-gawa/pr-report/internal/report"
	"github.com/naka-gawa/pr-report/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarises pull requests created in the last N days",
		Long: `Fetches all pull requests of a repository, keeps those created within the last
N days and prints them grouped as opened, closed and merged.

Command line flags take priority over environment variables, which take
priority over the config file.

` + config.Usage(),
		Args: cobra.NoArgs,
		RunE: runReport,
	}
	cmd.Flags().StringP("token", "t", "", "GitHub token")
	cmd.Flags().StringP("repo", "r", "", "GitHub repository (owner/name)")
	cmd.Flags().IntP("days", "d", 7, "Number of days to look back")
	cmd.Flags().StringP("config", "c", "", "Path to a key=value config file (default "+config.DefaultFile+")")
	cmd.Flags().String("api-url", "", "GitHub Enterprise base URL, e.g. https://ghe.example.com/")
	cmd.Flags().Duration("timeout", gateway.DefaultTimeout, "Connect and response timeout per request")
	cmd.Flags().Bool("resolve-authors", false, "Look up author display names and emails")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Resolve(overridesFrom(cmd.Flags()))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Debug, cmd.ErrOrStderr()).With(zap.String("run_id", uuid.NewString()))
	defer func() { _ = logger.Sync() }()

	githubGateway, err := gateway.NewGitHubGateway(gateway.Options{
		Token:   cfg.Token,
		BaseURL: cfg.APIURL,
		Timeout: cfg.Timeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	reporter := usecase.NewReporter(githubGateway, logger, usecase.WithAuthorResolution(cfg.ResolveAuthors))

	window := domain.NewWindow(cfg.Repository, cfg.Days, time.Now())
	result, err := reporter.Generate(cmd.Context(), window)
	if err != nil {
		return &runError{Repository: cfg.Repository, Err: err}
	}
	observed := githubGateway.ObservedRateLimit()
	logger.Debug("run finished",
		zap.Int("rate_limit_remaining", observed.Remaining),
		zap.Int("rate_limit_waits", githubGateway.Waits()),
	)

	_, err = fmt.Fprint(cmd.OutOrStdout(), report.Render(result))
	return err
}

// overridesFrom collects the flags that were set explicitly.
func overridesFrom(flags *pflag.FlagSet) config.Overrides {
	var o config.Overrides
	if flags.Changed("token") {
		v, _ := flags.GetString("token")
		o.Token = &v
	}
	if flags.Changed("repo") {
		v, _ := flags.GetString("repo")
		o.Repository = &v
	}
	if flags.Changed("days") {
		v, _ := flags.GetInt("days")
		o.Days = &v
	}
	if flags.Changed("config") {
		v, _ := flags.GetString("config")
		o.ConfigFile = &v
	}
	if flags.Changed("debug") {
		v, _ := flags.GetBool("debug")
		o.Debug = &v
	}
	if flags.Changed("api-url") {
		v, _ := flags.GetString("api-url")
		o.APIURL = &v
	}
	if flags.Changed("timeout") {
		v, _ := flags.GetDuration("timeout")
		o.Timeout = &v
	}
	if flags.Changed("resolve-authors") {
		v, _ := flags.GetBool("resolve-authors")
		o.ResolveAuthors = &v
	}
	return o
}

// newLogger discards everything unless debug is set, in which case it writes
// human readable entries to w.
func newLogger(debug bool, w io.Writer) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
