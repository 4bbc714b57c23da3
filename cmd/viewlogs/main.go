package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BradenHooton/honeypot/internal/analysis"
	"github.com/BradenHooton/honeypot/internal/config"
	"github.com/BradenHooton/honeypot/internal/repositories"
	pkglogger "github.com/BradenHooton/honeypot/pkg/logger"
	"github.com/spf13/cobra"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var (
		logDir string
		limit  int
		topN   int
		format string
	)

	cmd := &cobra.Command{
		Use:   "viewlogs",
		Short: "Summarize attempts captured by the honeypot",
		Long: `viewlogs reads the honeypot JSON log and prints a summary, the most
recent attempts and the attack patterns they reveal.

A missing or unreadable log is reported, not treated as a failure.

Examples:
  # Console report from ./logs
  viewlogs

  # Last 25 attempts, top 10 values per ranking
  viewlogs --limit 25 --top 10

  # Machine-readable report
  viewlogs --format json --log-dir /var/lib/honeypot/logs`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatText, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unsupported format %q (want text, json or yaml)", format)
			}

			logger := slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: pkglogger.ParseLevel(cfg.Logging.Level),
			}))
			repo := repositories.NewAttemptRepository(logDir, cfg.Capture.TextLogFile, cfg.Capture.JSONLogFile, logger)

			data, err := analysis.LoadAll(cmd.Context(), repo)
			if err != nil {
				return err
			}
			if data.Notice != "" {
				logger.Debug("no attempts loaded", slog.String("reason", data.Notice))
			}

			report := analysis.BuildReport(data,
				analysis.Files{JSON: repo.JSONPath(), Text: repo.TextPath()},
				analysis.Options{
					Limit:     limit,
					TopN:      topN,
					ServerURL: fmt.Sprintf("http://localhost:%d", cfg.Server.Port),
				},
			)

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return analysis.WriteJSON(out, report)
			case formatYAML:
				return analysis.WriteYAML(out, report)
			default:
				return analysis.WriteText(out, report)
			}
		},
	}

	cmd.Flags().StringVar(&logDir, "log-dir", cfg.Capture.LogDir, "Directory holding the honeypot logs")
	cmd.Flags().IntVar(&limit, "limit", analysis.DefaultLimit, "Number of recent attempts to show in detail (0 shows all)")
	cmd.Flags().IntVar(&topN, "top", analysis.DefaultTopN, "Entries per ranking (usernames, passwords, combinations)")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json or yaml")

	return cmd
}
