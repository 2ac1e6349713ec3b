package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/cli"
	"github.com/kusy2009/Codelist-Genius/internal/config"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	root := newRootCommand(app)

	err := root.ExecuteContext(context.Background())
	_ = app.Logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, apperrors.UserMessage(err))
		return 1
	}
	return 0
}

func newRootCommand(app *cli.App) *cobra.Command {
	var (
		configFile string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "codelist-genius",
		Short:         "Answer questions about CDISC Controlled Terminology codelists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrCodeConfigInvalid, err, "failed to load configuration")
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			app.Config = cfg
			app.Logger = log
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file (default ./codelist-genius.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		cli.AskCommand(app),
		cli.CodelistCommand(app),
		cli.HistoryCommand(app),
		cli.InitDBCommand(app),
	)
	return root
}
