package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kusy2009/Codelist-Genius/internal/datastore"
)

// HistoryCommand creates the history command
func HistoryCommand(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datastore.NewDataStore(DataStoreConfig(app.Config.History))
			if err != nil {
				return fmt.Errorf("failed to initialize data store: %w", err)
			}
			defer ds.Close()
			return RunHistory(cmd.Context(), ds, limit, app.Out)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of queries to show")
	return cmd
}

// RunHistory prints the most recent queries, newest first.
func RunHistory(ctx context.Context, ds datastore.DataStore, limit int, out io.Writer) error {
	if limit <= 0 {
		return fmt.Errorf("error: --limit must be positive")
	}

	records, err := ds.ListRecentQueries(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n--- Query History ---\n")
	fmt.Fprintf(out, "Found %d queries.\n\n", len(records))

	for _, rec := range records {
		codelist := rec.CodelistID
		if codelist == "" {
			codelist = "-"
		} else {
			codelist = fmt.Sprintf("%s (%s)", rec.CodelistID, rec.Standard)
		}
		fmt.Fprintf(out, "%s  %-14s %-20s %s\n",
			rec.CreatedAt.Format(time.RFC3339), rec.Outcome, codelist, rec.Query)
	}
	return nil
}

// InitDBCommand creates the init-db command
func InitDBCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the query history schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := datastore.NewDataStore(DataStoreConfig(app.Config.History))
			if err != nil {
				return fmt.Errorf("failed to initialize data store: %w", err)
			}
			defer ds.Close()

			if app.Config.History.Store == string(datastore.PostgreSQLStore) {
				fmt.Fprintf(app.Out, "Database: %s\n", maskConnectionString(app.Config.History.ConnectionString))
			}
			if err := ds.InitDB(cmd.Context()); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			fmt.Fprintln(app.Out, "Database initialized successfully.")
			return nil
		},
	}
}
