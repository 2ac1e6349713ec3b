package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/library"
	"github.com/kusy2009/Codelist-Genius/internal/listing"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

// CodelistFetcher retrieves one codelist from the CDISC Library.
type CodelistFetcher interface {
	GetCodelist(ctx context.Context, req library.Request) (*terminology.Codelist, error)
}

// CodelistOptions are the codelist command's flags.
type CodelistOptions struct {
	Value    string
	Type     string
	Standard string
	Version  string
	Limit    int
	Output   string
}

// CodelistCommand creates the codelist command
func CodelistCommand(app *App) *cobra.Command {
	var (
		opts   CodelistOptions
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "codelist",
		Short: "Retrieve a CDISC Controlled Terminology codelist",
		Long: `Fetch one codelist from the CDISC Library and print its submission values.

Examples:
  codelist-genius codelist --codelist-value AGEU
  codelist-genius codelist --codelist-value C66781 --codelist-type CODELISTCODE
  codelist-genius codelist --codelist-value DTYPE --standard ADaM --limit 10
  codelist-genius codelist --codelist-value RACE --output race.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.Config
			if apiKey != "" {
				cfg.Library.APIKey = apiKey
			}
			if err := cfg.RequireLibraryKey(); err != nil {
				return err
			}
			client := library.NewClient(cfg.Library, app.Logger)
			return RunCodelist(cmd.Context(), client, opts, app.Out)
		},
	}

	cmd.Flags().StringVar(&opts.Value, "codelist-value", "", "The codelist name or code (e.g., AGEU, PARAMCD, C66781)")
	cmd.Flags().StringVar(&opts.Type, "codelist-type", string(terminology.ByID), "Match the value against the codelist ID or CODELISTCODE")
	cmd.Flags().StringVar(&opts.Standard, "standard", string(terminology.DefaultStandard), "CDISC standard (e.g., SDTM, ADaM)")
	cmd.Flags().StringVar(&opts.Version, "version", "", "Controlled Terminology version (empty picks the default or latest)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Limit number of displayed terms (0 displays all)")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Output CSV file path")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "CDISC API key (or set CDISC_API_KEY)")
	_ = cmd.MarkFlagRequired("codelist-value")

	return cmd
}

// RunCodelist fetches the codelist, prints the listing and optionally
// writes every term to a CSV file.
func RunCodelist(ctx context.Context, fetcher CodelistFetcher, opts CodelistOptions, out io.Writer) error {
	typ, err := terminology.ParseCodelistType(opts.Type)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "%s", err.Error())
	}

	cl, err := fetcher.GetCodelist(ctx, library.Request{
		CodelistValue: opts.Value,
		CodelistType:  typ,
		Standard:      terminology.Standard(opts.Standard),
		Version:       opts.Version,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(out, listing.Render(cl, opts.Limit))

	if opts.Output != "" {
		if err := writeCSVFile(opts.Output, cl); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nResults saved to %s\n", opts.Output)
	}
	return nil
}

func writeCSVFile(path string, cl *terminology.Codelist) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := listing.WriteCSV(f, cl); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
