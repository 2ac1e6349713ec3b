package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kusy2009/Codelist-Genius/internal/assistant"
)

const (
	interactiveBanner = `CDISC AI Assistant
=================
Ask me about CDISC controlled terminology codelists.
Type 'exit' or 'quit' to end the session.`
	questionPrompt = "Your question: "
)

// QueryProcessor answers one query.
type QueryProcessor interface {
	Process(ctx context.Context, query string) *assistant.Result
}

// AskCommand creates the ask command
func AskCommand(app *App) *cobra.Command {
	var (
		query  string
		apiKey string
	)

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a natural-language question about a CDISC codelist",
		Long: `Answer questions about CDISC Controlled Terminology codelists.

Without --query the assistant starts an interactive session; type 'exit' or
'quit' to leave it.

Examples:
  codelist-genius ask --query "Is AGEU extensible?"
  codelist-genius ask --query "Is CENTURY a valid AGEU term?"
  codelist-genius ask`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.Config
			if apiKey != "" {
				cfg.LLM.APIKey = apiKey
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			comps, err := BuildComponents(ctx, &cfg, app.Logger)
			if err != nil {
				return err
			}
			defer comps.Close()

			if query != "" {
				res := comps.Assistant.Process(ctx, query)
				fmt.Fprintln(app.Out, "\n"+res.Text)
				return nil
			}
			return RunInteractive(ctx, comps.Assistant, app.In, app.Out)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Natural language query about CDISC codelists")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Language model API key (or set OPENROUTER_API_KEY / GEMINI_API_KEY)")

	return cmd
}

// RunInteractive reads questions from in until exit, quit, EOF or ctx is
// cancelled. Cancellation prints the termination notice and is not an error.
func RunInteractive(ctx context.Context, p QueryProcessor, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "\n"+interactiveBanner)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(out, "\n\n"+questionPrompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nSession terminated by user")
			return nil
		case err := <-readErr:
			fmt.Fprintln(out)
			return err
		case line = <-lines:
		}

		query := strings.TrimSpace(line)
		switch strings.ToLower(query) {
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case "":
			continue
		}

		res := p.Process(ctx, query)
		fmt.Fprintln(out, "\n"+res.Text)
	}
}
