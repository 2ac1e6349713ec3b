package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/assistant"
	"github.com/kusy2009/Codelist-Genius/internal/library"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

type echoProcessor struct {
	queries []string
}

func (e *echoProcessor) Process(_ context.Context, query string) *assistant.Result {
	e.queries = append(e.queries, query)
	return &assistant.Result{Query: query, Text: "answer to " + query}
}

func TestRunInteractive_ExitCommands(t *testing.T) {
	for _, word := range []string{"exit", "QUIT", "  quit  "} {
		t.Run(word, func(t *testing.T) {
			p := &echoProcessor{}
			in := strings.NewReader("Is AGEU extensible?\n\n" + word + "\nnever asked\n")
			var out bytes.Buffer

			err := RunInteractive(context.Background(), p, in, &out)

			require.NoError(t, err)
			assert.Equal(t, []string{"Is AGEU extensible?"}, p.queries)
			assert.Contains(t, out.String(), "Type 'exit' or 'quit' to end the session.")
			assert.Contains(t, out.String(), "\nanswer to Is AGEU extensible?\n")
			assert.True(t, strings.HasSuffix(out.String(), "Goodbye!\n"))
		})
	}
}

func TestRunInteractive_EOF(t *testing.T) {
	p := &echoProcessor{}
	var out bytes.Buffer

	err := RunInteractive(context.Background(), p, strings.NewReader("show SEX"), &out)

	require.NoError(t, err)
	assert.Equal(t, []string{"show SEX"}, p.queries)
}

func TestRunInteractive_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- RunInteractive(ctx, &echoProcessor{}, pr, &out)
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("interactive session did not stop on cancellation")
	}
	assert.True(t, strings.HasSuffix(out.String(), "Session terminated by user\n"))
}

type fakeFetcher struct {
	req library.Request
	cl  *terminology.Codelist
	err error
}

func (f *fakeFetcher) GetCodelist(_ context.Context, req library.Request) (*terminology.Codelist, error) {
	f.req = req
	return f.cl, f.err
}

func sexCodelist() *terminology.Codelist {
	return &terminology.Codelist{
		ID:         "SEX",
		Code:       "C66731",
		Name:       "Sex",
		Extensible: false,
		Standard:   terminology.SDTM,
		Version:    "2024-09-27",
		Terms: []terminology.Term{
			{Code: "C16576", SubmissionValue: "F", DecodedValue: "Female"},
			{Code: "C20197", SubmissionValue: "M", DecodedValue: "Male"},
			{Code: "C17998", SubmissionValue: "U", DecodedValue: "Unknown"},
		},
	}
}

func TestRunCodelist_PrintsListingAndCSV(t *testing.T) {
	fetcher := &fakeFetcher{cl: sexCodelist()}
	path := filepath.Join(t.TempDir(), "sex.csv")
	var out bytes.Buffer

	err := RunCodelist(context.Background(), fetcher, CodelistOptions{
		Value:    "sex",
		Type:     "id",
		Standard: "SDTM",
		Limit:    2,
		Output:   path,
	}, &out)
	require.NoError(t, err)

	assert.Equal(t, library.Request{CodelistValue: "sex", CodelistType: terminology.ByID, Standard: terminology.SDTM}, fetcher.req)
	assert.Contains(t, out.String(), "Submission Values for ID='SEX' (SDTM CT Version=2024-09-27, Extensible=No)")
	assert.Contains(t, out.String(), "... (showing 2 of 3 results)")
	assert.Contains(t, out.String(), "Total 3 term(s) found for SEX")
	assert.Contains(t, out.String(), "Results saved to "+path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus every term, regardless of --limit")
	assert.Equal(t, []string{"CodelistCode", "ExtensibleYN", "ID", "TERM", "TermCode", "TermDecodedValue", "name"}, rows[0])
}

func TestRunCodelist_Errors(t *testing.T) {
	var out bytes.Buffer

	err := RunCodelist(context.Background(), &fakeFetcher{}, CodelistOptions{Value: "SEX", Type: "NAME"}, &out)
	assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.CodeOf(err))

	notFound := apperrors.New(apperrors.ErrCodeCodelistNotFound, "missing")
	err = RunCodelist(context.Background(), &fakeFetcher{err: notFound}, CodelistOptions{Value: "NOPE"}, &out)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Empty(t, out.String())
}
