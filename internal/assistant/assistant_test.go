package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/kusy2009/Codelist-Genius/internal/agent"
	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/datastore"
	"github.com/kusy2009/Codelist-Genius/internal/extract"
	"github.com/kusy2009/Codelist-Genius/internal/library"
	"github.com/kusy2009/Codelist-Genius/internal/listing"
	"github.com/kusy2009/Codelist-Genius/internal/store"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

type fakeLookup struct {
	codelist *terminology.Codelist
	err      error
	requests []library.Request
}

func (f *fakeLookup) GetCodelist(_ context.Context, req library.Request) (*terminology.Codelist, error) {
	f.requests = append(f.requests, req)
	return f.codelist, f.err
}

type failingHistory struct{}

func (failingHistory) RecordQuery(context.Context, store.QueryRecord) error {
	return errors.New("database is down")
}

func ageu() *terminology.Codelist {
	return &terminology.Codelist{
		ID:       "AGEU",
		Code:     "C66781",
		Name:     "Age Unit",
		Standard: terminology.SDTM,
		Version:  "2024-09-27",
		Terms: []terminology.Term{
			{Code: "C25301", SubmissionValue: "DAYS", DecodedValue: "Day"},
			{Code: "C29848", SubmissionValue: "YEARS", DecodedValue: "Year"},
		},
	}
}

func newAssistant(t *testing.T, lookup CodelistLookup, history HistoryRecorder) *Assistant {
	t.Helper()
	a := New(extract.New(nil, zaptest.NewLogger(t)), lookup, history, zaptest.NewLogger(t))
	a.now = func() time.Time { return time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC) }
	return a
}

func TestProcess_Extensibility(t *testing.T) {
	lookup := &fakeLookup{codelist: ageu()}
	a := newAssistant(t, lookup, nil)

	res := a.Process(context.Background(), "Is AGEU extensible?")

	assert.Equal(t, OutcomeAnswered, res.Outcome)
	require.NotNil(t, res.Answer)
	rendered := listing.Render(ageu(), 0)
	assert.Equal(t, "The AGEU codelist is not extensible.\n\n"+rendered, res.Text)
	assert.Equal(t, rendered, res.Listing)
	require.Len(t, lookup.requests, 1)
	assert.Equal(t, library.Request{CodelistValue: "AGEU", Standard: terminology.SDTM}, lookup.requests[0])
	assert.NotEmpty(t, res.ID)
}

func TestProcess_ListingOnly(t *testing.T) {
	a := newAssistant(t, &fakeLookup{codelist: ageu()}, nil)

	res := a.Process(context.Background(), "show me AGEU")

	assert.Equal(t, OutcomeListing, res.Outcome)
	assert.Nil(t, res.Answer)
	assert.Equal(t, listing.Render(ageu(), 0), res.Text)
}

func TestProcess_NoCodelist(t *testing.T) {
	lookup := &fakeLookup{codelist: ageu()}
	a := newAssistant(t, lookup, nil)

	res := a.Process(context.Background(), "hello there")

	assert.Equal(t, OutcomeNoCodelist, res.Outcome)
	assert.Equal(t, NoCodelistMessage, res.Text)
	assert.Empty(t, lookup.requests)
}

func TestProcess_LookupFailure(t *testing.T) {
	notFound := apperrors.New(apperrors.ErrCodeCodelistNotFound,
		"The provided Codelist Value 'ARM' does not exist in the SDTM Controlled Terminology version 2024-09-27.")
	a := newAssistant(t, &fakeLookup{err: notFound}, nil)

	res := a.Process(context.Background(), "is PLACEBO a valid ARM value")

	assert.Equal(t, OutcomeLookupFailed, res.Outcome)
	assert.Equal(t, notFound.Message, res.Text)
	assert.True(t, apperrors.IsNotFound(res.Err))
	assert.Nil(t, res.Answer)
	assert.Empty(t, res.Listing)
}

func TestProcess_ModelParametersReachLookup(t *testing.T) {
	lookup := &fakeLookup{codelist: &terminology.Codelist{ID: "NY", Standard: terminology.ADAM, Version: "2024-09-27"}}
	model := agent.NewMockAgent(`{"codelist_value": "ny", "standard": "ADaM", "version": "2024-03-29"}`)
	a := New(extract.New(model, nil), lookup, nil, nil)

	a.Process(context.Background(), "list the no yes response values")

	require.Len(t, lookup.requests, 1)
	assert.Equal(t, library.Request{
		CodelistValue: "NY",
		Standard:      terminology.ADAM,
		Version:       "2024-03-29",
	}, lookup.requests[0])
}

func TestProcess_RecordsHistory(t *testing.T) {
	history := datastore.NewMemoryStore()
	a := newAssistant(t, &fakeLookup{codelist: ageu()}, history)

	first := a.Process(context.Background(), "Is CENTURY a valid AGEU term?")
	a.Process(context.Background(), "hello there")

	recs, err := history.ListRecentQueries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	var rec store.QueryRecord
	for _, r := range recs {
		if r.ID == first.ID {
			rec = r
		}
	}
	assert.Equal(t, store.QueryRecord{
		ID:         first.ID,
		Query:      "Is CENTURY a valid AGEU term?",
		CodelistID: "AGEU",
		Standard:   "SDTM",
		AnswerKind: "membership",
		Outcome:    "answered",
		CreatedAt:  time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC),
	}, rec)
	assert.True(t, strings.HasPrefix(first.Text, "No, 'CENTURY' is NOT a valid term in the AGEU codelist"))
}

func TestProcess_HistoryFailureIsNotFatal(t *testing.T) {
	a := newAssistant(t, &fakeLookup{codelist: ageu()}, failingHistory{})

	res := a.Process(context.Background(), "Is AGEU extensible?")

	assert.Equal(t, OutcomeAnswered, res.Outcome)
	assert.NoError(t, res.Err)
}
