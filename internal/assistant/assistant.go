// Package assistant answers one natural-language codelist question end to
// end: extract parameters, look the codelist up, render it and, when the
// question calls for it, prepend a direct answer.
package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/answer"
	"github.com/kusy2009/Codelist-Genius/internal/apperrors"
	"github.com/kusy2009/Codelist-Genius/internal/extract"
	"github.com/kusy2009/Codelist-Genius/internal/library"
	"github.com/kusy2009/Codelist-Genius/internal/listing"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
	"github.com/kusy2009/Codelist-Genius/internal/metrics"
	"github.com/kusy2009/Codelist-Genius/internal/store"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

// NoCodelistMessage is returned when no codelist could be identified.
const NoCodelistMessage = "I couldn't identify a specific CDISC codelist in your query. " +
	"Please try again and specify which codelist you're interested in (e.g., AGEU, SEX, RACE, ETHNIC)."

// Outcome labels a processed query.
type Outcome string

const (
	OutcomeAnswered     Outcome = "answered"
	OutcomeListing      Outcome = "listing"
	OutcomeNoCodelist   Outcome = "no_codelist"
	OutcomeLookupFailed Outcome = "lookup_failed"
)

// ParameterExtractor finds lookup parameters in a query.
type ParameterExtractor interface {
	Extract(ctx context.Context, query string) extract.Parameters
}

// CodelistLookup fetches one codelist.
type CodelistLookup interface {
	GetCodelist(ctx context.Context, req library.Request) (*terminology.Codelist, error)
}

// HistoryRecorder stores processed queries.
type HistoryRecorder interface {
	RecordQuery(ctx context.Context, rec store.QueryRecord) error
}

// Result is everything known about one processed query. Text is what the
// user sees; Err is the lookup failure behind OutcomeLookupFailed.
type Result struct {
	ID         string
	Query      string
	Parameters extract.Parameters
	Answer     *answer.Answer
	Listing    string
	Text       string
	Outcome    Outcome
	Err        error
}

// Assistant is safe for concurrent use when its collaborators are.
type Assistant struct {
	extractor ParameterExtractor
	lookup    CodelistLookup
	history   HistoryRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// New wires an Assistant. history may be nil.
func New(extractor ParameterExtractor, lookup CodelistLookup, history HistoryRecorder, log *zap.Logger) *Assistant {
	return &Assistant{
		extractor: extractor,
		lookup:    lookup,
		history:   history,
		logger:    logger.OrNop(log),
		now:       time.Now,
	}
}

// Process runs one query. It never fails; failures are reported through
// the Result's Outcome, Text and Err.
func (a *Assistant) Process(ctx context.Context, query string) *Result {
	res := &Result{ID: uuid.NewString(), Query: query}
	log := a.logger.With(zap.String("query_id", res.ID))

	res.Parameters = a.extractor.Extract(ctx, query)
	if res.Parameters.Empty() {
		res.Outcome = OutcomeNoCodelist
		res.Text = NoCodelistMessage
		a.finish(ctx, log, res)
		return res
	}
	log.Info("extracted parameters",
		zap.String("codelist_id", res.Parameters.CodelistID),
		zap.String("standard", string(res.Parameters.Standard)))

	cl, err := a.lookup.GetCodelist(ctx, library.Request{
		CodelistValue: res.Parameters.CodelistID,
		CodelistType:  res.Parameters.CodelistType,
		Standard:      res.Parameters.Standard,
		Version:       res.Parameters.Version,
	})
	if err != nil {
		res.Outcome = OutcomeLookupFailed
		res.Err = err
		res.Text = apperrors.UserMessage(err)
		log.Warn("codelist lookup failed",
			zap.String("codelist_id", res.Parameters.CodelistID),
			zap.String("code", string(apperrors.CodeOf(err))),
			zap.Error(err))
		a.finish(ctx, log, res)
		return res
	}

	res.Listing = listing.Render(cl, 0)
	res.Answer = answer.Analyze(query, res.Listing)
	if res.Answer != nil {
		res.Outcome = OutcomeAnswered
		res.Text = res.Answer.Text + "\n" + res.Listing
		metrics.AnswersSynthesized.WithLabelValues(string(res.Answer.Kind)).Inc()
	} else {
		res.Outcome = OutcomeListing
		res.Text = res.Listing
	}

	a.finish(ctx, log, res)
	return res
}

func (a *Assistant) finish(ctx context.Context, log *zap.Logger, res *Result) {
	metrics.QueriesProcessed.WithLabelValues(string(res.Outcome)).Inc()
	log.Debug("query processed", zap.String("outcome", string(res.Outcome)))

	if a.history == nil {
		return
	}
	rec := store.QueryRecord{
		ID:         res.ID,
		Query:      res.Query,
		CodelistID: res.Parameters.CodelistID,
		Standard:   string(res.Parameters.Standard),
		Outcome:    string(res.Outcome),
		CreatedAt:  a.now().UTC(),
	}
	if res.Answer != nil {
		rec.AnswerKind = string(res.Answer.Kind)
	}
	if err := a.history.RecordQuery(ctx, rec); err != nil {
		log.Warn("failed to record query history", zap.Error(err))
	}
}
