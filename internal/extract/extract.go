// Package extract turns a free-text question into the codelist lookup
// parameters. Strategies run in a fixed order and the first one that
// produces a codelist wins.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/kusy2009/Codelist-Genius/internal/agent"
	"github.com/kusy2009/Codelist-Genius/internal/logger"
	"github.com/kusy2009/Codelist-Genius/internal/metrics"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

// KnownCodelists is scanned, in order, against the upper-cased query.
var KnownCodelists = []string{
	"AGEU", "SEX", "RACE", "ETHNIC", "COUNTRY", "VISIT", "DOMAIN",
	"ARM", "ARMCD", "DTYPE", "PARAMCD", "PARAMTYP", "UNIT",
}

// FallbackKeywords is scanned, in order, against the lower-cased query when
// the model gives nothing usable.
var FallbackKeywords = []string{"ageu", "sex", "race", "ethnic"}

const (
	SystemPrompt = `You are an assistant that extracts parameters from user queries about CDISC controlled terminology codelists.
Extract the following parameters if present in the query:
- codelist_value: The codelist ID (e.g., AGEU, SEX, RACE, ETHNIC, COUNTRY)
- standard: The CDISC standard (SDTM, ADaM, CDASH, SEND)

Format your response as a JSON object with these parameters.`

	userPromptFormat = "Extract parameters from this query: %s"
	temperature      = 0.1
)

// Strategy names, also used as metric labels.
const (
	StrategyDirectToken     = "direct_token"
	StrategyLanguageModel   = "language_model"
	StrategyKeywordFallback = "keyword_fallback"
	StrategyNone            = "none"
)

// first '{' through last '}', across lines
var braceSpan = regexp.MustCompile(`(?s)\{.*\}`)

// errNoMatch tells the chain to try the next strategy.
var errNoMatch = errors.New("no parameters found")

// Parameters are the lookup inputs found in a query. Standard is set
// exactly when CodelistID is.
type Parameters struct {
	CodelistID   string                   `json:"codelist_id,omitempty"`
	Standard     terminology.Standard     `json:"standard,omitempty"`
	Version      string                   `json:"version,omitempty"`
	CodelistType terminology.CodelistType `json:"codelist_type,omitempty"`
}

// Empty reports whether no codelist was identified.
func (p Parameters) Empty() bool {
	return p.CodelistID == ""
}

func (p Parameters) String() string {
	if p.Empty() {
		return "{}"
	}
	s := fmt.Sprintf("codelist_id=%s standard=%s", p.CodelistID, p.Standard)
	if p.Version != "" {
		s += " version=" + p.Version
	}
	if p.CodelistType != "" {
		s += " codelist_type=" + string(p.CodelistType)
	}
	return s
}

func forCodelist(id string) Parameters {
	return Parameters{CodelistID: id, Standard: terminology.DefaultStandard}
}

type strategy struct {
	name string
	run  func(ctx context.Context, query string) (Parameters, error)
}

// Extractor runs the strategy chain. A nil model skips the model step.
type Extractor struct {
	model      agent.Completer
	logger     *zap.Logger
	strategies []strategy
}

// New creates an Extractor. model may be nil.
func New(model agent.Completer, log *zap.Logger) *Extractor {
	e := &Extractor{model: model, logger: logger.OrNop(log)}
	e.strategies = []strategy{
		{StrategyDirectToken, e.directToken},
		{StrategyLanguageModel, e.languageModel},
		{StrategyKeywordFallback, e.keywordFallback},
	}
	return e
}

// Extract returns the parameters found in query, or empty Parameters.
// It never fails: a strategy error other than "no match" ends the chain
// with an empty result.
func (e *Extractor) Extract(ctx context.Context, query string) Parameters {
	for _, s := range e.strategies {
		params, err := s.run(ctx, query)
		if errors.Is(err, errNoMatch) {
			continue
		}
		if err != nil {
			e.logger.Warn("parameter extraction failed",
				zap.String("strategy", s.name), zap.Error(err))
			metrics.ExtractionStrategyHits.WithLabelValues(StrategyNone).Inc()
			return Parameters{}
		}
		e.logger.Debug("parameters extracted",
			zap.String("strategy", s.name),
			zap.String("codelist_id", params.CodelistID),
			zap.String("standard", string(params.Standard)))
		metrics.ExtractionStrategyHits.WithLabelValues(s.name).Inc()
		return params
	}
	metrics.ExtractionStrategyHits.WithLabelValues(StrategyNone).Inc()
	return Parameters{}
}

func (e *Extractor) directToken(_ context.Context, query string) (Parameters, error) {
	upper := strings.ToUpper(query)
	for _, id := range KnownCodelists {
		if strings.Contains(upper, id) {
			return forCodelist(id), nil
		}
	}
	return Parameters{}, errNoMatch
}

func (e *Extractor) languageModel(ctx context.Context, query string) (Parameters, error) {
	if e.model == nil {
		return Parameters{}, errNoMatch
	}

	reply, err := e.model.Complete(ctx, agent.CompletionRequest{
		SystemPrompt: SystemPrompt,
		UserPrompt:   fmt.Sprintf(userPromptFormat, query),
		Temperature:  temperature,
	})
	if err != nil {
		return Parameters{}, err
	}

	params, err := parseModelReply(reply)
	if err != nil {
		e.logger.Debug("model reply not usable, using keyword fallback", zap.Error(err))
		return Parameters{}, errNoMatch
	}
	return params, nil
}

func (e *Extractor) keywordFallback(_ context.Context, query string) (Parameters, error) {
	lower := strings.ToLower(query)
	for _, kw := range FallbackKeywords {
		if strings.Contains(lower, kw) {
			return forCodelist(strings.ToUpper(kw)), nil
		}
	}
	return Parameters{}, errNoMatch
}

// parseModelReply decodes the largest brace span of reply. Unknown
// standards default to SDTM; an unknown codelist type is dropped.
func parseModelReply(reply string) (Parameters, error) {
	span := braceSpan.FindString(reply)
	if span == "" {
		return Parameters{}, fmt.Errorf("no JSON object in model reply")
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(span), &fields); err != nil {
		return Parameters{}, fmt.Errorf("decode model reply: %w", err)
	}

	id := stringField(fields, "codelist_value")
	if id == "" {
		id = stringField(fields, "codelist_id")
	}
	if id == "" {
		return Parameters{}, fmt.Errorf("model reply names no codelist")
	}

	params := forCodelist(strings.ToUpper(id))
	if std, err := terminology.ParseStandard(stringField(fields, "standard")); err == nil {
		params.Standard = std
	}
	params.Version = stringField(fields, "version")
	if raw := stringField(fields, "codelist_type"); raw != "" {
		if typ, err := terminology.ParseCodelistType(raw); err == nil {
			params.CodelistType = typ
		}
	}
	return params, nil
}

func stringField(fields map[string]any, key string) string {
	s, ok := fields[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
