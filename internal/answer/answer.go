// Package answer recognises extensibility and membership questions and
// answers them from a rendered codelist listing.
package answer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/kusy2009/Codelist-Genius/internal/listing"
	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

// Kind classifies a synthesized answer.
type Kind string

const (
	KindExtensibility Kind = "extensibility"
	KindMembership    Kind = "membership"
)

// Answer is a direct reply to the question. Value is the term that was
// checked for membership answers and the Yes/No flag for extensibility.
type Answer struct {
	Kind  Kind
	Value string
	Text  string
}

var (
	extensibilityKeywords = []string{"extensible", "extend"}
	membershipKeywords    = []string{"valid", "part of", "in", "included", "member", "accepted", "allowed"}

	// Terms users tend to ask about that are not written in capitals.
	customTerms = []string{"century", "decade", "millisecond", "microsecond", "gay", "other"}

	standardNames = map[string]bool{"SDTM": true, "ADAM": true, "CDASH": true, "SEND": true}
	termNouns     = map[string]bool{"term": true, "value": true, "code": true}

	// words never taken as the candidate after "is" and before a term noun
	isStopwords   = map[string]bool{"the": true, "a": true, "an": true, "there": true, "it": true}
	nounStopwords = map[string]bool{"the": true, "a": true, "an": true, "valid": true, "accepted": true}
)

// candidateFinder returns the values a membership question may be about.
type candidateFinder func(query, codelistID string) []string

var candidateFinders = []candidateFinder{
	customTermCandidates,
	upperCaseCandidates,
	patternCandidates,
}

// Analyze answers query from rendered, or returns nil when the question is
// neither about extensibility nor about membership, or when the listing
// lacks what the answer needs. It has no side effects.
func Analyze(query, rendered string) *Answer {
	lower := strings.ToLower(query)
	parsed := listing.Parse(rendered)

	if containsAny(lower, extensibilityKeywords) {
		return extensibilityAnswer(parsed)
	}
	if containsAny(lower, membershipKeywords) {
		return membershipAnswer(query, parsed)
	}
	return nil
}

func extensibilityAnswer(l listing.Listing) *Answer {
	if !l.HasExtensible || !l.HasID() {
		return nil
	}
	state := "not extensible"
	if l.Extensible {
		state = "extensible"
	}
	return &Answer{
		Kind:  KindExtensibility,
		Value: terminology.YesNo(l.Extensible),
		Text:  fmt.Sprintf("The %s codelist is %s.\n", l.ID, state),
	}
}

func membershipAnswer(query string, l listing.Listing) *Answer {
	if !l.HasExtensible || !l.HasID() || !l.HasTable {
		return nil
	}
	candidates := Candidates(query, l.ID)
	if len(candidates) == 0 {
		return nil
	}

	// only the first candidate is answered
	value := candidates[0]
	for _, term := range l.Terms {
		if strings.Contains(term, value) {
			return &Answer{
				Kind:  KindMembership,
				Value: value,
				Text:  fmt.Sprintf("Yes, '%s' is a valid term in the %s codelist.\n", value, l.ID),
			}
		}
	}

	valid := strings.Join(l.Terms, ", ")
	var text string
	if l.Extensible {
		text = fmt.Sprintf("No, '%s' is NOT a valid term in the %s codelist. However, this codelist is extensible, "+
			"so you could potentially use custom values with proper documentation. Valid terms currently include: %s.\n",
			value, l.ID, valid)
	} else {
		text = fmt.Sprintf("No, '%s' is NOT a valid term in the %s codelist, and this codelist is not extensible. "+
			"You must choose one of the accepted values: %s.\n",
			value, l.ID, valid)
	}
	return &Answer{Kind: KindMembership, Value: value, Text: text}
}

// Candidates returns the de-duplicated candidate values for a membership
// question, from the first finder that yields any.
func Candidates(query, codelistID string) []string {
	for _, find := range candidateFinders {
		if found := dedupe(find(query, codelistID)); len(found) > 0 {
			return found
		}
	}
	return nil
}

func customTermCandidates(query, _ string) []string {
	lower := strings.ToLower(query)
	var out []string
	for _, term := range customTerms {
		if strings.Contains(lower, term) {
			out = append(out, strings.ToUpper(term))
		}
	}
	return out
}

func upperCaseCandidates(query, codelistID string) []string {
	var out []string
	for _, word := range tokens(query) {
		if len([]rune(word)) > 1 && isUpper(word) && !standardNames[word] && word != codelistID {
			out = append(out, word)
		}
	}
	return out
}

// patternCandidates handles "is <word> ..." and "<word> term|value|code".
func patternCandidates(query, codelistID string) []string {
	words := tokens(strings.ToLower(query))
	id := strings.ToLower(codelistID)
	skip := func(w string, stop map[string]bool) bool {
		return w == "" || stop[w] || w == id
	}

	var out []string
	for i, word := range words {
		// "is" needs a word after the candidate
		if word == "is" && i < len(words)-2 && !skip(words[i+1], isStopwords) {
			out = append(out, strings.ToUpper(words[i+1]))
		}
		if termNouns[word] && i > 0 && !skip(words[i-1], nounStopwords) {
			out = append(out, strings.ToUpper(words[i-1]))
		}
	}
	return out
}

// tokens splits on whitespace and trims surrounding punctuation, so that
// "AGEU?" and "'CENTURY'" compare as bare words.
func tokens(s string) []string {
	fields := strings.Fields(s)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimFunc(f, unicode.IsPunct); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// isUpper reports whether s has at least one cased letter and no lower-case ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
