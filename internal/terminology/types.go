// Package terminology holds the CDISC Controlled Terminology model shared by
// the lookup, listing and answer packages.
package terminology

import (
	"fmt"
	"sort"
	"strings"
)

// Standard is the CDISC data model context a codelist belongs to.
type Standard string

const (
	SDTM      Standard = "SDTM"
	ADAM      Standard = "ADAM"
	CDASH     Standard = "CDASH"
	DefineXML Standard = "DEFINE-XML"
	SEND      Standard = "SEND"
	DDF       Standard = "DDF"
	Glossary  Standard = "GLOSSARY"
	MRCT      Standard = "MRCT"
	Protocol  Standard = "PROTOCOL"
	QRS       Standard = "QRS"
	QSFT      Standard = "QS-FT"
	TMF       Standard = "TMF"
)

// DefaultStandard is used whenever a codelist is known but no standard was given.
const DefaultStandard = SDTM

// ValidStandards lists every standard the CDISC Library publishes CT packages for.
var ValidStandards = []Standard{
	SDTM, ADAM, CDASH, DefineXML, SEND, DDF, Glossary, MRCT, Protocol, QRS, QSFT, TMF,
}

// DefaultVersions are the CT package versions used when the caller gives none.
var DefaultVersions = map[Standard]string{
	SDTM:  "2024-09-27",
	ADAM:  "2024-09-27",
	CDASH: "2023-12-15",
	SEND:  "2024-09-27",
}

// ParseStandard normalises s (case-insensitive) into a known Standard.
func ParseStandard(s string) (Standard, error) {
	candidate := Standard(strings.ToUpper(strings.TrimSpace(s)))
	for _, std := range ValidStandards {
		if std == candidate {
			return std, nil
		}
	}
	return "", fmt.Errorf("invalid standard '%s'. Supported values are: %s", s, joinStandards(ValidStandards))
}

// PackagePrefix is the CT package prefix used by the CDISC Library, e.g. "sdtmct".
func (s Standard) PackagePrefix() string {
	return strings.ToLower(string(s)) + "ct"
}

func joinStandards(stds []Standard) string {
	names := make([]string, len(stds))
	for i, s := range stds {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// CodelistType selects which codelist attribute a lookup value is matched against.
type CodelistType string

const (
	// ByID matches the codelist submission value, e.g. AGEU.
	ByID CodelistType = "ID"
	// ByCode matches the codelist concept id, e.g. C66781.
	ByCode CodelistType = "CODELISTCODE"
)

// ParseCodelistType accepts ID or CODELISTCODE in any case; empty means ID.
func ParseCodelistType(s string) (CodelistType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(ByID):
		return ByID, nil
	case string(ByCode):
		return ByCode, nil
	default:
		return "", fmt.Errorf("invalid codelist type '%s': must be ID or CODELISTCODE", s)
	}
}

// Term is one permissible value of a codelist.
type Term struct {
	Code            string `json:"code"`
	SubmissionValue string `json:"submission_value"`
	DecodedValue    string `json:"decoded_value"`
}

// Codelist is a single codelist as fetched from one CT package version.
type Codelist struct {
	ID         string   `json:"id"`
	Code       string   `json:"code"`
	Name       string   `json:"name"`
	Extensible bool     `json:"extensible"`
	Standard   Standard `json:"standard"`
	Version    string   `json:"version"`
	Terms      []Term   `json:"terms"`
}

// SubmissionValues returns the submission values in term order.
func (c *Codelist) SubmissionValues() []string {
	values := make([]string, len(c.Terms))
	for i, t := range c.Terms {
		values[i] = t.SubmissionValue
	}
	return values
}

// ExtensibleYN renders the extensibility flag the way CDISC listings do.
func (c *Codelist) ExtensibleYN() string {
	return YesNo(c.Extensible)
}

// YesNo maps a flag onto "Yes"/"No".
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// SortTerms orders terms by submission value (byte-wise, so case-sensitive).
func SortTerms(terms []Term) {
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].SubmissionValue < terms[j].SubmissionValue
	})
}
