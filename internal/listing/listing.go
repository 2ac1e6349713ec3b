// Package listing renders a codelist into the plain-text listing shown to
// users and parses such listings back into their ID, extensibility flag and
// submission values.
//
// Grammar:
//
//	header     Submission Values for ID='<id>' (<std> CT Version=<ver>, Extensible=Yes|No)
//	name       Codelist: <name> (<code>)                      optional
//	columns    TERM<pad> Decoded Value
//	separator  ------...
//	row        <submission value><pad> <decoded value>        zero or more
//	truncation ... (showing N of M results)                   optional, ignored
//	total      Total N term(s) found for <id>                 optional, ends the table
package listing

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kusy2009/Codelist-Genius/internal/terminology"
)

const (
	// TermHeader and DecodedHeader are the literal column titles.
	TermHeader    = "TERM"
	DecodedHeader = "Decoded Value"

	idMarker         = "ID='"
	extensibleMarker = "Extensible="
	separatorMarker  = "------"
	truncationPrefix = "..."
	totalPrefix      = "Total "

	minTermWidth   = 20
	separatorWidth = 62
)

// Listing is what the synthesizer needs from a rendered codelist.
// HasTable is set once the TERM / Decoded Value header is seen.
type Listing struct {
	ID            string
	Extensible    bool
	HasExtensible bool
	HasTable      bool
	Terms         []string
}

// HasID reports whether an ID='...' marker was found.
func (l Listing) HasID() bool {
	return l.ID != ""
}

// Render writes the listing for cl. A positive limit caps the number of
// rows shown; the total line always reports the full term count.
func Render(cl *terminology.Codelist, limit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Submission Values for %s%s' (%s CT Version=%s, %s%s)\n",
		idMarker, cl.ID, cl.Standard, cl.Version, extensibleMarker, cl.ExtensibleYN())
	if cl.Name != "" || cl.Code != "" {
		fmt.Fprintf(&b, "Codelist: %s (%s)\n", cl.Name, cl.Code)
	}

	width := termWidth(cl.Terms)
	b.WriteString("\n")
	b.WriteString(formatRow(width, TermHeader, DecodedHeader))
	b.WriteString(strings.Repeat("-", max(separatorWidth, width+1+len(DecodedHeader))))
	b.WriteString("\n")

	for i, term := range cl.Terms {
		if limit > 0 && i >= limit {
			fmt.Fprintf(&b, "%s (showing %d of %d results)\n", truncationPrefix, limit, len(cl.Terms))
			break
		}
		b.WriteString(formatRow(width, term.SubmissionValue, term.DecodedValue))
	}

	fmt.Fprintf(&b, "\n%s%d term(s) found for %s\n", totalPrefix, len(cl.Terms), cl.ID)
	return b.String()
}

func termWidth(terms []terminology.Term) int {
	width := minTermWidth
	for _, t := range terms {
		if n := utf8.RuneCountInString(t.SubmissionValue); n > width {
			width = n
		}
	}
	return width
}

func formatRow(width int, term, decoded string) string {
	return strings.TrimRightFunc(fmt.Sprintf("%-*s %s", width, term, decoded), unicode.IsSpace) + "\n"
}

// Parse reads a listing produced by Render (or by the original Python tool)
// back into a Listing. Missing markers leave the matching fields zero.
func Parse(text string) Listing {
	var (
		l         Listing
		decodedAt = -1
	)

	for _, line := range strings.Split(text, "\n") {
		if l.HasTable {
			value, done := parseRow(line, decodedAt)
			if done {
				break
			}
			if value != "" {
				l.Terms = append(l.Terms, value)
			}
			continue
		}

		if !l.HasID() {
			l.ID = parseID(line)
		}
		if !l.HasExtensible && strings.Contains(line, extensibleMarker) {
			l.HasExtensible = true
			l.Extensible = strings.Contains(line, extensibleMarker+"Yes")
		}
		if strings.Contains(line, TermHeader) && strings.Contains(line, DecodedHeader) {
			l.HasTable = true
			decodedAt = runeIndex(line, DecodedHeader)
		}
	}

	return l
}

func parseID(line string) string {
	_, rest, ok := strings.Cut(line, idMarker)
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "'")
	if !ok {
		return ""
	}
	return id
}

// parseRow returns the submission value of a table line, or done when the
// total line closes the table.
func parseRow(line string, decodedAt int) (value string, done bool) {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		return "", false
	case strings.HasPrefix(trimmed, totalPrefix):
		return "", true
	case strings.Contains(trimmed, separatorMarker), strings.HasPrefix(trimmed, truncationPrefix):
		return "", false
	}

	runes := []rune(strings.TrimRightFunc(line, unicode.IsSpace))
	if decodedAt > 0 && len(runes) > decodedAt && runes[decodedAt-1] == ' ' {
		return strings.TrimSpace(string(runes[:decodedAt])), false
	}
	if decodedAt > 0 && len(runes) <= decodedAt {
		return trimmed, false
	}
	return strings.Fields(trimmed)[0], false
}

func runeIndex(s, substr string) int {
	i := strings.Index(s, substr)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}
