// Package segmenter splits extracted exam page text into numbered problem
// blocks.
//
// A block starts at a boundary line ("12. ...") and runs until the next
// boundary line or the end of the page. Blocks never span pages: a problem
// continued on the next page comes out as two records with the same number,
// one per page, which is what the manual review sheet expects.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/realmath/problempipeline/internal/models"
)

// NoProblemNumber is recorded for text seen before the first boundary line
// of a source.
const NoProblemNumber = "N/A"

// boundaryPattern matches a one or two digit problem number followed by a
// period at the start of an unindented line. "172." does not match.
var boundaryPattern = regexp.MustCompile(`^(\d{1,2})\.`)

// IsBoundaryLine reports whether line starts a new problem and, if so,
// returns the captured problem number. Indentation may be any Unicode
// space, including the NBSP and ideographic spaces PDF text often carries.
func IsBoundaryLine(line string) (string, bool) {
	m := boundaryPattern.FindStringSubmatch(strings.TrimLeftFunc(line, unicode.IsSpace))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Segmenter segments the pages of one source document. The text buffer is
// page scoped; the current problem number carries from page to page so that
// a continued problem keeps its number.
type Segmenter struct {
	source string
	number string
	emit   func(models.ProblemRecord)
}

// New returns a Segmenter that tags every record with source and hands it to
// emit as soon as it is complete.
func New(source string, emit func(models.ProblemRecord)) *Segmenter {
	return &Segmenter{
		source: source,
		number: NoProblemNumber,
		emit:   emit,
	}
}

// Page segments one page. Pages must be fed in document order.
func (s *Segmenter) Page(page models.PageText) {
	var acc strings.Builder

	flush := func() {
		s.emit(models.ProblemRecord{
			Source:        s.source,
			Page:          page.Index,
			ProblemNumber: s.number,
			Text:          strings.TrimSpace(acc.String()),
		})
	}

	for _, line := range page.Lines {
		if n, ok := IsBoundaryLine(line); ok {
			if acc.Len() > 0 {
				flush()
			}
			acc.Reset()
			acc.WriteString(line)
			s.number = n
			continue
		}
		acc.WriteString("\n")
		acc.WriteString(line)
	}

	if acc.Len() > 0 {
		flush()
	}
}

// Segment segments pages in the order given and collects the records.
func Segment(source string, pages []models.PageText) []models.ProblemRecord {
	var records []models.ProblemRecord
	s := New(source, func(r models.ProblemRecord) {
		records = append(records, r)
	})
	for _, page := range pages {
		s.Page(page)
	}
	return records
}
