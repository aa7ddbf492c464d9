package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/realmath/problempipeline/internal/models"
)

// TaggedHeader is the header row of a tagged-problems table.
var TaggedHeader = []string{ColSource, ColPage, ColYear, ColExamType, ColNumber, ColCategory, ColText}

// TaggedWriter writes TaggedProblems as CSV rows under TaggedHeader.
type TaggedWriter struct {
	w             *csv.Writer
	headerWritten bool
}

func NewTaggedWriter(w io.Writer) *TaggedWriter {
	return &TaggedWriter{w: csv.NewWriter(w)}
}

func (tw *TaggedWriter) writeHeader() error {
	if tw.headerWritten {
		return nil
	}
	tw.headerWritten = true
	return tw.w.Write(TaggedHeader)
}

func (tw *TaggedWriter) Write(p models.TaggedProblem) error {
	if err := tw.writeHeader(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	row := []string{
		p.Source,
		strconv.Itoa(p.Page),
		p.Year,
		p.ExamType,
		p.ProblemNumber,
		p.Category,
		p.Text,
	}
	if err := tw.w.Write(row); err != nil {
		return fmt.Errorf("failed to write tagged row: %w", err)
	}
	return nil
}

func (tw *TaggedWriter) Flush() error {
	if err := tw.writeHeader(); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	tw.w.Flush()
	return tw.w.Error()
}

// ReadTagged reads a tagged-problems table. The year, exam type, problem
// number and category columns are required; the others are optional so
// hand-maintained sheets can be analyzed too.
func ReadTagged(r io.Reader) ([]models.TaggedProblem, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColYear, ColExamType, ColNumber, ColCategory); err != nil {
		return nil, err
	}

	problems := make([]models.TaggedProblem, 0, len(t.rows))
	for _, row := range t.rows {
		// Page is informational here; hand-edited sheets may leave it blank.
		page, _ := strconv.Atoi(t.get(row, ColPage))
		problems = append(problems, models.TaggedProblem{
			ProblemRecord: models.ProblemRecord{
				Source:        t.get(row, ColSource),
				Page:          page,
				ProblemNumber: t.get(row, ColNumber),
				Text:          t.get(row, ColText),
			},
			Year:     t.get(row, ColYear),
			ExamType: t.get(row, ColExamType),
			Category: t.get(row, ColCategory),
		})
	}
	return problems, nil
}
