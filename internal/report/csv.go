// Package report reads and writes the problem tables exchanged with the
// manual review workflow.
package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/realmath/problempipeline/internal/models"
)

// Column headers used by the review spreadsheets.
const (
	ColSource        = "소스 파일"
	ColPage          = "페이지 번호"
	ColGuessedNumber = "추정 문제 번호"
	ColText          = "추출된 텍스트"
	ColYear          = "연도"
	ColExamType      = "시험 종류"
	ColNumber        = "문제 번호"
	ColCategory      = "대분류"
)

// ErrMissingColumn is returned when a table lacks a required header.
var ErrMissingColumn = errors.New("missing column")

// ProblemHeader returns the header row of an extracted-problems table.
func ProblemHeader(withSource bool) []string {
	h := []string{ColPage, ColGuessedNumber, ColText}
	if withSource {
		h = append([]string{ColSource}, h...)
	}
	return h
}

// ProblemWriter writes ProblemRecords as CSV rows. The header is written on
// the first call to Write, or by Flush when no record was written.
type ProblemWriter struct {
	w             *csv.Writer
	withSource    bool
	headerWritten bool
	count         int
}

// NewProblemWriter returns a writer for w. When withSource is false the
// source column is omitted.
func NewProblemWriter(w io.Writer, withSource bool) *ProblemWriter {
	return &ProblemWriter{w: csv.NewWriter(w), withSource: withSource}
}

func (pw *ProblemWriter) writeHeader() error {
	if pw.headerWritten {
		return nil
	}
	pw.headerWritten = true
	if err := pw.w.Write(ProblemHeader(pw.withSource)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Write appends one record.
func (pw *ProblemWriter) Write(r models.ProblemRecord) error {
	if err := pw.writeHeader(); err != nil {
		return err
	}
	row := []string{strconv.Itoa(r.Page), r.ProblemNumber, r.Text}
	if pw.withSource {
		row = append([]string{r.Source}, row...)
	}
	if err := pw.w.Write(row); err != nil {
		return fmt.Errorf("failed to write row for page %d: %w", r.Page, err)
	}
	pw.count++
	return nil
}

// Count returns the number of records written so far.
func (pw *ProblemWriter) Count() int { return pw.count }

// Flush writes any buffered data and reports the first write error.
func (pw *ProblemWriter) Flush() error {
	if err := pw.writeHeader(); err != nil {
		return err
	}
	pw.w.Flush()
	return pw.w.Error()
}

// table is a parsed CSV with a header index.
type table struct {
	index map[string]int
	rows  [][]string
}

func readTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	if len(records) == 0 {
		return &table{index: map[string]int{}}, nil
	}

	header := records[0]
	if len(header) > 0 {
		// Spreadsheet exports often start with a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[h] = i
	}
	return &table{index: idx, rows: records[1:]}, nil
}

func (t *table) require(cols ...string) error {
	for _, c := range cols {
		if _, ok := t.index[c]; !ok {
			return fmt.Errorf("%w: %q", ErrMissingColumn, c)
		}
	}
	return nil
}

// get returns the named cell of row, or "" when the column is absent or the
// row is short.
func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadProblems reads an extracted-problems table written by ProblemWriter.
// The source column is optional.
func ReadProblems(r io.Reader) ([]models.ProblemRecord, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColPage, ColGuessedNumber, ColText); err != nil {
		return nil, err
	}

	records := make([]models.ProblemRecord, 0, len(t.rows))
	for i, row := range t.rows {
		page, err := strconv.Atoi(t.get(row, ColPage))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid page number: %w", i+2, err)
		}
		records = append(records, models.ProblemRecord{
			Source:        t.get(row, ColSource),
			Page:          page,
			ProblemNumber: t.get(row, ColGuessedNumber),
			Text:          t.get(row, ColText),
		})
	}
	return records, nil
}
