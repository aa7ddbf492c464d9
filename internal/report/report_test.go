package report

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/realmath/problempipeline/internal/models"
)

func TestProblemWriter_HeaderAndQuoting(t *testing.T) {
	var buf bytes.Buffer
	w := NewProblemWriter(&buf, true)

	require.NoError(t, w.Write(models.ProblemRecord{
		Source:        "2024.pdf",
		Page:          5,
		ProblemNumber: "1",
		Text:          "1. What is 2+2?\nAnswer: \"4\"",
	}))
	require.NoError(t, w.Flush())
	assert.Equal(t, 1, w.Count())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{ColSource, ColPage, ColGuessedNumber, ColText}, rows[0])
	assert.Equal(t, []string{"2024.pdf", "5", "1", "1. What is 2+2?\nAnswer: \"4\""}, rows[1])
}

func TestProblemWriter_WithoutSource(t *testing.T) {
	var buf bytes.Buffer
	w := NewProblemWriter(&buf, false)

	require.NoError(t, w.Write(models.ProblemRecord{Source: "ignored.pdf", Page: 1, ProblemNumber: "N/A", Text: "intro"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, ColPage+","+ColGuessedNumber+","+ColText+"\n1,N/A,intro\n", buf.String())
}

func TestProblemWriter_EmptyStillWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewProblemWriter(&buf, false)

	require.NoError(t, w.Flush())

	assert.Equal(t, strings.Join(ProblemHeader(false), ",")+"\n", buf.String())
}

func TestReadProblems_RoundTripsWriterOutput(t *testing.T) {
	in := []models.ProblemRecord{
		{Source: "2023.pdf", Page: 1, ProblemNumber: "N/A", Text: "수학 영역"},
		{Source: "2023.pdf", Page: 1, ProblemNumber: "1", Text: "1. 함수 f(x)에 대하여\n값을 구하시오."},
	}
	var buf bytes.Buffer
	w := NewProblemWriter(&buf, true)
	for _, r := range in {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Flush())

	out, err := ReadProblems(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestReadProblems_MissingColumn(t *testing.T) {
	_, err := ReadProblems(strings.NewReader("a,b\n1,2\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadProblems_InvalidPage(t *testing.T) {
	input := ColPage + "," + ColGuessedNumber + "," + ColText + "\nfirst,1,text\n"
	_, err := ReadProblems(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestReadTagged_ToleratesBOMAndOptionalColumns(t *testing.T) {
	input := "\ufeff" + ColYear + "," + ColExamType + "," + ColNumber + "," + ColCategory + "\n" +
		"2024,수능,1,수열\n" +
		"2024,6월 모의평가,2,미분\n"

	problems, err := ReadTagged(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, problems, 2)
	assert.Equal(t, "2024", problems[0].Year)
	assert.Equal(t, "수능", problems[0].ExamType)
	assert.Equal(t, "1", problems[0].ProblemNumber)
	assert.Equal(t, "수열", problems[0].Category)
	assert.Equal(t, 0, problems[0].Page)
}

func TestReadTagged_MissingCategory(t *testing.T) {
	input := ColYear + "," + ColExamType + "," + ColNumber + "\n2024,수능,1\n"

	_, err := ReadTagged(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), ColCategory)
}

func TestTaggedWriter_RoundTrip(t *testing.T) {
	in := models.TaggedProblem{
		ProblemRecord: models.ProblemRecord{Source: "2022.pdf", Page: 3, ProblemNumber: "7", Text: "7. 수열 {a_n}"},
		Year:          "2022",
		ExamType:      "수능",
		Category:      "수열",
	}
	var buf bytes.Buffer
	w := NewTaggedWriter(&buf)
	require.NoError(t, w.Write(in))
	require.NoError(t, w.Flush())

	out, err := ReadTagged(&buf)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in, out[0])
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "review.xlsx")
	records := []models.ProblemRecord{
		{Source: "2024.pdf", Page: 1, ProblemNumber: "1", Text: "1. first\nline"},
		{Source: "2024.pdf", Page: 2, ProblemNumber: "2", Text: "2. second"},
	}

	require.NoError(t, WriteWorkbook(path, records, true))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(reviewSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ProblemHeader(true), rows[0])
	assert.Equal(t, []string{"2024.pdf", "1", "1", "1. first\nline"}, rows[1])
	assert.Equal(t, "2. second", rows[2][3])
}
