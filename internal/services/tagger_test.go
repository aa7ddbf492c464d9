package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cloud.google.com/go/vertexai/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmath/problempipeline/internal/models"
)

type fakeClassifier struct {
	answers map[string]string
	calls   []string
}

func (f *fakeClassifier) Classify(ctx context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	for prefix, category := range f.answers {
		if strings.HasPrefix(text, prefix) {
			return category, nil
		}
	}
	return "", errors.New("model unavailable")
}

func TestTagger_Tag(t *testing.T) {
	classifier := &fakeClassifier{answers: map[string]string{
		"1.": "수열",
		"2.": "미분",
	}}
	records := []models.ProblemRecord{
		{Source: "2024.pdf", Page: 1, ProblemNumber: "N/A", Text: "수학 영역"},
		{Source: "2024.pdf", Page: 1, ProblemNumber: "1", Text: "1. 수열 {a_n}"},
		{Source: "2024.pdf", Page: 2, ProblemNumber: "2", Text: "2. f'(x)"},
		{Source: "2024.pdf", Page: 2, ProblemNumber: "3", Text: "3. ???"},
		{Source: "2024.pdf", Page: 3, ProblemNumber: "3", Text: ""},
	}

	var got []models.TaggedProblem
	stats, err := NewTagger(classifier).Tag(context.Background(), records, "2024", "수능", func(p models.TaggedProblem) error {
		got = append(got, p)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, TagStats{Tagged: 2, Failed: 1, Skipped: 2}, stats)
	require.Len(t, got, len(records))
	for i, p := range got {
		assert.Equal(t, records[i], p.ProblemRecord)
		assert.Equal(t, "2024", p.Year)
		assert.Equal(t, "수능", p.ExamType)
	}
	assert.Equal(t, []string{"", "수열", "미분", "", ""}, []string{got[0].Category, got[1].Category, got[2].Category, got[3].Category, got[4].Category})
	assert.Len(t, classifier.calls, 3)
}

func TestTagger_EmitErrorStops(t *testing.T) {
	classifier := &fakeClassifier{answers: map[string]string{"": "기하"}}
	records := []models.ProblemRecord{
		{ProblemNumber: "1", Text: "1. a"},
		{ProblemNumber: "2", Text: "2. b"},
	}

	boom := errors.New("disk full")
	_, err := NewTagger(classifier).Tag(context.Background(), records, "2024", "수능", func(models.TaggedProblem) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, classifier.calls, 1)
}

func TestTagger_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTagger(&fakeClassifier{}).Tag(ctx, []models.ProblemRecord{{ProblemNumber: "1", Text: "1. a"}}, "2024", "수능", func(models.TaggedProblem) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCategory(t *testing.T) {
	categories := []string{"수열", "미분"}

	got, err := parseCategory(`{"category": " 미분 "}`, categories)
	require.NoError(t, err)
	assert.Equal(t, "미분", got)

	_, err = parseCategory(`{"category": "위상수학"}`, categories)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = parseCategory(`not json`, categories)
	assert.Error(t, err)
}

func TestExtractJSONContent(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("```json\n{\"category\":\"수열\"}\n```")}},
		}},
	}
	assert.Equal(t, `{"category":"수열"}`, extractJSONContent(resp))

	assert.Empty(t, extractJSONContent(nil))
	assert.Empty(t, extractJSONContent(&genai.GenerateContentResponse{}))
}

func TestTaggedObjectName(t *testing.T) {
	assert.Equal(t, "doc123/2024 수능_tagged.csv", taggedObjectName("doc123/2024 수능.csv"))
	assert.Equal(t, "plain_tagged.csv", taggedObjectName("plain"))
}
