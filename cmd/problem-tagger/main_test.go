package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/report"
	"github.com/realmath/problempipeline/internal/services"
)

type bucketObjects map[string][]byte

func (b bucketObjects) List(ctx context.Context, bucket, prefix, suffix string) ([]string, error) {
	return nil, nil
}

func (b bucketObjects) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	data, ok := b[bucket+"/"+object]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (b bucketObjects) Save(ctx context.Context, bucket, object string, data []byte) error {
	b[bucket+"/"+object] = data
	return nil
}

type constClassifier string

func (c constClassifier) Classify(ctx context.Context, text string) (string, error) {
	return string(c), nil
}

// useTagger installs a tagger over objects in place of the lazily
// initialized production instance.
func useTagger(t *testing.T, objects bucketObjects) {
	t.Helper()
	once.Do(func() {})
	prev := taggerInstance
	taggerInstance = services.NewTaggerFunctionWith(objects, constClassifier("수열"), services.TaggerConfig{})
	t.Cleanup(func() { taggerInstance = prev })
}

func post(body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	handleTagProblems(rec, req)
	return rec
}

func TestHandleTagProblems(t *testing.T) {
	var csv bytes.Buffer
	w := report.NewProblemWriter(&csv, false)
	require.NoError(t, w.Write(models.ProblemRecord{Page: 1, ProblemNumber: "1", Text: "1. a_n"}))
	require.NoError(t, w.Flush())
	objects := bucketObjects{"extracted/doc1/exam.csv": csv.Bytes()}
	useTagger(t, objects)

	rec := post(`{"documentId":"doc1","csvGcsUri":"gs://extracted/doc1/exam.csv","year":"2024","examType":"수능"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"success","taggedGcsUri":"gs://extracted/doc1/exam_tagged.csv","taggedCount":1,"failedCount":0}`, rec.Body.String())
	assert.Contains(t, objects, "extracted/doc1/exam_tagged.csv")
}

func TestHandleTagProblems_BadRequests(t *testing.T) {
	useTagger(t, bucketObjects{})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"documentId":`},
		{"missing year", `{"csvGcsUri":"gs://extracted/doc1/exam.csv","examType":"수능"}`},
		{"bucket only uri", `{"csvGcsUri":"gs://extracted","year":"2024","examType":"수능"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, post(tt.body).Code)
		})
	}
}

func TestHandleTagProblems_ProcessingFailure(t *testing.T) {
	useTagger(t, bucketObjects{})

	rec := post(`{"csvGcsUri":"gs://extracted/doc1/missing.csv","year":"2024","examType":"수능"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
