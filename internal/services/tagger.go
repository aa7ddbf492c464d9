package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"
	"github.com/go-playground/validator/v10"

	"github.com/realmath/problempipeline/internal/config"
	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/report"
	"github.com/realmath/problempipeline/internal/segmenter"
)

// ErrInvalidRequest marks a tagging request rejected before any work is
// done.
var ErrInvalidRequest = errors.New("invalid tagging request")

// ErrUnknownCategory is returned by a Classifier whose answer is not one of
// the configured categories.
var ErrUnknownCategory = errors.New("unknown category")

// Classifier assigns a category to one problem text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// VertexClassifier classifies problems with the Gemini tagger model.
type VertexClassifier struct {
	model      *genai.GenerativeModel
	categories []string
}

func NewVertexClassifier(vertexClient *gcp.VertexClient, categories []string) *VertexClassifier {
	return &VertexClassifier{model: vertexClient.TaggerModel, categories: categories}
}

type categoryResponse struct {
	Category string `json:"category"`
}

func (c *VertexClassifier) Classify(ctx context.Context, text string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(gcp.TaggerPrompt(c.categories, text)))
	if err != nil {
		return "", fmt.Errorf("failed to generate category from gemini: %w", err)
	}

	jsonString := extractJSONContent(resp)
	if jsonString == "" {
		return "", fmt.Errorf("gemini returned an empty response instead of JSON")
	}
	return parseCategory(jsonString, c.categories)
}

// parseCategory decodes a {"category": ...} answer and checks it against the
// allowed list.
func parseCategory(jsonString string, categories []string) (string, error) {
	var parsed categoryResponse
	if err := json.Unmarshal([]byte(jsonString), &parsed); err != nil {
		return "", fmt.Errorf("failed to parse JSON from model: %w", err)
	}
	category := strings.TrimSpace(parsed.Category)
	if !slices.Contains(categories, category) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, parsed.Category)
	}
	return category, nil
}

// extractJSONContent gets the raw text content from the model response.
func extractJSONContent(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	if txt, ok := resp.Candidates[0].Content.Parts[0].(genai.Text); ok {
		return trimJSONFence(string(txt))
	}
	return ""
}

func trimJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// TagStats summarizes one tagging run.
type TagStats struct {
	Tagged  int
	Failed  int
	Skipped int
}

// Tagger attaches an exam identity and a category to extracted problems.
type Tagger struct {
	classifier Classifier
}

func NewTagger(classifier Classifier) *Tagger {
	return &Tagger{classifier: classifier}
}

// Tag classifies every record and passes the result to emit in input order.
// Records without a problem number or text are passed through untagged. A
// classifier failure is logged and the record is emitted with an empty
// category. Only an emit error or a cancelled context stops the run.
func (t *Tagger) Tag(ctx context.Context, records []models.ProblemRecord, year, examType string, emit func(models.TaggedProblem) error) (TagStats, error) {
	logCtx := slog.With("year", year, "examType", examType)
	var stats TagStats

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		tp := models.TaggedProblem{ProblemRecord: r, Year: year, ExamType: examType}

		switch {
		case r.ProblemNumber == segmenter.NoProblemNumber || r.Text == "":
			stats.Skipped++
		default:
			category, err := t.classifier.Classify(ctx, r.Text)
			if err != nil {
				logCtx.Warn("Failed to classify problem", "source", r.Source, "page", r.Page, "problemNumber", r.ProblemNumber, "error", err)
				stats.Failed++
			} else {
				tp.Category = category
				stats.Tagged++
			}
		}

		if err := emit(tp); err != nil {
			return stats, err
		}
	}

	logCtx.Info("Tagging complete.", "tagged", stats.Tagged, "failed", stats.Failed, "skipped", stats.Skipped)
	return stats, nil
}

// TaggerConfig holds configuration for the problem-tagger function.
type TaggerConfig struct {
	ProjectID    string
	VertexRegion string
	VertexModel  string
	Categories   []string
	OutputBucket string
}

// TaggerFunction holds dependencies for the HTTP tagging function.
type TaggerFunction struct {
	storageClient *storage.Client
	vertexClient  *gcp.VertexClient
	objects       ObjectStore
	tagger        *Tagger
	validate      *validator.Validate
	config        TaggerConfig
}

// NewTaggerFunctionWith builds a TaggerFunction over already constructed
// dependencies. Close is a no-op for it.
func NewTaggerFunctionWith(objects ObjectStore, classifier Classifier, cfg TaggerConfig) *TaggerFunction {
	return &TaggerFunction{
		objects:  objects,
		tagger:   NewTagger(classifier),
		validate: validator.New(),
		config:   cfg,
	}
}

// NewTaggerFunction creates a TaggerFunction from the environment.
func NewTaggerFunction(ctx context.Context) (*TaggerFunction, error) {
	cfg, err := config.Load("", nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireProject(); err != nil {
		return nil, err
	}

	tc := TaggerConfig{
		ProjectID:    cfg.ProjectID,
		VertexRegion: cfg.VertexRegion,
		VertexModel:  cfg.VertexModel,
		Categories:   cfg.Categories,
		OutputBucket: cfg.OutputBucket,
	}

	storageClient, err := gcp.NewStorageClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	vertexClient, err := gcp.NewVertexClient(ctx, tc.ProjectID, tc.VertexRegion, tc.VertexModel, tc.Categories)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	slog.Info("Problem tagger initialized.", "model", tc.VertexModel, "categories", len(tc.Categories))
	f := NewTaggerFunctionWith(GCSObjectSource{Client: storageClient}, NewVertexClassifier(vertexClient, tc.Categories), tc)
	f.storageClient = storageClient
	f.vertexClient = vertexClient
	return f, nil
}

// Process tags the extracted CSV named in req and writes the tagged CSV next
// to it, or into the configured output bucket.
func (f *TaggerFunction) Process(ctx context.Context, req *models.TagProblemsRequest) (*models.TagProblemsResponse, error) {
	logCtx := slog.With("documentId", req.DocumentID, "executionId", req.ExecutionID)
	logCtx.Info("Starting problem tagging.", "gcsUri", req.CSVGCSUri)

	if err := f.validate.Struct(req); err != nil {
		logCtx.Error("Invalid tagging request", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	bucket, object, err := gcp.ParseGCSUri(req.CSVGCSUri)
	if err != nil {
		logCtx.Error("Invalid CSV URI", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	data, err := f.objects.Read(ctx, bucket, object)
	if err != nil {
		logCtx.Error("Failed to download extracted CSV", "error", err)
		return nil, err
	}

	records, err := report.ReadProblems(bytes.NewReader(data))
	if err != nil {
		logCtx.Error("Failed to parse extracted CSV", "error", err)
		return nil, fmt.Errorf("failed to parse %s: %w", req.CSVGCSUri, err)
	}

	var buf bytes.Buffer
	w := report.NewTaggedWriter(&buf)
	stats, err := f.tagger.Tag(ctx, records, req.Year, req.ExamType, w.Write)
	if err != nil {
		logCtx.Error("Tagging aborted", "error", err)
		return nil, fmt.Errorf("failed to tag problems: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("failed to write tagged csv: %w", err)
	}

	outBucket := bucket
	if f.config.OutputBucket != "" {
		outBucket = f.config.OutputBucket
	}
	outObject := taggedObjectName(object)
	if err := f.objects.Save(ctx, outBucket, outObject, buf.Bytes()); err != nil {
		logCtx.Error("Failed to save tagged CSV", "error", err, "objectName", outObject)
		return nil, err
	}

	taggedURI := gcp.GCSUri(outBucket, outObject)
	logCtx.Info("Problem tagging complete.", "taggedGcsUri", taggedURI, "tagged", stats.Tagged, "failed", stats.Failed)
	return &models.TagProblemsResponse{
		Status:       "success",
		TaggedGCSUri: taggedURI,
		TaggedCount:  stats.Tagged,
		FailedCount:  stats.Failed,
	}, nil
}

// taggedObjectName maps "doc/exam.csv" to "doc/exam_tagged.csv".
func taggedObjectName(object string) string {
	ext := path.Ext(object)
	return strings.TrimSuffix(object, ext) + TaggedSuffix
}

func (f *TaggerFunction) Close() error {
	if f.vertexClient != nil {
		if err := f.vertexClient.Close(); err != nil {
			return err
		}
	}
	if f.storageClient != nil {
		return f.storageClient.Close()
	}
	return nil
}
