package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/realmath/problempipeline/internal/models"
)

// ErrNoQuestions is returned for a generated problem without questions.
var ErrNoQuestions = errors.New("no questions found")

const (
	problemDateLayout = "2006-01-02"
	weekLayout        = "20060102"
	fallbackWeek      = "20250101"
	// isoLayout matches the generator's own timestamps: microseconds, no zone.
	isoLayout         = "2006-01-02T15:04:05.000000"
)

// excludedNameParts mark aggregate files that live next to the per-day
// problem files.
var excludedNameParts = []string{"standardized", "collection", "all_problems"}

// ListProblemFiles returns the p_*.json files in dir, sorted by name,
// without aggregate files.
func ListProblemFiles(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "p_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list problem files: %w", err)
	}
	sort.Strings(matches)

	files := matches[:0]
	for _, m := range matches {
		if isAggregateFile(filepath.Base(m)) {
			continue
		}
		files = append(files, m)
	}
	return files, nil
}

func isAggregateFile(name string) bool {
	for _, part := range excludedNameParts {
		if strings.Contains(name, part) {
			return true
		}
	}
	return false
}

// ParseWeek parses a YYYYMMDD week start.
func ParseWeek(s string) (time.Time, error) {
	t, err := time.Parse(weekLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week %q, use YYYYMMDD (e.g. 20251201): %w", s, err)
	}
	return t, nil
}

// SelectWeek keeps the files whose problem date falls in
// [start, start+7 days). Files that cannot be read or dated are skipped.
func SelectWeek(files []string, start time.Time) []string {
	end := start.AddDate(0, 0, 7)
	var selected []string
	for _, f := range files {
		p, err := LoadProblem(f)
		if err != nil {
			slog.Debug("Skipping unreadable problem file", "file", f, "error", err)
			continue
		}
		d, err := time.Parse(problemDateLayout, p.Date)
		if err != nil {
			continue
		}
		if !d.Before(start) && d.Before(end) {
			selected = append(selected, f)
		}
	}
	return selected
}

// LoadProblem validates and decodes one generated problem file.
func LoadProblem(path string) (*models.GeneratedProblem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := validateProblemJSON(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var p models.GeneratedProblem
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &p, nil
}

// ConvertProblem maps a generated problem to its Firestore document. Only the
// first question is published. Missing timestamps default to now.
func ConvertProblem(p *models.GeneratedProblem, now time.Time) (models.ProblemDocument, error) {
	problemID := p.ProblemID
	if problemID == "" {
		problemID = p.ID
	}
	if problemID == "" {
		problemID = "unknown"
	}

	if len(p.Problem.Questions) == 0 {
		return models.ProblemDocument{}, fmt.Errorf("%w in problem %s", ErrNoQuestions, problemID)
	}
	q := p.Problem.Questions[0]

	week := fallbackWeek
	if d, err := time.Parse(problemDateLayout, p.Date); err == nil {
		week = d.Format(weekLayout)
	}

	nowISO := now.Format(isoLayout)
	createdAt := p.CreatedAt
	if createdAt == "" {
		createdAt = nowISO
	}
	updatedAt := p.Metadata.UpdatedAt
	if updatedAt == "" {
		updatedAt = nowISO
	}

	cls := p.Metadata.CSATClassification
	return models.ProblemDocument{
		ProblemID:     problemID,
		Week:          week,
		Date:          p.Date,
		DayOfWeek:     p.DayOfWeek,
		Title:         p.Title,
		Content:       p.Problem.ScenarioText,
		Question:      q.Question,
		Choices:       orEmpty(q.Choices),
		CorrectAnswer: q.CorrectAnswer,
		AnswerValue:   q.AnswerValue,
		Solution: models.ProblemSolution{
			Approach:     p.Solution.Approach,
			Steps:        orEmpty(p.Solution.Steps),
			Verification: orEmptyMap(p.Solution.Verification),
			Answer:       p.Solution.Answer,
		},
		Metadata: models.ProblemMetadata{
			Topic:                p.Metadata.Topic,
			GradeLevel:           p.Metadata.GradeLevel,
			Difficulty:           p.Metadata.Difficulty,
			EconomicTheme:        p.Metadata.EconomicTheme,
			EstimatedSolvingTime: p.Metadata.EstimatedSolvingTime,
			TargetAccuracy:       p.Metadata.TargetAccuracy,
			TargetAudience:       p.Metadata.TargetAudience,
			CSATClassification: models.CSATClassification{
				DomainMain:           cls.DomainMain,
				DomainSub:            cls.DomainSub,
				KeyTopic:             cls.KeyTopic,
				BehaviorType:         orEmpty(cls.BehaviorType),
				PrerequisiteConcepts: orEmpty(cls.PrerequisiteConcepts),
				DifficultyLevel:      cls.DifficultyLevel,
				ConceptChain:         orEmpty(cls.ConceptChain),
			},
		},
		EconomicInsight: orEmptyMap(p.EconomicInsight),
		NewsReference:   orEmptyMap(p.NewsReference),
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// orEmpty makes absent lists store as empty arrays rather than null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// ProblemStore persists problem documents by ID.
type ProblemStore interface {
	SetProblem(ctx context.Context, id string, doc models.ProblemDocument) error
}

// FirestoreProblemStore writes problems into a Firestore collection.
type FirestoreProblemStore struct {
	collection *firestore.CollectionRef
}

func NewFirestoreProblemStore(client *firestore.Client, collection string) *FirestoreProblemStore {
	return &FirestoreProblemStore{collection: client.Collection(collection)}
}

func (s *FirestoreProblemStore) SetProblem(ctx context.Context, id string, doc models.ProblemDocument) error {
	if _, err := s.collection.Doc(id).Set(ctx, doc); err != nil {
		return fmt.Errorf("failed to set problem %s: %w", id, err)
	}
	return nil
}

// UploadResult is the outcome for one problem file.
type UploadResult struct {
	File      string
	ProblemID string
	Title     string
	Err       error
}

// UploadSummary totals an upload run.
type UploadSummary struct {
	DryRun    bool
	Succeeded int
	Failed    int
	Results   []UploadResult
}

// ProblemUploader publishes generated problem files.
type ProblemUploader struct {
	store ProblemStore
	now   func() time.Time
}

// NewProblemUploader returns an uploader writing to store. store may be nil
// for dry runs.
func NewProblemUploader(store ProblemStore) *ProblemUploader {
	return &ProblemUploader{store: store, now: time.Now}
}

// Upload converts and stores each file in order. A failing file is logged
// and counted; the rest still run. With dryRun nothing is written.
func (u *ProblemUploader) Upload(ctx context.Context, files []string, dryRun bool) (UploadSummary, error) {
	summary := UploadSummary{DryRun: dryRun}
	if !dryRun && u.store == nil {
		return summary, fmt.Errorf("problem uploader has no store")
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		res := u.uploadOne(ctx, file, dryRun)
		if res.Err != nil {
			slog.Error("Failed to upload problem", "file", filepath.Base(file), "error", res.Err)
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.Results = append(summary.Results, res)
	}
	return summary, nil
}

func (u *ProblemUploader) uploadOne(ctx context.Context, file string, dryRun bool) UploadResult {
	res := UploadResult{File: file}

	p, err := LoadProblem(file)
	if err != nil {
		res.Err = err
		return res
	}
	doc, err := ConvertProblem(p, u.now())
	if err != nil {
		res.Err = err
		return res
	}
	res.ProblemID = doc.ProblemID
	res.Title = doc.Title

	if dryRun {
		slog.Info("Would upload problem", "problemId", doc.ProblemID, "title", doc.Title)
		return res
	}
	if err := u.store.SetProblem(ctx, doc.ProblemID, doc); err != nil {
		res.Err = err
		return res
	}
	slog.Info("Uploaded problem", "problemId", doc.ProblemID, "title", doc.Title)
	return res
}
