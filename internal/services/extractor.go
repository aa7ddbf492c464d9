package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/realmath/problempipeline/internal/config"
	"github.com/realmath/problempipeline/internal/gcp"
	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/pdftext"
	"github.com/realmath/problempipeline/internal/report"
	"github.com/realmath/problempipeline/internal/segmenter"
)

// ExtractorConfig holds configuration for the problem-extractor function.
type ExtractorConfig struct {
	ProjectID        string
	OutputBucket     string
	CollectionName   string
	WorkflowID       string
	WorkflowLocation string
}

// ExtractorFunction turns an uploaded exam PDF into an extracted-problems
// CSV.
type ExtractorFunction struct {
	storageClient    *storage.Client
	firestoreClient  *firestore.Client
	executionsClient *executions.Client
	extractor        *pdftext.Extractor
	config           ExtractorConfig
}

// GCSEvent is the payload of a storage object finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

func NewExtractor(ctx context.Context) (*ExtractorFunction, error) {
	cfg, err := config.Load("", nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireProject(); err != nil {
		return nil, err
	}

	ec := ExtractorConfig{
		ProjectID:        cfg.ProjectID,
		OutputBucket:     cfg.OutputBucket,
		CollectionName:   cfg.ExtractionsCollection,
		WorkflowID:       cfg.WorkflowID,
		WorkflowLocation: cfg.WorkflowLocation,
	}
	if ec.OutputBucket == "" {
		return nil, fmt.Errorf("MATHPIPE_OUTPUT_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, ec.ProjectID, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := gcp.NewStorageClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}

	f := &ExtractorFunction{
		firestoreClient: firestoreClient,
		storageClient:   storageClient,
		extractor:       &pdftext.Extractor{},
		config:          ec,
	}

	if ec.WorkflowID != "" {
		f.executionsClient, err = executions.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
	}

	slog.Info("Problem extractor initialized.", "outputBucket", ec.OutputBucket, "workflowId", ec.WorkflowID)
	return f, nil
}

func (f *ExtractorFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	if !strings.EqualFold(path.Ext(e.Name), ".pdf") {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new exam PDF.")

	tempDir, err := os.MkdirTemp("", "problem-extractor-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePdfPath := filepath.Join(tempDir, "source.pdf")
	if err := f.streamGCSObject(ctx, e.Bucket, e.Name, sourcePdfPath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash, err := hashFile(sourcePdfPath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	isDuplicate, docID, err := f.isDuplicate(ctx, fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	if isDuplicate {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", docID)
		return nil
	}

	docRef, err := f.createInitialDocument(ctx, fileHash, e.Name)
	if err != nil {
		logCtx.Error("Failed to create initial Firestore document", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", docRef.ID)
	logCtx.Info("Created extraction document in Firestore.")

	pages, err := f.extractor.Pages(ctx, sourcePdfPath, path.Base(e.Name))
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to extract page text", err)
	}

	var buf bytes.Buffer
	count, err := writeProblemsCSV(&buf, path.Base(e.Name), pages)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to write problems csv", err)
	}
	logCtx.Info("Segmented problems.", "pageCount", len(pages), "problemCount", count)

	objectName := csvObjectName(docRef.ID, e.Name)
	bucketHandle := f.storageClient.Bucket(f.config.OutputBucket)
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, objectName, buf.Bytes()); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to save problems csv", err)
	}
	csvURI := gcp.GCSUri(f.config.OutputBucket, objectName)

	updates := []firestore.Update{
		{Path: "status", Value: models.StatusExtracted},
		{Path: "pageCount", Value: len(pages)},
		{Path: "problemCount", Value: count},
		{Path: "outputGcsUri", Value: csvURI},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to update status to EXTRACTED", err)
	}

	if err := f.triggerWorkflow(ctx, logCtx, docRef, csvURI, len(pages)); err != nil {
		return err
	}

	logCtx.Info("Extraction complete.", "outputGcsUri", csvURI)
	return nil
}

// writeProblemsCSV segments pages of one document into w and returns the
// number of records written.
func writeProblemsCSV(w io.Writer, source string, pages []models.PageText) (int, error) {
	pw := report.NewProblemWriter(w, false)
	var writeErr error
	seg := segmenter.New(source, func(r models.ProblemRecord) {
		if writeErr == nil {
			writeErr = pw.Write(r)
		}
	})
	for _, p := range pages {
		seg.Page(p)
	}
	if writeErr != nil {
		return 0, writeErr
	}
	if err := pw.Flush(); err != nil {
		return 0, err
	}
	return pw.Count(), nil
}

// csvObjectName maps "uploads/2024 수능.pdf" to "<docID>/2024 수능.csv".
func csvObjectName(docID, objectName string) string {
	base := path.Base(objectName)
	return fmt.Sprintf("%s/%s.csv", docID, strings.TrimSuffix(base, path.Ext(base)))
}

func (f *ExtractorFunction) isDuplicate(ctx context.Context, fileHash string) (bool, string, error) {
	docs, err := f.firestoreClient.Collection(f.config.CollectionName).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return false, "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return true, docs[0].Ref.ID, nil
	}
	return false, "", nil
}

func (f *ExtractorFunction) createInitialDocument(ctx context.Context, fileHash, filename string) (*firestore.DocumentRef, error) {
	newDoc := models.ExtractionDocument{
		FileHash:         fileHash,
		OriginalFilename: filename,
		Status:           models.StatusExtracting,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, newDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction document: %w", err)
	}
	return docRef, nil
}

func (f *ExtractorFunction) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, csvURI string, pageCount int) error {
	if f.executionsClient == nil {
		logCtx.Info("No tagging workflow configured, skipping hand-off.")
		return nil
	}

	logCtx.Info("Triggering tagging workflow.")
	payloadBytes, err := json.Marshal(models.TaggingWorkflowArgument{
		DocumentID: docRef.ID,
		CSVGCSUri:  csvURI,
		PageCount:  pageCount,
	})
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to marshal workflow payload", err)
	}
	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", f.config.ProjectID, f.config.WorkflowLocation, f.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: string(payloadBytes),
		},
	}
	if _, err := f.executionsClient.CreateExecution(ctx, req); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to trigger workflow execution", err)
	}
	return nil
}

func (f *ExtractorFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := f.updateStatus(ctx, docRef, models.StatusFailed, fullError); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func (f *ExtractorFunction) updateStatus(ctx context.Context, docRef *firestore.DocumentRef, status, errDetails string) error {
	updates := []firestore.Update{
		{Path: "status", Value: status},
	}
	if errDetails != "" {
		updates = append(updates, firestore.Update{Path: "errorDetails", Value: errDetails})
	}
	_, err := docRef.Update(ctx, updates)
	return err
}

func (f *ExtractorFunction) streamGCSObject(ctx context.Context, bucket, object, destPath string) error {
	gcsReader, err := f.storageClient.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer gcsReader.Close()
	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	defer localFile.Close()
	if _, err := io.Copy(localFile, gcsReader); err != nil {
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	return nil
}

func hashFile(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func (f *ExtractorFunction) Close() error {
	if f.executionsClient != nil {
		_ = f.executionsClient.Close()
	}
	_ = f.firestoreClient.Close()
	return f.storageClient.Close()
}
