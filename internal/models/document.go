package models

import "time"

// Extraction statuses recorded on an ExtractionDocument.
const (
	StatusExtracting = "EXTRACTING"
	StatusExtracted  = "EXTRACTED"
	StatusFailed     = "FAILED"
)

// ExtractionDocument is the Firestore record for one exam PDF run through the
// problem-extractor function.
type ExtractionDocument struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	ProblemCount     int       `firestore:"problemCount,omitempty"`
	OutputGCSUri     string    `firestore:"outputGcsUri,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}
