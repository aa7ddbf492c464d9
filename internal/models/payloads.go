package models

// These structs define the JSON payloads exchanged between the tagging
// workflow and the problem-tagger function.

// TagProblemsRequest is the input for the problem-tagger function.
type TagProblemsRequest struct {
	DocumentID  string `json:"documentId"`
	CSVGCSUri   string `json:"csvGcsUri" validate:"required,startswith=gs://"`
	Year        string `json:"year" validate:"required"`
	ExamType    string `json:"examType" validate:"required"`
	ExecutionID string `json:"executionId"`
}

// TagProblemsResponse is the output of the problem-tagger function.
type TagProblemsResponse struct {
	Status       string `json:"status"`
	TaggedGCSUri string `json:"taggedGcsUri"`
	TaggedCount  int    `json:"taggedCount"`
	FailedCount  int    `json:"failedCount"`
}

// TaggingWorkflowArgument is the argument passed to the tagging workflow
// once a document has been extracted.
type TaggingWorkflowArgument struct {
	DocumentID string `json:"documentId"`
	CSVGCSUri  string `json:"csvGcsUri"`
	PageCount  int    `json:"pageCount"`
}
