package models

// PageText is one page of extracted text. Index is 1-based.
type PageText struct {
	Source string
	Index  int
	Lines  []string
}

// ProblemRecord is one detected problem block. ProblemNumber is the literal
// captured digit string, or "N/A" when no boundary line opened the block.
type ProblemRecord struct {
	Source        string
	Page          int
	ProblemNumber string
	Text          string
}

// TaggedProblem is a ProblemRecord carrying the externally supplied exam
// identity and the category assigned during tagging.
type TaggedProblem struct {
	ProblemRecord
	Year     string
	ExamType string
	Category string
}
