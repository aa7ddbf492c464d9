package models

// GeneratedProblem is the JSON shape written by the problem generator
// (p_YYYYMMDD.json files). Only the fields copied into Firestore are decoded.
type GeneratedProblem struct {
	ProblemID       string            `json:"problem_id"`
	ID              string            `json:"id"`
	Date            string            `json:"date"`
	DayOfWeek       string            `json:"day_of_week"`
	Title           string            `json:"title"`
	Problem         GeneratedBody     `json:"problem"`
	Solution        GeneratedSolution `json:"solution"`
	Metadata        GeneratedMetadata `json:"metadata"`
	EconomicInsight map[string]any    `json:"economic_insight"`
	NewsReference   map[string]any    `json:"news_reference"`
	CreatedAt       string            `json:"created_at"`
}

type GeneratedBody struct {
	ScenarioText string              `json:"scenario_text"`
	Questions    []GeneratedQuestion `json:"questions"`
}

type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer"`
	AnswerValue   any      `json:"answer_value"`
}

type GeneratedSolution struct {
	Approach     string         `json:"approach"`
	Steps        []any          `json:"steps"`
	Verification map[string]any `json:"verification"`
	Answer       string         `json:"answer"`
}

type GeneratedMetadata struct {
	Topic                string                  `json:"topic"`
	GradeLevel           string                  `json:"grade_level"`
	Difficulty           string                  `json:"difficulty"`
	EconomicTheme        string                  `json:"economic_theme"`
	EstimatedSolvingTime string                  `json:"estimated_solving_time"`
	TargetAccuracy       string                  `json:"target_accuracy"`
	TargetAudience       string                  `json:"target_audience"`
	CSATClassification   GeneratedClassification `json:"csat_classification"`
	UpdatedAt            string                  `json:"updated_at"`
}

type GeneratedClassification struct {
	DomainMain           string   `json:"domain_main"`
	DomainSub            string   `json:"domain_sub"`
	KeyTopic             string   `json:"key_topic"`
	BehaviorType         []string `json:"behavior_type"`
	PrerequisiteConcepts []string `json:"prerequisite_concepts"`
	DifficultyLevel      string   `json:"difficulty_level"`
	ConceptChain         []string `json:"concept_chain"`
}

// ProblemDocument is the Firestore record for a published problem. The
// document ID is ProblemID.
type ProblemDocument struct {
	ProblemID       string            `firestore:"problemId"`
	Week            string            `firestore:"week"`
	Date            string            `firestore:"date"`
	DayOfWeek       string            `firestore:"dayOfWeek"`
	Title           string            `firestore:"title"`
	Content         string            `firestore:"content"`
	Question        string            `firestore:"question"`
	Choices         []string          `firestore:"choices"`
	CorrectAnswer   string            `firestore:"correctAnswer"`
	AnswerValue     any               `firestore:"answerValue"`
	Solution        ProblemSolution   `firestore:"solution"`
	Metadata        ProblemMetadata   `firestore:"metadata"`
	EconomicInsight map[string]any    `firestore:"economicInsight"`
	NewsReference   map[string]any    `firestore:"newsReference"`
	CreatedAt       string            `firestore:"createdAt"`
	UpdatedAt       string            `firestore:"updatedAt"`
	Statistics      ProblemStatistics `firestore:"statistics"`
}

type ProblemSolution struct {
	Approach     string         `firestore:"approach"`
	Steps        []any          `firestore:"steps"`
	Verification map[string]any `firestore:"verification"`
	Answer       string         `firestore:"answer"`
}

type ProblemMetadata struct {
	Topic                string             `firestore:"topic"`
	GradeLevel           string             `firestore:"gradeLevel"`
	Difficulty           string             `firestore:"difficulty"`
	EconomicTheme        string             `firestore:"economicTheme"`
	EstimatedSolvingTime string             `firestore:"estimatedSolvingTime"`
	TargetAccuracy       string             `firestore:"targetAccuracy"`
	TargetAudience       string             `firestore:"targetAudience"`
	CSATClassification   CSATClassification `firestore:"csatClassification"`
}

type CSATClassification struct {
	DomainMain           string   `firestore:"domainMain"`
	DomainSub            string   `firestore:"domainSub"`
	KeyTopic             string   `firestore:"keyTopic"`
	BehaviorType         []string `firestore:"behaviorType"`
	PrerequisiteConcepts []string `firestore:"prerequisiteConcepts"`
	DifficultyLevel      string   `firestore:"difficultyLevel"`
	ConceptChain         []string `firestore:"conceptChain"`
}

// ProblemStatistics starts zeroed and is maintained by the app.
type ProblemStatistics struct {
	TotalAttempts   int     `firestore:"totalAttempts"`
	CorrectAttempts int     `firestore:"correctAttempts"`
	AverageTime     float64 `firestore:"averageTime"`
}
