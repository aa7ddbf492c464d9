package gcp

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

const TaggerSystemPrompt = "You are an expert on the Korean college scholastic ability test (수능) mathematics section. Your task is to classify exam problems into curriculum units. You must output your response as a valid JSON object."

// TaggerUserPrompt is formatted with the allowed categories and the problem
// text.
const TaggerUserPrompt = `Classify the exam problem below into exactly one of these units (대분류):

%s

Rules:
1.  Choose the unit whose concepts are needed to solve the problem, not the one its wording mentions first.
2.  The problem text was extracted from a PDF, so formulas may be garbled. Infer the intended expression where you can.
3.  Respond with a JSON object with exactly one key, "category", whose value is one of the units above, copied verbatim.

Problem:
%s`

// VertexClient holds the pre-configured generative models.
type VertexClient struct {
	TaggerModel *genai.GenerativeModel
	baseClient  *genai.Client
}

// NewVertexClient creates the tagger model. Its response is constrained to a
// JSON object whose category is one of categories.
func NewVertexClient(ctx context.Context, projectID, region, modelName string, categories []string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	taggerModel := baseClient.GenerativeModel(modelName)
	taggerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TaggerSystemPrompt)},
	}
	taggerModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category": {Type: genai.TypeString, Enum: categories},
			},
			Required: []string{"category"},
		},
		Temperature: genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		TaggerModel: taggerModel,
		baseClient:  baseClient,
	}, nil
}

// TaggerPrompt renders TaggerUserPrompt for one problem.
func TaggerPrompt(categories []string, text string) string {
	var list strings.Builder
	for _, c := range categories {
		list.WriteString("- ")
		list.WriteString(c)
		list.WriteString("\n")
	}
	return fmt.Sprintf(TaggerUserPrompt, strings.TrimRight(list.String(), "\n"), text)
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
