package incident

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"patrol_tracker/internal/apperr"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 10 * time.Second

// Generator returns the raw text a model produced for prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator calls a Gemini model through the genai SDK, asking for a JSON response.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-3-flash-preview"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// GenAIStrategy asks a generative model to summarize and grade a report.
type GenAIStrategy struct {
	gen     Generator
	timeout time.Duration
}

func NewGenAIStrategy(gen Generator, timeout time.Duration) *GenAIStrategy {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GenAIStrategy{gen: gen, timeout: timeout}
}

func (s *GenAIStrategy) Name() string { return "genai" }

func (s *GenAIStrategy) Classify(ctx context.Context, text string) (Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.gen.Generate(ctx, buildPrompt(text))
	if err != nil {
		return Classification{}, apperr.Unavailable(err, "classification service unavailable")
	}
	c, err := parseModelResponse(raw)
	if err != nil {
		return Classification{}, apperr.Unavailable(err, "unusable classification response")
	}
	return c, nil
}

const promptTemplate = `You are a Security Operations Center AI. A security guard has submitted a patrol incident report.

The report may be in ANY language. Understand the meaning regardless of language.

TASK:
1. Carefully analyze what happened based on the report.
2. Assign SEVERITY after considering context and urgency:
   - HIGH: Immediate danger to life or property: fire, smoke, intruders, weapons, medical emergency, chemical spill, person unconscious, violence, structural or major power failure.
   - MED: Security or safety risk short of immediate danger: unlocked or forced door, break-in, asset damage, water leak, electrical fault or sparking, suspicious person, vandalism.
   - LOW: Everything else: maintenance, cleaning needed, lost property, parking issue, minor complaint.
3. Write a short summary in English (max 6 words) that describes the incident for the dashboard.

Guard report (original, any language):
%s

Respond with ONLY valid JSON, no other text:
{"summary":"Your short title here","severity":"HIGH" or "MED" or "LOW"}`

func buildPrompt(text string) string {
	quoted, _ := json.Marshal(text)
	return fmt.Sprintf(promptTemplate, quoted)
}

type modelResponse struct {
	Summary  any `json:"summary"`
	Severity any `json:"severity"`
}

// parseModelResponse recovers the outermost JSON object from raw, which may be
// wrapped in prose or a code fence.
func parseModelResponse(raw string) (Classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return Classification{}, fmt.Errorf("no JSON object in model response")
	}

	var resp modelResponse
	if err := json.Unmarshal([]byte(raw[start:end+1]), &resp); err != nil {
		return Classification{}, fmt.Errorf("decode model response: %w", err)
	}

	sev, _ := resp.Severity.(string)
	severity, ok := ParseSeverity(sev)
	if !ok {
		return Classification{}, fmt.Errorf("unknown severity %v", resp.Severity)
	}
	summary, _ := resp.Summary.(string)
	return Classification{Summary: truncate(summary, MaxSummaryLength), Severity: severity}, nil
}
