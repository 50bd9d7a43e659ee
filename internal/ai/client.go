package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"

	"patent-ip-platform/internal/logger"
	"patent-ip-platform/models"
)

// GeminiClient wraps the Gemini API for the three reasoning collaborators of
// the pipeline: candidate advisory analysis, contrastive rationales and
// diagram classification. All calls go through a shared circuit breaker and
// rate limiter.
type GeminiClient struct {
	client         *genai.Client
	breaker        *gobreaker.CircuitBreaker
	rateLimiter    *rate.Limiter
	reasoningModel string
	visionModel    string
}

type RateLimits struct {
	RPM int // Requests per minute
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10}
	case "tier1":
		return RateLimits{RPM: 1000}
	case "tier2":
		return RateLimits{RPM: 2000}
	default:
		return RateLimits{RPM: 10}
	}
}

func NewGeminiClient(apiKey, tier, reasoningModel, visionModel string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10+1)

	return &GeminiClient{
		client:         client,
		breaker:        breaker,
		rateLimiter:    rateLimiter,
		reasoningModel: reasoningModel,
		visionModel:    visionModel,
	}, nil
}

func (gc *GeminiClient) Close() error {
	return gc.client.Close()
}

// generateJSON runs a prompt against a model configured for structured JSON
// output and unmarshals the response into out.
func (gc *GeminiClient) generateJSON(ctx context.Context, modelName, spanName string, schema *genai.Schema, out any, parts ...genai.Part) error {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, spanName)
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", modelName))

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(modelName)
		model.SetTemperature(0)
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = schema

		resp, err := model.GenerateContent(ctx, parts...)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return err
	}

	text, err := responseText(result.(*genai.GenerateContentResponse))
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("malformed structured output: %w", err)
	}
	return nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty model response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no text in model response")
	}
	return sb.String(), nil
}

const advisorySystemPrompt = `You are an AI assistant supporting a human patent examiner.

RULES (MANDATORY):
- You are NOT a legal authority.
- You provide ADVISORY analysis only.
- Focus STRICTLY on CLAIM-TO-CLAIM comparison.
- Ignore descriptions unless required for clarification.

ANTICIPATION STANDARD:
- A claim is anticipated ONLY if all essential elements are present.
- Partial overlap does NOT count as anticipation.

CONFIDENCE CALIBRATION:
- If uncertain, keep confidence BELOW 0.6.
- Use confidence ABOVE 0.7 ONLY if anticipation is clear.

OUTPUT RULES:
- Output structured data ONLY.
- List ONLY valid TARGET claim numbers.
- Be technical, concise, and factual.`

// advisorySchema mirrors models.AdvisoryJudgment for structured output.
var advisorySchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggested_conflict": {Type: genai.TypeBoolean},
		"confidence":         {Type: genai.TypeNumber},
		"claim_analysis": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"target_claim":  {Type: genai.TypeInteger},
					"source_claims": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeInteger}},
					"match_type":    {Type: genai.TypeString, Enum: []string{"SINGLE", "COMBINED"}},
					"rationale":     {Type: genai.TypeString},
				},
				Required: []string{"target_claim", "source_claims", "match_type", "rationale"},
			},
		},
		"diagram_support": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"used":        {Type: genai.TypeBoolean},
				"explanation": {Type: genai.TypeString},
			},
			Required: []string{"used"},
		},
		"reasoning": {Type: genai.TypeString},
	},
	Required: []string{"suggested_conflict", "confidence", "claim_analysis", "diagram_support", "reasoning"},
}

// ClaimContext is one expanded claim handed to the reasoning model.
type ClaimContext struct {
	ClaimNo int    `json:"claim_no"`
	Text    string `json:"text"`
}

// AnalyzeCandidate requests a structured advisory judgment comparing the
// target's expanded claims against a candidate's. Output is untrusted; the
// caller sanitizes claim numbers against ground truth.
func (gc *GeminiClient) AnalyzeCandidate(ctx context.Context, targetClaims, candidateClaims []ClaimContext) (*models.AdvisoryJudgment, error) {
	targetJSON, err := json.Marshal(targetClaims)
	if err != nil {
		return nil, err
	}
	candidateJSON, err := json.Marshal(candidateClaims)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(`%s

TARGET PATENT CLAIMS:
%s

CANDIDATE PATENT CLAIMS:
%s

Identify whether any TARGET claim is anticipated by the CANDIDATE.
Return claim-level analysis.`, advisorySystemPrompt, targetJSON, candidateJSON)

	var judgment models.AdvisoryJudgment
	if err := gc.generateJSON(ctx, gc.reasoningModel, "gemini.advisory_analysis", advisorySchema, &judgment, genai.Text(prompt)); err != nil {
		return nil, err
	}
	return &judgment, nil
}

var rationaleSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"overlaps": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"element":     {Type: genai.TypeString},
					"explanation": {Type: genai.TypeString},
				},
				Required: []string{"element", "explanation"},
			},
		},
		"distinctions": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"element":     {Type: genai.TypeString},
					"explanation": {Type: genai.TypeString},
				},
				Required: []string{"element", "explanation"},
			},
		},
		"overall_assessment": {
			Type: genai.TypeString,
			Enum: []string{"HIGH_OVERLAP", "PARTIAL_OVERLAP", "LOW_OVERLAP", "NO_OVERLAP"},
		},
		"summary": {Type: genai.TypeString},
	},
	Required: []string{"overlaps", "distinctions", "overall_assessment", "summary"},
}

// GenerateRationale requests a contrastive overlap/distinction judgment
// between a target fragment and a candidate fragment.
func (gc *GeminiClient) GenerateRationale(ctx context.Context, targetText, candidateText string) (*models.Rationale, error) {
	prompt := fmt.Sprintf(`You are a patent examiner analyzing technical similarities between patent claims. Provide a structured comparison.

Compare the following two patent fragments:

TARGET FRAGMENT:
%q

CANDIDATE FRAGMENT (Potential Prior Art):
%q

Provide a structured analysis of overlaps and distinctions.`, targetText, candidateText)

	var rationale models.Rationale
	if err := gc.generateJSON(ctx, gc.reasoningModel, "gemini.rationale", rationaleSchema, &rationale, genai.Text(prompt)); err != nil {
		return nil, err
	}
	return &rationale, nil
}

// DiagramAnalysis is the classifier's raw output for one diagram image.
type DiagramAnalysis struct {
	Type            string   `json:"type"`
	SemanticSummary string   `json:"semantic_summary"`
	Components      []string `json:"components"`
	Connections     []string `json:"connections"`
	Labels          []string `json:"labels"`
	Confidence      float64  `json:"confidence"`
}

var diagramSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"type": {
			Type: genai.TypeString,
			Enum: []string{"flowchart", "block_diagram", "mechanical", "architecture", "unknown"},
		},
		"semantic_summary": {Type: genai.TypeString},
		"components":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"connections":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"labels":           {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"confidence":       {Type: genai.TypeNumber},
	},
	Required: []string{"type", "semantic_summary", "confidence"},
}

// ClassifyDiagram analyzes one diagram page image. It returns the
// unknown/failed shape instead of an error so a bad page never aborts the
// ingest stage.
func (gc *GeminiClient) ClassifyDiagram(ctx context.Context, imageFormat string, imageData []byte) *DiagramAnalysis {
	prompt := `Analyze this patent diagram image.
1. Classify the type: flowchart, block_diagram, mechanical, architecture or unknown.
2. Provide a semantic_summary of what the diagram represents (e.g. "Software update workflow").
3. For flowcharts/block diagrams: list components and connections.
4. For mechanical diagrams: list labels.
5. Provide a confidence between 0 and 1.`

	var analysis DiagramAnalysis
	err := gc.generateJSON(ctx, gc.visionModel, "gemini.diagram_classify", diagramSchema, &analysis,
		genai.Text(prompt), genai.ImageData(imageFormat, imageData))
	if err != nil {
		logger.Warn("diagram classification failed", "error", err)
		return &DiagramAnalysis{
			Type:            "unknown",
			SemanticSummary: "",
			Confidence:      0,
		}
	}
	return &analysis
}
