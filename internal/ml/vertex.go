package ml

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"google.golang.org/api/option"
)

const narratorInstruction = "You are a warm children's storyteller."

const narratorPrompt = `A parent replied to their child (%s) after reviewing the day's care log.
Parent's message: "%s"
Care log summary: %s
Write a short, warm diary entry in the first person from the child's point of view. Keep it under 300 characters.`

const stoolPrompt = `Analyze this photo of an infant's stool. Respond with a JSON object with exactly one of "error" or "success" populated.
{
	"error": {"error_reason": "string"},
	"success": {
		"color": "string",
		"firmness": "string",
		"status": "normal | caution | warning",
		"status_label": "short human-readable label",
		"advice": "one or two sentences for the parent"
	}
}`

// Vertex is the Vertex AI Gemini provider.
type Vertex struct {
	client *genai.Client
	text   *genai.GenerativeModel
	vision *genai.GenerativeModel
}

// NewVertex connects to Vertex AI.
func NewVertex(ctx context.Context, cfg Config) (*Vertex, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Location, opts...)
	if err != nil {
		return nil, fmt.Errorf("ml: create vertex client: %w", err)
	}

	text := client.GenerativeModel(cfg.TextModel)
	text.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(narratorInstruction)}}

	vision := client.GenerativeModel(cfg.VisionModel)
	vision.ResponseMIMEType = "application/json"

	return &Vertex{client: client, text: text, vision: vision}, nil
}

// Narrate implements Narrator.
func (v *Vertex) Narrate(ctx context.Context, req NarrativeRequest) (string, error) {
	prompt := fmt.Sprintf(narratorPrompt, req.ChildName, req.Text, req.Summary)
	resp, err := v.text.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("ml: narrate: %w", err)
	}
	out, err := firstText(resp)
	if err != nil {
		return "", fmt.Errorf("ml: narrate: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// AnalyzeStool implements StoolAnalyzer.
func (v *Vertex) AnalyzeStool(ctx context.Context, image []byte, mimeType string) (StoolAnalysis, error) {
	img := genai.ImageData(strings.TrimPrefix(mimeType, "image/"), image)
	resp, err := v.vision.GenerateContent(ctx, genai.Text(stoolPrompt), img)
	if err != nil {
		return StoolAnalysis{}, fmt.Errorf("ml: analyze stool: %w", err)
	}
	out, err := firstText(resp)
	if err != nil {
		return StoolAnalysis{}, fmt.Errorf("ml: analyze stool: %w", err)
	}
	return parseStoolResponse(out)
}

// Close releases the client.
func (v *Vertex) Close() error {
	return v.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}
	c := resp.Candidates[0]
	if c.Content == nil || len(c.Content.Parts) == 0 {
		return "", errors.New("no content in response")
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("response has no text")
	}
	return b.String(), nil
}

// stripFences removes a Markdown code fence the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parseStoolResponse(raw string) (StoolAnalysis, error) {
	var out struct {
		Error *struct {
			Reason string `json:"error_reason"`
		} `json:"error"`
		Success *StoolAnalysis `json:"success"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return StoolAnalysis{}, fmt.Errorf("ml: parse model response: %w", err)
	}
	if out.Error != nil && out.Error.Reason != "" {
		return StoolAnalysis{}, fmt.Errorf("ml: model rejected image: %s", out.Error.Reason)
	}
	if out.Success == nil || out.Success.Color == "" || out.Success.StatusLabel == "" {
		return StoolAnalysis{}, errors.New("ml: incomplete analysis in model response")
	}
	return *out.Success, nil
}

var _ Model = (*Vertex)(nil)
