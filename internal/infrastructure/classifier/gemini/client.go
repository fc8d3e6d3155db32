// Package gemini is the remote classification strategy: a structured-output
// call against the Gemini generateContent endpoint. The response schema pins
// type and urgency to the closed enums, so a well-formed reply can never
// introduce a value outside the domain.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/expedium/mesa-partes/internal/core/domain"
	"github.com/expedium/mesa-partes/internal/infrastructure/resilience"
)

const maxSnippetChars = 3000

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	guard      *resilience.Guard
}

func New(baseURL, apiKey, model string, guard *resilience.Guard) *Client {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		guard:      guard,
	}
}

func (c *Client) Classify(ctx context.Context, snippet, filename string) (domain.Analysis, error) {
	if len(snippet) > maxSnippetChars {
		snippet = snippet[:maxSnippetChars]
	}

	request := generateContentRequest{
		Contents: []content{{
			Parts: []part{{Text: buildClassificationPrompt(snippet, filename)}},
		}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   classificationSchema(),
		},
	}

	var response generateContentResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, c.generatePath(), request, &response)
	}

	var err error
	if c.guard != nil {
		err = c.guard.Do(ctx, "gemini.classify", call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.Analysis{}, err
	}

	raw := response.firstText()
	if raw == "" {
		return domain.Analysis{}, fmt.Errorf("gemini classify: empty candidate text")
	}

	var verdict struct {
		Type    string `json:"type"`
		Urgency string `json:"urgency"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &verdict); err != nil {
		return domain.Analysis{}, fmt.Errorf("parse classification json: %w", err)
	}

	return domain.Analysis{
		Type:    domain.ParseDocumentType(verdict.Type),
		Urgency: domain.ParseUrgency(verdict.Urgency),
		Summary: strings.TrimSpace(verdict.Summary),
	}, nil
}

func (c *Client) generatePath() string {
	return fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
}

// extractJSONObject tolerates stray prose around the JSON body.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
