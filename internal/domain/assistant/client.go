package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client answers a clinician's free-text question given a patient context
// block. Implementations must respond in the requested language.
type Client interface {
	Ask(ctx context.Context, message, patientContext, language string) (string, error)
}

// Gemini generateContent wire format.

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GeminiClient talks to the generateContent endpoint.
type GeminiClient struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

func NewGeminiClient(baseURL, model, apiKey string) *GeminiClient {
	return &GeminiClient{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *GeminiClient) Ask(ctx context.Context, message, patientContext, language string) (string, error) {
	prompt := buildPrompt(message, patientContext, language)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("assistant returned %d: %s", resp.StatusCode, b)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("assistant returned no candidates")
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func buildPrompt(message, patientContext, language string) string {
	langName := "English"
	if language == "es" {
		langName = "Spanish"
	}
	return fmt.Sprintf(`You are a clinical decision-support assistant on a NICU dashboard.
Answer in %s. Be concise and cite the patient data you relied on.
You advise; the clinician decides. Never present your output as an order.

If, and only if, the clinician would benefit from a structured treatment plan,
append one wrapped exactly in %s and %s markers, as JSON. All titles, notes,
and details are objects with both an English and a Spanish rendering:
{"category": "...", "title": {"en": "...", "es": "..."}, "note": {"en": "...", "es": "..."},
 "actions": [{"title": {"en": "...", "es": "..."}, "detail": {"en": "...", "es": "..."}}]}
Valid categories: transfusion, sepsis, nec, respiratory, feeding, jaundice, hemolysis, general.

Patient context:
%s

Clinician question:
%s`, langName, planMarkerOpen, planMarkerClose, patientContext, message)
}
