// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/surgical-scout/pkg/types"
)

// abstractPromptTmpl is the light instruction used when only the abstract
// is available. It asks only for new techniques, new products/devices,
// and safety data, and filters generic reviews at the prompt level.
var abstractPromptTmpl = template.Must(template.New("abstract").Parse(`You are an expert plastic surgeon reviewing recent literature on {{.Procedure}}.

Review the abstract below and decide whether it reports:
- a NEW surgical technique or technical modification ("technique")
- a NEW product, device, or material ("product-device")
- important safety data or complication prevention strategies ("safety")

Skip generic reviews, basic science without clinical application, and papers with no new actionable insight. For each relevant finding, write a 2-3 sentence clinical pearl focused on what is NEW and ACTIONABLE for a plastic surgery resident.

Respond with a JSON object containing a "pearls" array. Each element has:
- "summary": the 2-3 sentence pearl
- "category": one of "technique", "product-device", "safety"

If nothing is actionable, respond with {"pearls": []}. Do not include any text outside the JSON object.

Title: {{.Title}}
Journal: {{.Journal}}, {{.Date}}
Abstract:
{{.Content}}
`))

// fullTextPromptTmpl is the rich instruction used when a resolver tier
// supplied the full article. It additionally asks for technique steps,
// novel-versus-standard-practice framing, and contraindications.
var fullTextPromptTmpl = template.Must(template.New("fulltext").Parse(`You are an expert plastic surgeon analyzing a full research article on {{.Procedure}}.

From the complete text below, extract every clinically actionable finding for a plastic surgery resident:
- new surgical techniques, with the concrete operative steps that changed ("technique")
- new products, devices, or materials, and how they are deployed ("product-device")
- safety findings: complications, contraindications, patient selection criteria ("safety")

For technique findings, state explicitly what differs from standard practice. Skip background, literature review, and basic science without clinical application. Each pearl is 2-3 sentences and must be specific enough to act on.

Respond with a JSON object containing a "pearls" array. Each element has:
- "summary": the 2-3 sentence pearl
- "category": one of "technique", "product-device", "safety"

If nothing is actionable, respond with {"pearls": []}. Do not include any text outside the JSON object.

Title: {{.Title}}
Journal: {{.Journal}}, {{.Date}}
Full text:
{{.Content}}
`))

// promptData feeds both templates.
type promptData struct {
	Procedure string
	Title     string
	Journal   string
	Date      string
	Content   string
}

const defaultMaxFullTextChars = 30000

// buildPrompt renders the provenance-appropriate template. Full text is
// truncated to keep the request inside model limits.
func buildPrompt(article types.Article, procedure string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = defaultMaxFullTextChars
	}

	data := promptData{
		Procedure: procedure,
		Title:     article.Title,
		Journal:   article.Journal,
		Date:      article.Date,
	}

	tmpl := abstractPromptTmpl
	if article.HasFullText() {
		tmpl = fullTextPromptTmpl
		data.Content = truncate(article.FullText, maxChars)
	} else {
		data.Content = article.Abstract
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncate(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	return s[:maxChars] + "\n\n[Content truncated]"
}

// aiResponse is the structured reply expected from the backend.
type aiResponse struct {
	Pearls []responsePearl `json:"pearls"`
}

// responsePearl is one item as returned by the backend, before validation.
type responsePearl struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// parseResponse decodes the model output. Models occasionally wrap JSON
// in a Markdown fence; strip it before decoding.
func parseResponse(raw string) (aiResponse, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var resp aiResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return aiResponse{}, fmt.Errorf("response is not valid JSON: %w", err)
	}
	return resp, nil
}
