// Package ai forwards inventory summaries and chat messages to an external
// text-generation service. The service is a black box: prompt in, string out.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pharmapos/m/domain"
)

const systemInstruction = "You are a helpful, knowledgeable AI Pharmacist Assistant. " +
	"You help with drug interactions, side effects, and inventory management advice. " +
	"Always include a disclaimer that you are an AI and not a substitute for professional " +
	"medical advice when discussing treatments."

// MissingKeyMessage is returned instead of calling out when no API key is set.
const MissingKeyMessage = "API Key is missing. Cannot perform AI analysis."

// ChatMessage is one turn of assistant history.
type ChatMessage struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// Client talks to the Gemini generateContent REST endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

// New constructs a Client. baseURL is the API root without a trailing slash.
func New(apiKey, model, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// AnalyzeInventory builds the inventory-health prompt and returns the
// service's report. With no API key configured it returns MissingKeyMessage
// without calling out.
func (c *Client) AnalyzeInventory(ctx context.Context, items []domain.InventoryItem) (string, error) {
	if c.apiKey == "" {
		return MissingKeyMessage, nil
	}
	return c.generate(ctx, "", []content{{Role: "user", Parts: []part{{Text: analysisPrompt(items)}}}})
}

// Chat continues an assistant conversation with the pharmacist system
// instruction and the prior history.
func (c *Client) Chat(ctx context.Context, history []ChatMessage, message string) (string, error) {
	if c.apiKey == "" {
		return MissingKeyMessage, nil
	}
	contents := make([]content, 0, len(history)+1)
	for _, h := range history {
		contents = append(contents, content{Role: h.Role, Parts: []part{{Text: h.Text}}})
	}
	contents = append(contents, content{Role: "user", Parts: []part{{Text: message}}})
	return c.generate(ctx, systemInstruction, contents)
}

func analysisPrompt(items []domain.InventoryItem) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s (Generic: %s): Qty %d %s, Min %d, Exp %s",
			item.Name, item.GenericName, item.Quantity, item.Unit, item.MinStockLevel, item.ExpiryDate))
	}

	var b strings.Builder
	b.WriteString("You are an expert pharmacy inventory manager. Analyze the following inventory list.\n\n")
	b.WriteString("Inventory List:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nPlease provide a concise report in Markdown format covering:\n")
	b.WriteString("1. **Critical Stock Alerts**: Items below minimum stock level.\n")
	b.WriteString("2. **Expiration Risks**: Items expired or expiring within the next 3 months.\n")
	b.WriteString("3. **Restock Recommendations**: What should be ordered immediately.\n")
	b.WriteString("4. **General Health**: A one-sentence summary of the inventory status.\n\n")
	b.WriteString("Keep it professional and actionable.")
	return b.String()
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content  `json:"system_instruction,omitempty"`
	Contents          []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, system string, contents []content) (string, error) {
	payload := generateRequest{Contents: contents}
	if system != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call text-generation service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text-generation service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode generate response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("text-generation service returned no candidates")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
