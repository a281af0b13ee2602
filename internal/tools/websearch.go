package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultSearchEndpoint = "https://api.duckduckgo.com/"

// WebSearchTool implements web_search: a GET against SEARCH_API_ENDPOINT
// (default DuckDuckGo's Instant Answer API).
type WebSearchTool struct {
	Endpoint string
	Client   *http.Client
}

// NewWebSearchTool returns the web_search built-in. An empty endpoint
// falls back to DuckDuckGo.
func NewWebSearchTool(endpoint string) *WebSearchTool {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = defaultSearchEndpoint
	}
	return &WebSearchTool{Endpoint: endpoint, Client: &http.Client{Timeout: 20 * time.Second}}
}

func (t *WebSearchTool) Name() string        { return "web_search" }
func (t *WebSearchTool) Description() string { return "Search the web and return a short extracted answer plus related topics." }

func (t *WebSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string"}
		},
		"required": ["query"]
	}`)
}

// duckDuckGoResponse is the subset of DuckDuckGo's Instant Answer API
// this tool extracts.
type duckDuckGoResponse struct {
	AbstractText  string `json:"AbstractText"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		Text string `json:"Text"`
	} `json:"RelatedTopics"`
}

func (t *WebSearchTool) Invoke(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("decode arguments: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("query is required")
	}

	u, err := url.Parse(t.Endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid search endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", in.Query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("search endpoint returned %s", resp.Status)
	}

	var parsed duckDuckGoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}

	var b strings.Builder
	if parsed.AbstractText != "" {
		b.WriteString(parsed.AbstractText)
	} else if parsed.Heading != "" {
		b.WriteString(parsed.Heading)
	} else {
		b.WriteString("no abstract available")
	}
	for i, topic := range parsed.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		if i == 0 {
			b.WriteString("\n\nRelated:\n")
		}
		b.WriteString("- ")
		b.WriteString(topic.Text)
		b.WriteString("\n")
		if i >= 4 {
			break
		}
	}
	return strings.TrimSpace(b.String()), nil
}
