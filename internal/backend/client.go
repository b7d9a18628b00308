package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"popchat/internal/answer"
)

// Answer is a backend response reduced to the fields the chat pipeline
// consumes.
type Answer struct {
	Text    string
	Sources []answer.Source
}

// Client calls the upstream answer backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type queryRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

// Query sends a chat query upstream and extracts the answer text.
// Backends disagree on the field carrying the answer, so the first
// non-empty of answer, output, response and text wins.
func (c *Client) Query(ctx context.Context, sessionID, query string) (*Answer, error) {
	body, err := json.Marshal(queryRequest{SessionID: sessionID, Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("query backend: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("query backend: status %d: %s", resp.StatusCode, string(respBody))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read backend response: %w", err)
	}
	ans := parseAnswer(raw)
	if ans.Text == "" {
		return nil, fmt.Errorf("query backend: empty answer")
	}
	return ans, nil
}

func parseAnswer(raw []byte) *Answer {
	body := string(raw)
	if !gjson.Valid(body) {
		// Some backends return the answer as a bare string.
		return &Answer{Text: body}
	}

	ans := &Answer{}
	for _, field := range []string{"answer", "output", "response", "text"} {
		if v := gjson.Get(body, field); v.Type == gjson.String && v.String() != "" {
			ans.Text = v.String()
			break
		}
	}
	if ans.Text == "" {
		// n8n webhook responses wrap the payload in a single-element array.
		if first := gjson.Get(body, "0"); first.IsObject() {
			return parseAnswer([]byte(first.Raw))
		}
	}

	gjson.Get(body, "sources").ForEach(func(_, src gjson.Result) bool {
		s := answer.Source{
			Title:   src.Get("title").String(),
			URL:     src.Get("url").String(),
			Snippet: src.Get("snippet").String(),
		}
		if meta := src.Get("metadata"); meta.IsObject() {
			s.Metadata = make(map[string]string)
			meta.ForEach(func(k, v gjson.Result) bool {
				s.Metadata[k.String()] = v.String()
				return true
			})
		}
		ans.Sources = append(ans.Sources, s)
		return true
	})
	ans.Sources = answer.CleanSources(ans.Sources)
	return ans
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
