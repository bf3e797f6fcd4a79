package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"
)

// Client labels text through the model's HTTP endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a labeling client for the model served at url.
func NewClient(url string) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type labelRequest struct {
	Text string `json:"text"`
}

type labelResponse struct {
	Labels []int32 `json:"labels"`
}

// Label sends the text to the model and returns its per-character labels.
func (c *Client) Label(ctx context.Context, text string) ([]Label, error) {
	body, err := json.Marshal(labelRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encoding label request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating label request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("labeling request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("labeling request: unexpected status %d", resp.StatusCode)
	}

	var decoded labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding label response: %w", err)
	}
	if got, want := len(decoded.Labels), utf8.RuneCountInString(text); got != want {
		return nil, fmt.Errorf("labeling request: got %d labels for %d characters", got, want)
	}

	labels := make([]Label, len(decoded.Labels))
	for i, l := range decoded.Labels {
		labels[i] = Label(l)
	}
	return labels, nil
}
