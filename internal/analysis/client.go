package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

var (
	ErrNotConfigured = errors.New("analysis service not configured")
	ErrEmptyRequest  = errors.New("analysis request needs an image or a description")
)

// Request asks for an estimate of a meal or a body photo.
type Request struct {
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Image       []byte `json:"-"`
	ContentType string `json:"-"`
}

type Item struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams,omitempty"`
	Calories float64 `json:"calories,omitempty"`
}

// Estimate is the structured answer of the analysis service.
type Estimate struct {
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Carbs         float64 `json:"carbs"`
	Fat           float64 `json:"fat"`
	Items         []Item  `json:"items,omitempty"`
	BodyFatPct    float64 `json:"bodyFatPct,omitempty"`
	MuscleMassPct float64 `json:"muscleMassPct,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	Notes         string  `json:"notes,omitempty"`
}

type wireRequest struct {
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Client calls the external analysis endpoint once per request. Callers
// decide whether to retry.
type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewClient(endpoint string, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
		client:   &http.Client{Timeout: timeout},
	}
}

func (client *Client) Configured() bool {
	return client != nil && client.endpoint != ""
}

func (client *Client) Analyze(ctx context.Context, request Request) (Estimate, error) {
	if !client.Configured() {
		return Estimate{}, ErrNotConfigured
	}
	if len(request.Image) == 0 && strings.TrimSpace(request.Description) == "" {
		return Estimate{}, ErrEmptyRequest
	}

	payload := wireRequest{
		Kind:        request.Kind,
		Description: strings.TrimSpace(request.Description),
	}
	if len(request.Image) > 0 {
		contentType := request.ContentType
		if contentType == "" {
			contentType = http.DetectContentType(request.Image)
		}
		payload.Image = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(request.Image)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Estimate{}, fmt.Errorf("encode analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.endpoint, bytes.NewReader(body))
	if err != nil {
		return Estimate{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+client.apiKey)
	}

	resp, err := client.client.Do(req)
	if err != nil {
		return Estimate{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Estimate{}, fmt.Errorf("analysis status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	estimate := Estimate{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&estimate); err != nil {
		return Estimate{}, fmt.Errorf("decode analysis response: %w", err)
	}
	return estimate, nil
}
