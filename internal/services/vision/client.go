// Package vision wraps the Gemini generateContent endpoint behind a single
// call: image bytes in, structured location guess out.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/chloe472/Reely/internal/domain/enums"
	"github.com/chloe472/Reely/internal/infra/httpclient"
)

const (
	noCoordinatesMessage = "Unable to determine geographical coordinates from the image"
	lowConfidenceMessage = "Location detected but with low confidence. Results may be inaccurate."
	apiFailureMessage    = "Failed to analyze image with Gemini API"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	http   *resty.Client
	model  string
	apiKey string
	logger *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	httpClient := resty.NewWithClient(httpclient.New(cfg.Timeout)).
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:   httpClient,
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		logger: log,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// modelAnswer mirrors the JSON shape the prompt demands from the model.
type modelAnswer struct {
	LocationName     string   `json:"location_name"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	Confidence       string   `json:"confidence"`
	ConfidenceReason string   `json:"confidence_reason"`
	AdditionalInfo   string   `json:"additional_info"`
}

// Analyze sends one image to the vision model and post-validates the answer.
// It never returns an error: failures come back tagged ErrorTypeAPIFailure.
func (c *Client) Analyze(ctx context.Context, image []byte, mimeType string) Result {
	if len(image) == 0 {
		return c.failure(fmt.Errorf("empty image"))
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/jpeg"
	}

	req := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{Text: locationPrompt},
				{InlineData: &inlineData{MimeType: mimeType, Data: image}},
			},
		}},
	}

	var resp generateResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("key", c.apiKey).
		SetBody(req).
		SetResult(&resp).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.model))
	if err != nil {
		return c.failure(fmt.Errorf("call vision api: %w", err))
	}
	if httpResp.IsError() {
		if resp.Error != nil {
			return c.failure(fmt.Errorf("vision api status %d: %s", httpResp.StatusCode(), resp.Error.Message))
		}
		return c.failure(fmt.Errorf("vision api status %d", httpResp.StatusCode()))
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return c.failure(fmt.Errorf("vision api returned no candidates"))
	}

	return c.parseAnswer(text)
}

func responseText(resp generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// unwrapJSON strips a fenced code block if present, else falls back to the
// first top-level {...} span. Models wrap answers in markdown despite the
// prompt forbidding it.
func unwrapJSON(text string) (string, bool) {
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1], true
	}
	return "", false
}

func (c *Client) parseAnswer(text string) Result {
	jsonStr, ok := unwrapJSON(text)
	if !ok {
		return c.failure(fmt.Errorf("no JSON object in model response"))
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(jsonStr), &answer); err != nil {
		return c.failure(fmt.Errorf("parse model response: %w", err))
	}

	result := Result{
		LocationName:     answer.LocationName,
		Latitude:         answer.Latitude,
		Longitude:        answer.Longitude,
		Address:          answer.Address,
		City:             answer.City,
		Country:          answer.Country,
		Description:      answer.Description,
		Category:         answer.Category,
		Confidence:       enums.Confidence(strings.ToLower(answer.Confidence)),
		ConfidenceReason: answer.ConfidenceReason,
		AdditionalInfo:   answer.AdditionalInfo,
		Raw:              json.RawMessage(jsonStr),
	}

	missing := answer.Latitude == nil || answer.Longitude == nil
	nullIsland := !missing && *answer.Latitude == 0 && *answer.Longitude == 0
	if missing || nullIsland {
		result.Latitude = nil
		result.Longitude = nil
		result.ErrorType = enums.ErrorTypeNoCoordinates
		result.ErrorMessage = noCoordinatesMessage
		result.Confidence = enums.ConfidenceLow
		return result
	}

	if result.Confidence == enums.ConfidenceLow {
		result.ErrorType = enums.ErrorTypeLowConfidence
		result.ErrorMessage = lowConfidenceMessage
	}

	return result
}

func (c *Client) failure(err error) Result {
	c.logger.Warn("vision analysis failed", zap.Error(err))
	return Result{
		LocationName: "Unknown Location",
		Confidence:   enums.ConfidenceLow,
		ErrorType:    enums.ErrorTypeAPIFailure,
		ErrorMessage: fmt.Sprintf("%s: %v", apiFailureMessage, err),
	}
}
