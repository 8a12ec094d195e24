package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// AnswerGateway sends one question to the answer service
type AnswerGateway interface {
	Ask(ctx context.Context, req AnswerRequest) (*AnswerResponse, error)
}

// DocFilter is an optional retrieval filter that distinguishes "not sent"
// from an explicit JSON null.
type DocFilter struct {
	set   bool
	value *string
}

// DocFilterValue filters retrieval to value
func DocFilterValue(value string) DocFilter {
	return DocFilter{set: true, value: &value}
}

// DocFilterNull sends an explicit null filter
func DocFilterNull() DocFilter {
	return DocFilter{set: true}
}

// ParseDocFilter maps "" to unset, "null" to an explicit null and anything
// else to a filter value
func ParseDocFilter(s string) DocFilter {
	switch strings.TrimSpace(s) {
	case "":
		return DocFilter{}
	case "null":
		return DocFilterNull()
	default:
		return DocFilterValue(strings.TrimSpace(s))
	}
}

// IsSet reports whether the filter is sent at all
func (f DocFilter) IsSet() bool {
	return f.set
}

func (f DocFilter) jsonValue() interface{} {
	if f.value == nil {
		return nil
	}
	return *f.value
}

// AnswerRequest is the input to one answer service call
type AnswerRequest struct {
	SessionID     string
	ThreadID      string
	Query         string
	SpoilerLevel  SpoilerLevel
	MatchCount    *int
	DocFilter     DocFilter
	DeveloperMode *bool
}

// Body returns the JSON body in the service's field names. thread_id is only
// included when it is a well-formed id.
func (r AnswerRequest) Body() map[string]interface{} {
	body := map[string]interface{}{
		"query":        r.Query,
		"session_id":   r.SessionID,
		"spoilerLevel": int(r.SpoilerLevel),
	}
	if IsValidID(r.ThreadID) {
		body["thread_id"] = r.ThreadID
	}
	if r.MatchCount != nil {
		body["match_count"] = *r.MatchCount
	}
	if r.DocFilter.IsSet() {
		body["doc_filter"] = r.DocFilter.jsonValue()
	}
	if r.DeveloperMode != nil {
		body["developer_mode"] = *r.DeveloperMode
	}
	return body
}

// HTTPGateway posts questions to a single answer service endpoint. It never
// retries and sets no timeout of its own.
type HTTPGateway struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPGateway creates a gateway for endpoint. apiKey may be empty.
func NewHTTPGateway(endpoint, apiKey string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPGateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   client,
	}
}

// Endpoint returns the configured service URL
func (g *HTTPGateway) Endpoint() string {
	return g.endpoint
}

// Ask sends req and returns the validated reply. Every failure is a *GatewayError.
func (g *HTTPGateway) Ask(ctx context.Context, req AnswerRequest) (*AnswerResponse, error) {
	payload, err := json.Marshal(req.Body())
	if err != nil {
		return nil, transportError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, transportError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
		httpReq.Header.Set("apikey", g.apiKey)
	}

	LogDebug("Sending question to %s (spoiler=%d, thread=%t)", g.endpoint, req.SpoilerLevel, IsValidID(req.ThreadID))
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpStatusError(resp, body)
	}

	return NormalizeAnswerPayload(body)
}

// transportError normalizes a failure to reach the service. With no status to
// promote, the error itself becomes the body.
func transportError(err error) *GatewayError {
	name := "Error"
	message := err.Error()

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		name = "FetchError"
		message = urlErr.Err.Error()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		name = "AbortError"
	}

	return &GatewayError{
		Kind:    KindTransport,
		Name:    name,
		Message: message,
		Body:    err,
		Err:     err,
	}
}

// httpStatusError promotes the status and the reply body of a non-2xx answer
func httpStatusError(resp *http.Response, body []byte) *GatewayError {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		decoded = string(body)
	}

	return &GatewayError{
		Kind:       KindTransport,
		Name:       "HttpError",
		Message:    fmt.Sprintf("Answer service returned a non-2xx status code (%d)", resp.StatusCode),
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Body:       decoded,
	}
}

// Probe checks that the service answers HTTP at all. Any status counts as
// reachable; only transport failures are errors.
func (g *HTTPGateway) Probe(ctx context.Context) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodOptions, g.endpoint, nil)
	if err != nil {
		return 0, transportError(err)
	}
	httpReq.Header.Set("Access-Control-Request-Method", http.MethodPost)
	if g.apiKey != "" {
		httpReq.Header.Set("apikey", g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return 0, transportError(err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
