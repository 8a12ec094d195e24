package internal

import (
	"encoding/json"
	"net/http"
	"strconv"
)

const responseErrorName = "ResponseError"

// NormalizeAnswerPayload validates a 2xx reply body. It returns the typed
// response, or a *GatewayError for a non-object payload or missing identity.
// A non-object payload keeps the reply text exactly as received.
func NormalizeAnswerPayload(body []byte) (*AnswerResponse, error) {
	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, payloadError(KindInvalidPayload, msgInvalidPayload, string(body), err)
	}

	raw, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, payloadError(KindInvalidPayload, msgInvalidPayload, string(body), nil)
	}

	sessionID, _ := raw["session_id"].(string)
	threadID, _ := raw["thread_id"].(string)
	if !IsValidID(sessionID) || !IsValidID(threadID) {
		return nil, payloadError(KindMissingIdentity, msgMissingIdentity, raw, nil)
	}

	resp := &AnswerResponse{
		SessionID:     sessionID,
		ThreadID:      threadID,
		Answer:        stringField(raw, "answer"),
		InteractionID: stringField(raw, "interaction_id"),
		Sources:       decodeSources(raw["sources"]),
		Raw:           raw,
	}
	resp.OK, _ = raw["ok"].(bool)
	if meta, ok := raw["meta"].(map[string]interface{}); ok {
		resp.Meta = meta
	}
	return resp, nil
}

func payloadError(kind ErrorKind, message string, body interface{}, cause error) *GatewayError {
	return &GatewayError{
		Kind:       kind,
		Name:       responseErrorName,
		Message:    message,
		Status:     http.StatusInternalServerError,
		StatusText: http.StatusText(http.StatusInternalServerError),
		Body:       body,
		Err:        cause,
	}
}

// stringField reads a string or number field as text
func stringField(raw map[string]interface{}, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// decodeSources keeps every entry that decodes as an object and skips the rest
func decodeSources(v interface{}) []SourceRecord {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	sources := make([]SourceRecord, 0, len(list))
	for _, item := range list {
		if _, isObject := item.(map[string]interface{}); !isObject {
			continue
		}
		data, err := json.Marshal(item)
		if err != nil {
			continue
		}
		var rec SourceRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		sources = append(sources, rec)
	}
	return sources
}
