package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/scrypster/rolodex/pkg/types"
)

// ErrMalformedResponse is returned when the model output is not a usable
// intent object.
var ErrMalformedResponse = errors.New("malformed llm response")

// IntentResponse is the JSON object the intent prompt asks for.
type IntentResponse struct {
	Intent        string            `json:"intent"`
	TargetContact string            `json:"target_contact"`
	Entities      map[string]string `json:"-"`
	QueryField    string            `json:"query_field"`
	ActionRequest string            `json:"action_request"`
	Confidence    float64           `json:"confidence"`
}

// rawIntentResponse accepts entity values of any JSON type; models are not
// consistent about quoting phone numbers or emitting null.
type rawIntentResponse struct {
	Intent        string                 `json:"intent"`
	TargetContact *string                `json:"target_contact"`
	Entities      map[string]interface{} `json:"entities"`
	QueryField    *string                `json:"query_field"`
	ActionRequest *string                `json:"action_request"`
	Confidence    interface{}            `json:"confidence"`
}

// extractJSON extracts the first complete JSON object from a string that may
// contain extra text. Models add explanations or code fences around the JSON
// despite instructions.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escape {
			escape = false
			continue
		}
		if ch == '\\' {
			escape = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch ch {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}

// ParseIntentResponse parses the model output for the intent prompt. It
// returns ErrMalformedResponse when no JSON object can be decoded or when the
// intent label is not one of the known intents.
func ParseIntentResponse(text string) (*IntentResponse, error) {
	clean := extractJSON(text)

	var raw rawIntentResponse
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if _, ok := types.ParseIntent(raw.Intent); !ok || strings.TrimSpace(raw.Intent) == "" {
		return nil, fmt.Errorf("%w: unknown intent %q", ErrMalformedResponse, raw.Intent)
	}

	resp := &IntentResponse{
		Intent:        raw.Intent,
		TargetContact: deref(raw.TargetContact),
		QueryField:    deref(raw.QueryField),
		ActionRequest: deref(raw.ActionRequest),
		Confidence:    clampConfidence(toFloat(raw.Confidence)),
		Entities:      make(map[string]string, len(raw.Entities)),
	}
	for k, v := range raw.Entities {
		if s := stringify(v); s != "" {
			resp.Entities[k] = s
		}
	}
	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	if strings.EqualFold(v, "null") || strings.EqualFold(v, "none") {
		return ""
	}
	return v
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.EqualFold(s, "null") || strings.EqualFold(s, "none") || strings.EqualFold(s, "n/a") {
			return ""
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return ""
	default:
		return ""
	}
}

func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
