package classify

import (
	"encoding/json"
	"strings"
)

// probe looks for the answer text at one known location of a provider
// envelope.
type probe func(resp any) (string, bool)

// answerProbes is ordered: the first probe yielding a non-empty string wins.
var answerProbes = []probe{
	field("output_text"),
	field("response"),
	field("text"),
	choiceMessageContent,
	choiceText,
	field("result"),
}

func field(name string) probe {
	return func(resp any) (string, bool) {
		m, ok := resp.(map[string]any)
		if !ok {
			return "", false
		}
		return nonEmpty(m[name])
	}
}

func firstChoice(resp any) (map[string]any, bool) {
	m, ok := resp.(map[string]any)
	if !ok {
		return nil, false
	}
	choices, ok := m["choices"].([]any)
	if !ok || len(choices) == 0 {
		return nil, false
	}
	choice, ok := choices[0].(map[string]any)
	return choice, ok
}

func choiceMessageContent(resp any) (string, bool) {
	choice, ok := firstChoice(resp)
	if !ok {
		return "", false
	}
	msg, ok := choice["message"].(map[string]any)
	if !ok {
		return "", false
	}
	return nonEmpty(msg["content"])
}

func choiceText(resp any) (string, bool) {
	choice, ok := firstChoice(resp)
	if !ok {
		return "", false
	}
	return nonEmpty(choice["text"])
}

func nonEmpty(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// ExtractText locates the model's answer text in a provider response of
// unknown shape. When no probe matches, a string response is used as is and
// anything else is serialised back to JSON.
func ExtractText(resp any) string {
	for _, p := range answerProbes {
		if s, ok := p(resp); ok {
			return s
		}
	}
	if s, ok := resp.(string); ok {
		return s
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return ""
	}
	return string(data)
}

// ExtractJSON returns the substring between the first '{' and the last '}'
// of text, inclusive and trimmed. It returns "" when text holds no such
// pair; the empty string then fails to parse in the validator.
func ExtractJSON(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
