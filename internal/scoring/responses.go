package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Responses is a list of response items with a JSON and YAML wire form of
// {"questionId": "...", "value": ...}. Numbers and booleans decode to
// NumericResponse (true=1, false=0); strings and null decode to TextResponse.
type Responses []Response

type responseWire struct {
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (rs *Responses) UnmarshalJSON(data []byte) error {
	var items []responseWire
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Responses, 0, len(items))
	for i, item := range items {
		r, err := decodeJSONValue(item.QuestionID, item.Value)
		if err != nil {
			return fmt.Errorf("responses[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	*rs = out
	return nil
}

func decodeJSONValue(questionID string, raw json.RawMessage) (Response, error) {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		return TextResponse{QuestionID: questionID}, nil
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return TextResponse{QuestionID: questionID, Text: s}, nil
	case bytes.Equal(trimmed, []byte("true")):
		return NumericResponse{QuestionID: questionID, Value: 1}, nil
	case bytes.Equal(trimmed, []byte("false")):
		return NumericResponse{QuestionID: questionID, Value: 0}, nil
	default:
		var f float64
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("value for %q must be a number, boolean or string", questionID)
		}
		return NumericResponse{QuestionID: questionID, Value: f}, nil
	}
}

// MarshalJSON implements json.Marshaler.
func (rs Responses) MarshalJSON() ([]byte, error) {
	items := make([]map[string]any, 0, len(rs))
	for _, r := range rs {
		switch v := r.(type) {
		case NumericResponse:
			items = append(items, map[string]any{"questionId": v.QuestionID, "value": v.Value})
		case TextResponse:
			items = append(items, map[string]any{"questionId": v.QuestionID, "value": v.Text})
		}
	}
	return json.Marshal(items)
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (rs *Responses) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: responses must be a list", node.Line)
	}
	out := make(Responses, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: response must be a mapping", item.Line)
		}
		var questionID string
		var value *yaml.Node
		for i := 0; i+1 < len(item.Content); i += 2 {
			switch item.Content[i].Value {
			case "questionId":
				questionID = item.Content[i+1].Value
			case "value":
				value = item.Content[i+1]
			}
		}
		r, err := decodeYAMLValue(questionID, value)
		if err != nil {
			return fmt.Errorf("line %d: %w", item.Line, err)
		}
		out = append(out, r)
	}
	*rs = out
	return nil
}

func decodeYAMLValue(questionID string, value *yaml.Node) (Response, error) {
	if value == nil || value.Tag == "!!null" {
		return TextResponse{QuestionID: questionID}, nil
	}
	switch value.Tag {
	case "!!int", "!!float":
		var f float64
		if err := value.Decode(&f); err != nil {
			return nil, fmt.Errorf("value for %q: %w", questionID, err)
		}
		return NumericResponse{QuestionID: questionID, Value: f}, nil
	case "!!bool":
		var b bool
		if err := value.Decode(&b); err != nil {
			return nil, err
		}
		if b {
			return NumericResponse{QuestionID: questionID, Value: 1}, nil
		}
		return NumericResponse{QuestionID: questionID, Value: 0}, nil
	default:
		return TextResponse{QuestionID: questionID, Text: value.Value}, nil
	}
}
