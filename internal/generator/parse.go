package generator

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/constituent-twin/internal/model"
)

// ErrSchema marks an LLM response that is not a valid persona array.
var ErrSchema = eris.New("generator: response violates persona schema")

// extractArray returns the text between the first '[' and the last ']'.
// Models often wrap the array in prose or code fences.
func extractArray(text string) (string, error) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end <= start {
		return "", eris.Wrap(ErrSchema, "no JSON array in response")
	}
	return text[start : end+1], nil
}

// parsePersonas decodes and validates an LLM response. It requires at least
// count valid elements and drops any beyond count.
func parsePersonas(text string, count int) ([]model.Persona, error) {
	raw, err := extractArray(text)
	if err != nil {
		return nil, err
	}

	var wire []wirePersona
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, eris.Wrapf(ErrSchema, "decode: %v", err)
	}
	if len(wire) < count {
		return nil, eris.Wrapf(ErrSchema, "got %d personas, want %d", len(wire), count)
	}
	wire = wire[:count]

	out := make([]model.Persona, len(wire))
	for i, w := range wire {
		if err := validate.Struct(w); err != nil {
			return nil, eris.Wrapf(ErrSchema, "persona %d: %v", i+1, err)
		}
		out[i] = w.toModel()
	}
	return out, nil
}
