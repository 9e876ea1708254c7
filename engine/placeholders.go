package engine

import (
	"fmt"

	"github.com/Konsultn-Engineering/relsql/ast"
)

// FillPlaceholders returns params with every named placeholder replaced by
// its value from values, encoded with the placeholder's encoder.
func FillPlaceholders(params []any, values map[string]any) ([]any, error) {
	out := make([]any, len(params))
	for i, p := range params {
		param, ok := p.(ast.Param)
		if !ok {
			out[i] = p
			continue
		}
		ph, ok := param.Value.(ast.Placeholder)
		if !ok {
			out[i] = param.Value
			continue
		}
		v, ok := values[ph.Name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingValue, ph.Name)
		}
		if param.Encoder != nil {
			encoded, err := param.Encoder.ToDriver(v)
			if err != nil {
				return nil, fmt.Errorf("engine: encode placeholder %q: %w", ph.Name, err)
			}
			v = encoded
		}
		out[i] = v
	}
	return out, nil
}
