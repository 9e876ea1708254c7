package engine

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/Konsultn-Engineering/relsql/query"
	"github.com/Konsultn-Engineering/relsql/schema"
)

// Row is a decoded result row. Joined selects nest each table's fields
// under the table name; relational rows nest loaded relations under their
// keys.
type Row map[string]any

// MapResultRow decodes a positional row against the flat selection it was
// compiled from. A group of columns from one nullable joined table whose
// values are all null becomes nil instead of an object of nulls.
func MapResultRow(fields []query.SelectedField, values []any, nullability query.NullabilityMap) (Row, error) {
	if len(values) != len(fields) {
		return nil, fmt.Errorf("engine: row has %d columns, selection has %d", len(values), len(fields))
	}

	type group struct {
		table   string
		allNull bool
		mixed   bool
	}
	groups := make(map[string]*group)
	result := Row{}

	for i, f := range fields {
		node := result
		for _, chunk := range f.Path[:len(f.Path)-1] {
			next, ok := node[chunk].(Row)
			if !ok {
				next = Row{}
				node[chunk] = next
			}
			node = next
		}

		raw := values[i]
		var value any
		if raw != nil {
			decoded, err := f.Decoder().FromDriver(raw)
			if err != nil {
				return nil, fmt.Errorf("engine: decode %v: %w", f.Path, err)
			}
			value = decoded
		}
		node[f.Key()] = value

		col, isColumn := f.Field.(*schema.Column)
		if nullability == nil || !isColumn || len(f.Path) != 2 {
			continue
		}
		g, seen := groups[f.Path[0]]
		if !seen {
			g = &group{table: col.TableName(), allNull: true}
			groups[f.Path[0]] = g
		}
		if value != nil {
			g.allNull = false
		}
		if g.table != col.TableName() {
			g.mixed = true
		}
	}

	for key, g := range groups {
		if g.allNull && !g.mixed && nullability.IsNullable(g.table) {
			result[key] = nil
		}
	}
	return result, nil
}

// MapRelationalRow decodes a relational row. JSON entries may arrive as
// text or already decoded; a One relation decodes to a Row or nil, a Many
// relation to a slice of rows.
func MapRelationalRow(selection []query.SelectionEntry, values []any) (Row, error) {
	if len(values) != len(selection) {
		return nil, fmt.Errorf("engine: row has %d values, selection has %d", len(values), len(selection))
	}
	result := make(Row, len(selection))
	for i, entry := range selection {
		raw := values[i]
		if !entry.IsJSON {
			if raw == nil {
				result[entry.Key] = nil
				continue
			}
			decoded, err := entry.Decoder().FromDriver(raw)
			if err != nil {
				return nil, fmt.Errorf("engine: decode %q: %w", entry.Key, err)
			}
			result[entry.Key] = decoded
			continue
		}

		payload, err := parseJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("engine: relation %q: %w", entry.Key, err)
		}
		nested, err := mapRelation(entry, payload)
		if err != nil {
			return nil, err
		}
		result[entry.Key] = nested
	}
	return result, nil
}

func mapRelation(entry query.SelectionEntry, payload any) (any, error) {
	many := entry.Relation != nil && entry.Relation.Cardinality == schema.Many
	if payload == nil {
		if many {
			return []Row{}, nil
		}
		return nil, nil
	}

	if !many {
		tuple, ok := payload.([]any)
		if !ok {
			return nil, fmt.Errorf("engine: relation %q: expected array, got %T", entry.Key, payload)
		}
		return MapRelationalRow(entry.Selection, tuple)
	}

	items, ok := payload.([]any)
	if !ok {
		return nil, fmt.Errorf("engine: relation %q: expected array, got %T", entry.Key, payload)
	}
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		sub, err := parseJSON(item)
		if err != nil {
			return nil, err
		}
		tuple, ok := sub.([]any)
		if !ok {
			return nil, fmt.Errorf("engine: relation %q: expected array, got %T", entry.Key, sub)
		}
		row, err := MapRelationalRow(entry.Selection, tuple)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// parseJSON decodes text payloads and passes decoded values through.
// Numbers decode as json.Number so 64-bit integers survive.
func parseJSON(v any) (any, error) {
	var raw []byte
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(val)
	case []byte:
		raw = val
	default:
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return out, nil
}
