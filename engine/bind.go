package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/Konsultn-Engineering/relsql/schema"
)

// fieldPlan maps row keys onto the fields of one struct type.
type fieldPlan struct {
	fields map[string][]int // row key -> field index path
}

var (
	planCache  sync.Map // reflect.Type -> *fieldPlan
	timeType   = reflect.TypeOf(time.Time{})
	rowType    = reflect.TypeOf(Row{})
	numberType = reflect.TypeOf(json.Number(""))
)

// ScanRow copies a decoded row into the struct dest points to. Row keys
// match the camelCased field names, or the key in a `key:"..."` tag.
// Nested rows fill struct or pointer fields; row slices fill slices.
func ScanRow(row Row, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("engine: scan: expected non-nil pointer, got %T", dest)
	}
	return assignRow(row, v.Elem())
}

// ScanRows copies decoded rows into the slice dest points to.
func ScanRows(rows []Row, dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("engine: scan: expected pointer to slice, got %T", dest)
	}
	return assignRows(rows, v.Elem())
}

func planFor(t reflect.Type) *fieldPlan {
	if cached, ok := planCache.Load(t); ok {
		return cached.(*fieldPlan)
	}
	p := &fieldPlan{fields: make(map[string][]int, t.NumField())}
	collectFields(t, nil, p)
	actual, _ := planCache.LoadOrStore(t, p)
	return actual.(*fieldPlan)
}

func collectFields(t reflect.Type, prefix []int, p *fieldPlan) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("key") == "" {
			collectFields(f.Type, index, p)
			continue
		}
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("key")
		if key == "-" {
			continue
		}
		if key == "" {
			key = schema.ToCamelCase(f.Name)
		}
		if _, taken := p.fields[key]; !taken {
			p.fields[key] = index
		}
	}
}

func assignRow(row Row, target reflect.Value) error {
	for target.Kind() == reflect.Ptr {
		if target.IsNil() {
			target.Set(reflect.New(target.Type().Elem()))
		}
		target = target.Elem()
	}
	if target.Type() == rowType {
		target.Set(reflect.ValueOf(row))
		return nil
	}
	if target.Kind() != reflect.Struct {
		return fmt.Errorf("engine: scan: cannot scan row into %s", target.Type())
	}

	plan := planFor(target.Type())
	for key, value := range row {
		index, ok := plan.fields[key]
		if !ok {
			continue
		}
		if err := assign(value, target.FieldByIndex(index)); err != nil {
			return fmt.Errorf("engine: scan %q: %w", key, err)
		}
	}
	return nil
}

func assignRows(rows []Row, target reflect.Value) error {
	out := reflect.MakeSlice(target.Type(), len(rows), len(rows))
	for i, r := range rows {
		if err := assignRow(r, out.Index(i)); err != nil {
			return err
		}
	}
	target.Set(out)
	return nil
}

// assign stores value into target, converting between compatible types.
func assign(value any, target reflect.Value) error {
	if value == nil {
		target.Set(reflect.Zero(target.Type()))
		return nil
	}

	switch val := value.(type) {
	case Row:
		return assignRow(val, target)
	case []Row:
		if target.Kind() != reflect.Slice {
			return fmt.Errorf("cannot scan rows into %s", target.Type())
		}
		return assignRows(val, target)
	}

	if target.Kind() == reflect.Ptr {
		elem := reflect.New(target.Type().Elem())
		if err := assign(value, elem.Elem()); err != nil {
			return err
		}
		target.Set(elem)
		return nil
	}

	src := reflect.ValueOf(value)
	if src.Type().AssignableTo(target.Type()) {
		target.Set(src)
		return nil
	}
	if src.Type() == numberType {
		return assignNumber(value.(json.Number), target)
	}
	if target.Type() == timeType {
		decoded, err := schema.TimestampCodec{}.FromDriver(value)
		if err != nil {
			return err
		}
		target.Set(reflect.ValueOf(decoded))
		return nil
	}
	if convertible(src.Type(), target.Type()) {
		target.Set(src.Convert(target.Type()))
		return nil
	}
	return fmt.Errorf("cannot set field of type %s with value of type %s", target.Type(), src.Type())
}

// convertible excludes the numeric to string conversion reflect allows,
// which yields a rune instead of the digits.
func convertible(from, to reflect.Type) bool {
	if to.Kind() == reflect.String && from.Kind() != reflect.String &&
		!(from.Kind() == reflect.Slice && from.Elem().Kind() == reflect.Uint8) {
		return false
	}
	return from.ConvertibleTo(to)
}

func assignNumber(n json.Number, target reflect.Value) error {
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := n.Int64()
		if err != nil {
			return err
		}
		target.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := n.Int64()
		if err != nil || i < 0 {
			return fmt.Errorf("cannot scan %s into %s", n, target.Type())
		}
		target.SetUint(uint64(i))
	case reflect.Float32, reflect.Float64:
		f, err := n.Float64()
		if err != nil {
			return err
		}
		target.SetFloat(f)
	case reflect.String:
		target.SetString(n.String())
	default:
		return fmt.Errorf("cannot scan number into %s", target.Type())
	}
	return nil
}
