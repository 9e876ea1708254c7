package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ParsedTag is the column configuration read from a `db` struct tag.
type ParsedTag struct {
	ColumnName string
	Explicit   bool // column name given in the tag
	Skip       bool
	Type       ColumnType

	Primary   bool
	NotNull   bool
	Unique    bool
	Generated bool

	Default    string
	HasDefault bool
	Generator  string

	AutoNowAdd bool // set on insert
	AutoNow    bool // set on insert and update
}

// TagParser parses and caches `db` struct tags.
type TagParser struct {
	naming  NamingStrategy
	cache   map[string]*ParsedTag
	cacheMu sync.RWMutex
}

func NewTagParser(naming NamingStrategy) *TagParser {
	return &TagParser{
		naming: naming,
		cache:  make(map[string]*ParsedTag, 64),
	}
}

// ParseTag parses the `db` tag of a field.
//
// Supported syntax:
//
//	`db:"column_name"`                   // column name
//	`db:"column:name;primary;not_null"`  // options separated by ';'
//	`db:"type:bigint;default:0"`         // explicit type, static default
//	`db:"generator:uuid"`                // default from a registered generator
//	`db:"auto_now_add"` / `db:"auto_now"`
//	`db:"generated"`                     // computed by the database
//	`db:"-"`                             // skip field
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	value := tag.Get("db")
	if value == "" {
		return &ParsedTag{ColumnName: p.naming.ColumnName(fieldName)}, nil
	}

	key := fieldName + ":" + value
	p.cacheMu.RLock()
	cached, ok := p.cache[key]
	p.cacheMu.RUnlock()
	if ok {
		cp := *cached
		return &cp, nil
	}

	parsed, err := p.parse(fieldName, value)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[key] = parsed
	p.cacheMu.Unlock()

	cp := *parsed
	return &cp, nil
}

func (p *TagParser) parse(fieldName, value string) (*ParsedTag, error) {
	if value == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{ColumnName: p.naming.ColumnName(fieldName)}
	if !strings.ContainsAny(value, ";:") && !isFlag(value) {
		parsed.ColumnName = value
		parsed.Explicit = true
		return parsed, nil
	}

	for _, opt := range strings.Split(value, ";") {
		opt = strings.TrimSpace(opt)
		if opt == "" {
			continue
		}
		if idx := strings.IndexByte(opt, ':'); idx != -1 {
			if err := parsed.setOption(strings.TrimSpace(opt[:idx]), strings.TrimSpace(opt[idx+1:])); err != nil {
				return nil, err
			}
			continue
		}
		parsed.setFlag(opt)
	}
	return parsed, nil
}

func (t *ParsedTag) setOption(key, value string) error {
	switch key {
	case "column":
		if value == "" {
			return fmt.Errorf("empty column name")
		}
		t.ColumnName = value
		t.Explicit = true
	case "type":
		t.Type = ColumnType(strings.ToLower(value))
	case "default":
		t.Default = strings.Trim(value, "'")
		t.HasDefault = true
	case "generator":
		if _, ok := LookupGenerator(value); !ok {
			return fmt.Errorf("unknown generator %q", value)
		}
		t.Generator = value
	default:
		return fmt.Errorf("unknown tag option %q", key)
	}
	return nil
}

func (t *ParsedTag) setFlag(flag string) {
	switch flag {
	case "primary", "primary_key":
		t.Primary = true
	case "not_null", "not null":
		t.NotNull = true
	case "unique":
		t.Unique = true
	case "generated":
		t.Generated = true
	case "auto_now_add":
		t.AutoNowAdd = true
	case "auto_now":
		t.AutoNow = true
	}
	// unknown flags are ignored for forward compatibility
}

func isFlag(s string) bool {
	switch s {
	case "primary", "primary_key", "not_null", "unique", "generated", "auto_now_add", "auto_now":
		return true
	}
	return false
}
