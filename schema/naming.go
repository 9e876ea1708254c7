package schema

import (
	"strings"

	pluralizer "github.com/gertd/go-pluralize"
)

// pluralizeClient is shared so irregular-noun tables are built once.
var pluralizeClient = pluralizer.NewClient()

// =========================================================================
// Core Interfaces
// =========================================================================

// NamingStrategy converts Go identifiers into database names.
type NamingStrategy interface {
	// ColumnName converts a Go field name to a column name.
	ColumnName(fieldName string) string
	// TableName converts a Go struct name to a table name.
	TableName(structName string) string
}

// Casing is the global column casing convention applied to columns whose
// database name was derived from their key.
type Casing string

const (
	CasingNone  Casing = ""
	CasingSnake Casing = "snake_case"
	CasingCamel Casing = "camelCase"
)

// Convert applies the casing convention to name.
func (c Casing) Convert(name string) string {
	switch c {
	case CasingSnake:
		return ToSnakeCase(name)
	case CasingCamel:
		return ToCamelCase(name)
	default:
		return name
	}
}

// Valid reports whether c is a known casing.
func (c Casing) Valid() bool {
	return c == CasingNone || c == CasingSnake || c == CasingCamel
}

// =========================================================================
// Strategies
// =========================================================================

type snakeCaseStrategy struct {
	plural bool
}

// SnakeCaseStrategy maps UserProfile to user_profile (or user_profiles when
// plural is set) and FirstName to first_name.
func SnakeCaseStrategy(plural bool) NamingStrategy {
	return snakeCaseStrategy{plural: plural}
}

func (s snakeCaseStrategy) ColumnName(fieldName string) string {
	return ToSnakeCase(fieldName)
}

func (s snakeCaseStrategy) TableName(structName string) string {
	name := ToSnakeCase(structName)
	if s.plural {
		return Pluralize(name)
	}
	return name
}

type camelCaseStrategy struct {
	plural bool
}

// CamelCaseStrategy maps UserProfile to userProfile and FirstName to firstName.
func CamelCaseStrategy(plural bool) NamingStrategy {
	return camelCaseStrategy{plural: plural}
}

func (s camelCaseStrategy) ColumnName(fieldName string) string {
	return ToCamelCase(fieldName)
}

func (s camelCaseStrategy) TableName(structName string) string {
	name := ToCamelCase(structName)
	if s.plural {
		return Pluralize(name)
	}
	return name
}

// DefaultNamingStrategy is snake_case with plural table names.
func DefaultNamingStrategy() NamingStrategy {
	return SnakeCaseStrategy(true)
}

// =========================================================================
// Core Conversion Functions
// =========================================================================

// splitWords breaks name into words: runs of lowercase letters and digits,
// acronyms (an uppercase run not followed by a lowercase letter) and
// capitalised words. Every other character is a separator. Apostrophes are
// dropped so "user's" stays one word.
func splitWords(name string) []string {
	name = strings.NewReplacer("'", "", "’", "").Replace(name)
	runes := []rune(name)
	words := make([]string, 0, 4)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case isLowerOrDigit(r):
			j := i
			for j < len(runes) && isLowerOrDigit(runes[j]) {
				j++
			}
			words = append(words, string(runes[i:j]))
			i = j

		case isUpper(r):
			j := i
			for j < len(runes) && isUpper(runes[j]) {
				j++
			}
			if j < len(runes) && isLower(runes[j]) {
				if j-i > 1 {
					// HTTPServer: the last capital starts the next word
					words = append(words, string(runes[i:j-1]))
					i = j - 1
					continue
				}
				k := i + 1
				for k < len(runes) && isLowerOrDigit(runes[k]) {
					k++
				}
				words = append(words, string(runes[i:k]))
				i = k
				continue
			}
			words = append(words, string(runes[i:j]))
			i = j

		default:
			i++
		}
	}
	return words
}

// ToSnakeCase converts any naming convention to snake_case.
func ToSnakeCase(name string) string {
	words := splitWords(name)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// ToCamelCase converts any naming convention to camelCase. Only the first
// rune of each later word is touched, so acronyms survive: user_ID -> userID.
func ToCamelCase(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for i, w := range splitWords(name) {
		if i == 0 {
			sb.WriteString(strings.ToLower(w))
			continue
		}
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}

// ToPascalCase converts any naming convention to PascalCase.
func ToPascalCase(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, w := range splitWords(name) {
		sb.WriteString(strings.ToUpper(w[:1]))
		sb.WriteString(w[1:])
	}
	return sb.String()
}

// Pluralize returns the plural form of a (snake or camel cased) noun. Only
// the last word is inflected: blog_post -> blog_posts.
func Pluralize(name string) string {
	return inflectLast(name, pluralizeClient.Plural)
}

// Singularize returns the singular form of a noun.
func Singularize(name string) string {
	return inflectLast(name, pluralizeClient.Singular)
}

func inflectLast(name string, fn func(string) string) string {
	if name == "" {
		return ""
	}
	cut := strings.LastIndexByte(name, '_')
	if cut == -1 {
		for i := len(name) - 1; i > 0; i-- {
			if isUpper(rune(name[i])) {
				cut = i - 1
				break
			}
		}
	}
	head, last := name[:cut+1], name[cut+1:]
	return head + fn(last)
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

func isLowerOrDigit(r rune) bool { return isLower(r) || (r >= '0' && r <= '9') }
