package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"FirstName":  "first_name",
		"userID":     "user_id",
		"HTTPServer": "http_server",
		"already_ok": "already_ok",
		"ID":         "id",
		"address2":   "address2",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToSnakeCase(in), in)
	}
}

func TestToCamelCase(t *testing.T) {
	cases := map[string]string{
		"first_name": "firstName",
		"FirstName":  "firstName",
		"user_ID":    "userID",
		"ID":         "id",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToCamelCase(in), in)
	}
}

func TestToPascalCase(t *testing.T) {
	assert.Equal(t, "BlogPost", ToPascalCase("blog_post"))
	assert.Equal(t, "UserID", ToPascalCase("userID"))
}

func TestInflection(t *testing.T) {
	assert.Equal(t, "users", Pluralize("user"))
	assert.Equal(t, "blog_posts", Pluralize("blog_post"))
	assert.Equal(t, "blogPosts", Pluralize("blogPost"))
	assert.Equal(t, "people", Pluralize("person"))
	assert.Equal(t, "category", Singularize("categories"))
	assert.Equal(t, "", Pluralize(""))
}

func TestCasing(t *testing.T) {
	assert.Equal(t, "created_at", CasingSnake.Convert("createdAt"))
	assert.Equal(t, "createdAt", CasingCamel.Convert("created_at"))
	assert.Equal(t, "created_at", CasingNone.Convert("created_at"))
	assert.True(t, CasingSnake.Valid())
	assert.False(t, Casing("kebab").Valid())
}

func TestNamingStrategies(t *testing.T) {
	snake := SnakeCaseStrategy(true)
	assert.Equal(t, "user_profiles", snake.TableName("UserProfile"))
	assert.Equal(t, "first_name", snake.ColumnName("FirstName"))

	camel := CamelCaseStrategy(false)
	assert.Equal(t, "userProfile", camel.TableName("UserProfile"))
	assert.Equal(t, "firstName", camel.ColumnName("FirstName"))
}
