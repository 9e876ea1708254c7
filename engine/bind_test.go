package engine_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/relsql/ast"
	"github.com/Konsultn-Engineering/relsql/engine"
	"github.com/Konsultn-Engineering/relsql/schema"
)

type Post struct {
	ID    int `key:"id"`
	Title string
}

type Audit struct {
	CreatedAt time.Time
}

type User struct {
	Audit
	ID      int64  `key:"id"`
	Name    string
	CityID  *int64 `key:"cityId"`
	Score   float64
	Posts   []Post
	Manager *User
	Extra   engine.Row
	Ignored string `key:"-"`
	secret  string
}

// =========================================================================
// ScanRow
// =========================================================================

func TestScanRow(t *testing.T) {
	row := engine.Row{
		"id":        int64(1),
		"name":      "ann",
		"cityId":    json.Number("4"),
		"score":     json.Number("2.5"),
		"createdAt": "2024-03-01T12:30:00Z",
		"posts": []engine.Row{
			{"id": json.Number("10"), "title": "first"},
		},
		"manager": engine.Row{"id": int64(2), "name": "bob"},
		"extra":   engine.Row{"k": "v"},
		"ignored": "nope",
		"secret":  "nope",
		"unknown": 1,
	}

	var u User
	require.NoError(t, engine.ScanRow(row, &u))

	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "ann", u.Name)
	require.NotNil(t, u.CityID)
	assert.Equal(t, int64(4), *u.CityID)
	assert.Equal(t, 2.5, u.Score)
	assert.Equal(t, time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), u.CreatedAt)
	assert.Equal(t, []Post{{ID: 10, Title: "first"}}, u.Posts)
	require.NotNil(t, u.Manager)
	assert.Equal(t, "bob", u.Manager.Name)
	assert.Equal(t, engine.Row{"k": "v"}, u.Extra)
	assert.Empty(t, u.Ignored)
	assert.Empty(t, u.secret)
}

func TestScanRowNulls(t *testing.T) {
	city := int64(3)
	u := User{Name: "old", CityID: &city, Manager: &User{}}

	require.NoError(t, engine.ScanRow(engine.Row{"name": nil, "cityId": nil, "manager": nil}, &u))
	assert.Empty(t, u.Name)
	assert.Nil(t, u.CityID)
	assert.Nil(t, u.Manager)
}

func TestScanRowErrors(t *testing.T) {
	var u User
	assert.ErrorContains(t, engine.ScanRow(engine.Row{}, u), "expected non-nil pointer")
	assert.ErrorContains(t, engine.ScanRow(engine.Row{"name": 12}, &u), `scan "name"`)
	assert.Error(t, engine.ScanRow(engine.Row{"posts": engine.Row{}}, &u))
	assert.Error(t, engine.ScanRow(engine.Row{"id": json.Number("1.5")}, &u))

	var n int
	assert.ErrorContains(t, engine.ScanRow(engine.Row{}, &n), "cannot scan row into int")
}

func TestScanRows(t *testing.T) {
	var posts []Post
	require.NoError(t, engine.ScanRows([]engine.Row{
		{"id": int64(1), "title": "a"},
		{"id": int32(2), "title": []byte("b")},
	}, &posts))
	assert.Equal(t, []Post{{ID: 1, Title: "a"}, {ID: 2, Title: "b"}}, posts)

	var ptrs []*Post
	require.NoError(t, engine.ScanRows([]engine.Row{{"id": int64(7)}}, &ptrs))
	require.Len(t, ptrs, 1)
	assert.Equal(t, 7, ptrs[0].ID)

	assert.Error(t, engine.ScanRows(nil, posts))
}

// =========================================================================
// Placeholders
// =========================================================================

func TestFillPlaceholders(t *testing.T) {
	params := []any{
		ast.Param{Value: ast.Named("active"), Encoder: schema.BooleanCodec{}},
		5,
		ast.Param{Value: ast.Named("name")},
		ast.Param{Value: "bound"},
	}

	out, err := engine.FillPlaceholders(params, map[string]any{"active": true, "name": "ann"})
	require.NoError(t, err)
	assert.Equal(t, []any{true, 5, "ann", "bound"}, out)

	// the input is not modified
	assert.IsType(t, ast.Param{}, params[0])

	_, err = engine.FillPlaceholders(params, map[string]any{"active": true})
	assert.ErrorIs(t, err, engine.ErrMissingValue)
	assert.ErrorContains(t, err, `"name"`)

	meta := []any{ast.Param{Value: ast.Named("meta"), Encoder: schema.JSONCodec{}}}
	_, err = engine.FillPlaceholders(meta, map[string]any{"meta": func() {}})
	assert.ErrorContains(t, err, `encode placeholder "meta"`)
}
