package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertUnknownColumn(t *testing.T) {
	err := Insert(users).Values(Values{"id": 1, "age": 3}).Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestInsertIsUpsert(t *testing.T) {
	b := Insert(users).Values(Values{"id": 1})
	assert.False(t, b.Plan().IsUpsert())
	assert.False(t, b.OnConflictDoNothing().Plan().IsUpsert())
	assert.True(t, b.OnConflictDoUpdate(nil, Values{"name": "x"}).Plan().IsUpsert())
}

func TestReturningDefaultsToAllColumns(t *testing.T) {
	p := Delete(users).Returning().Plan()
	require.Len(t, p.Returning, 3)
	assert.Equal(t, []string{"cityId"}, p.Returning[2].Path)

	p = Delete(users).Returning(users.C("id")).Plan()
	require.Len(t, p.Returning, 1)
}

func TestUpdateBuilderIsImmutable(t *testing.T) {
	base := Update(users).Set(Values{"name": "a"})
	limited := base.Limit(3)

	assert.Nil(t, base.Plan().Limit)
	assert.Equal(t, 3, limited.Plan().Limit)
	assert.Equal(t, KindUpdate, limited.Kind())
	assert.Equal(t, "update", limited.Kind().String())
}
