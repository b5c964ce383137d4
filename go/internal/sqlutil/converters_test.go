package sqlutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNullConverters(t *testing.T) {
	assert.Equal(t, "fallback", FromSqlString(sql.NullString{}, "fallback"))
	assert.Equal(t, "x", FromSqlString(sql.NullString{String: "x", Valid: true}, "fallback"))

	assert.False(t, FromSqlBool(sql.NullBool{Bool: true}))
	assert.True(t, FromSqlBool(sql.NullBool{Bool: true, Valid: true}))

	now := time.Date(2025, 6, 30, 11, 0, 0, 0, time.UTC)
	assert.Nil(t, FromSqlTime(ToSqlTime(nil)))
	got := FromSqlTime(ToSqlTime(&now))
	if assert.NotNil(t, got) {
		assert.True(t, now.Equal(*got))
	}
	assert.True(t, FromSqlTimeOrZero(sql.NullTime{}).IsZero())
}
