package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-kavli-institute/ticdb/rdb/query"
)

func TestParseWhere(t *testing.T) {
	tests := []struct {
		expr  string
		name  string
		value any
	}{
		{"tmag__lt=10", "tmag__lt", int64(10)},
		{"tmag__ge=9.5", "tmag__ge", 9.5},
		{"objtype__eq=STAR", "objtype__eq", "STAR"},
		{"objtype__eq='123'", "objtype__eq", "123"},
		{"tmag__eq=null", "tmag__eq", nil},
		{"flag__is_=true", "flag__is_", true},
		{"id__in=1, 2,3", "id__in", []any{int64(1), int64(2), int64(3)}},
		{"objtype__notin=STAR,EXTENDED", "objtype__notin", []any{"STAR", "EXTENDED"}},
		{"note__eq=a=b", "note__eq", "a=b"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			name, value, err := parseWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.value, value)
		})
	}
}

func TestParseWhereInvalid(t *testing.T) {
	for _, expr := range []string{"tmag", "tmag=10", "__lt=10", "tmag__=1"} {
		_, _, err := parseWhere(expr)
		assert.ErrorIs(t, err, query.ErrInvalidKeyword, expr)
	}
}
