package data

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferColumnsFromCSVText(t *testing.T) {
	columns := InferColumns(
		[]string{"id", "name", "gpa", "enrolled", "joined_at", "notes"},
		[]map[string]any{
			{"id": "1", "name": "Ada", "gpa": "3.9", "enrolled": "true", "joined_at": "2023-09-01", "notes": ""},
			{"id": "2", "name": "Grace", "gpa": "4.0", "enrolled": "false", "joined_at": "2023-09-02", "notes": "transfer"},
		},
	)

	assert.Equal(t, []Column{
		{Name: "id", Type: ColumnBigint},
		{Name: "name", Type: ColumnText},
		{Name: "gpa", Type: ColumnDouble},
		{Name: "enrolled", Type: ColumnBoolean},
		{Name: "joined_at", Type: ColumnTimestamp},
		{Name: "notes", Type: ColumnText},
	}, columns)
}

func TestInferColumnsWidening(t *testing.T) {
	columns := InferColumns(
		[]string{"mixed_num", "conflict", "all_null"},
		[]map[string]any{
			{"mixed_num": json.Number("1"), "conflict": json.Number("5"), "all_null": nil},
			{"mixed_num": json.Number("2.5"), "conflict": "hello", "all_null": nil},
		},
	)

	assert.Equal(t, ColumnDouble, columns[0].Type)
	assert.Equal(t, ColumnText, columns[1].Type)
	assert.Equal(t, ColumnText, columns[2].Type)
}

func TestFormatRow(t *testing.T) {
	columns := []Column{
		{Name: "id", Type: ColumnBigint},
		{Name: "gpa", Type: ColumnDouble},
		{Name: "enrolled", Type: ColumnBoolean},
		{Name: "joined_at", Type: ColumnTimestamp},
		{Name: "name", Type: ColumnText},
	}

	args, err := FormatRow(columns, map[string]any{
		"id":        "42",
		"gpa":       json.Number("3.5"),
		"enrolled":  "TRUE",
		"joined_at": "2023-09-01 10:30:00",
		"name":      "Ada",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), args[0])
	assert.Equal(t, 3.5, args[1])
	assert.Equal(t, true, args[2])
	assert.Equal(t, time.Date(2023, 9, 1, 10, 30, 0, 0, time.UTC), args[3])
	assert.Equal(t, "Ada", args[4])
}

func TestFormatRowNulls(t *testing.T) {
	columns := []Column{
		{Name: "id", Type: ColumnBigint},
		{Name: "name", Type: ColumnText},
	}

	args, err := FormatRow(columns, map[string]any{"id": "", "name": nil})
	require.NoError(t, err)
	assert.Nil(t, args[0])
	assert.Nil(t, args[1])

	// missing keys behave like nulls too
	args, err = FormatRow(columns, map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, args[0])
}

func TestFormatRowBadValue(t *testing.T) {
	columns := []Column{{Name: "id", Type: ColumnBigint}}

	_, err := FormatRow(columns, map[string]any{"id": "not-a-number"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}
