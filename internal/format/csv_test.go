package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCSV(t *testing.T) {
	file, err := DecodeCSV([]byte("id,name,gpa\n1,Ada,3.9\n2,Grace,4.0\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "gpa"}, file.Columns)
	require.Len(t, file.Rows, 2)
	assert.Equal(t, "1", file.Rows[0]["id"])
	assert.Equal(t, "Ada", file.Rows[0]["name"])
	assert.Equal(t, "4.0", file.Rows[1]["gpa"])
}

func TestDecodeCSVHeaderOnly(t *testing.T) {
	file, err := DecodeCSV([]byte("id,name\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, file.Columns)
	assert.Empty(t, file.Rows)
}

func TestDecodeCSVEmpty(t *testing.T) {
	_, err := DecodeCSV([]byte(""))
	require.Error(t, err)
}

func TestDecodeCSVRaggedRow(t *testing.T) {
	_, err := DecodeCSV([]byte("id,name\n1,Ada,extra\n"))
	require.Error(t, err)
}
