package format

import (
	"bytes"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeParquet(t *testing.T) {
	type user struct {
		Name string  `parquet:"name"`
		Age  int64   `parquet:"age"`
		Gpa  float64 `parquet:"gpa"`
	}

	var buf bytes.Buffer
	writer := parquet.NewGenericWriter[user](&buf)
	_, err := writer.Write([]user{
		{Name: "Ada", Age: 36, Gpa: 3.9},
		{Name: "Grace", Age: 45, Gpa: 4.0},
	})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	file, err := DecodeParquet(buf.Bytes())
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "age", "gpa"}, file.Columns)
	require.Len(t, file.Rows, 2)
	assert.Equal(t, "Ada", file.Rows[0]["name"])
	assert.Equal(t, int64(36), file.Rows[0]["age"])
	assert.Equal(t, 4.0, file.Rows[1]["gpa"])
}

func TestDecodeParquetGarbage(t *testing.T) {
	_, err := DecodeParquet([]byte("not a parquet file"))
	require.Error(t, err)
}
