package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// DecodeParquet reads every row group of a parquet object. Nested fields
// flatten to dotted column names.
func DecodeParquet(data []byte) (*File, error) {
	parquetFile, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to open parquet object: %v", err)
	}

	columnPaths := parquetFile.Schema().Columns()
	columns := make([]string, len(columnPaths))
	for i, columnPath := range columnPaths {
		columns[i] = strings.Join(columnPath, ".")
	}

	file := &File{Columns: columns}
	buf := make([]parquet.Row, 64)

	for _, rowGroup := range parquetFile.RowGroups() {
		rows := rowGroup.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				row := make(map[string]any, len(columns))
				for _, value := range buf[i] {
					row[columns[value.Column()]] = parquetValue(value)
				}
				file.Rows = append(file.Rows, row)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("unable to read parquet rows: %v", err)
			}
			if n == 0 {
				break
			}
		}
		rows.Close()
	}

	return file, nil
}

func parquetValue(value parquet.Value) any {
	if value.IsNull() {
		return nil
	}
	switch value.Kind() {
	case parquet.Boolean:
		return value.Boolean()
	case parquet.Int32:
		return int64(value.Int32())
	case parquet.Int64:
		return value.Int64()
	case parquet.Float:
		return float64(value.Float())
	case parquet.Double:
		return value.Double()
	default:
		return value.String()
	}
}
