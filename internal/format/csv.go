package format

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// DecodeCSV reads a CSV object. The first record is the header; every row
// must have the header's field count, which encoding/csv enforces.
func DecodeCSV(data []byte) (*File, error) {
	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv object has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read csv header: %v", err)
	}

	file := &File{Columns: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read csv row: %v", err)
		}

		row := make(map[string]any, len(header))
		for i, name := range header {
			row[name] = record[i]
		}
		file.Rows = append(file.Rows, row)
	}

	return file, nil
}
