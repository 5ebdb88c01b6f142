package format

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/goccy/go-json"
)

// DecodeJSONL reads one JSON object per line. Numbers stay json.Number so
// integer columns do not degrade to floats. Column order is first-seen, with
// the keys a row introduces appended in sorted order.
func DecodeJSONL(data []byte) (*File, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	file := &File{}
	seen := map[string]bool{}

	for {
		var row map[string]any
		err := decoder.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to decode jsonl row %d: %v", len(file.Rows)+1, err)
		}

		var added []string
		for key := range row {
			if !seen[key] {
				seen[key] = true
				added = append(added, key)
			}
		}
		sort.Strings(added)
		file.Columns = append(file.Columns, added...)

		file.Rows = append(file.Rows, row)
	}

	return file, nil
}
