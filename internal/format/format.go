// Package format decodes the file formats an S3 source table can hold into
// rows ready for loading. The format of an object is chosen by the extension
// of its key; a trailing .gz means the content is gzip-wrapped.
package format

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"
)

type Kind string

const (
	KindCSV     Kind = "csv"
	KindJSONL   Kind = "jsonl"
	KindParquet Kind = "parquet"
)

// File is a decoded object: column names in file order plus one map per row.
type File struct {
	Columns []string
	Rows    []map[string]any
}

// Detect maps an object key to its format. Parquet carries its own
// compression, so a gzip-wrapped parquet key is rejected rather than
// silently mangled.
func Detect(key string) (kind Kind, gzipped bool, err error) {
	name := key
	if strings.HasSuffix(name, ".gz") {
		gzipped = true
		name = strings.TrimSuffix(name, ".gz")
	}

	switch path.Ext(name) {
	case ".csv":
		kind = KindCSV
	case ".jsonl":
		kind = KindJSONL
	case ".parquet":
		kind = KindParquet
		if gzipped {
			return kind, gzipped, fmt.Errorf("object %v: parquet must not be gzip-wrapped", key)
		}
	default:
		return kind, gzipped, fmt.Errorf("object %v has an unsupported file format", key)
	}

	return kind, gzipped, nil
}

// Decode turns a downloaded object into rows.
func Decode(key string, data []byte) (*File, error) {
	kind, gzipped, err := Detect(key)
	if err != nil {
		return nil, err
	}

	if gzipped {
		gzipReader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("object %v: unable to open gzip stream: %v", key, err)
		}
		data, err = io.ReadAll(gzipReader)
		if err != nil {
			return nil, fmt.Errorf("object %v: unable to decompress: %v", key, err)
		}
	}

	switch kind {
	case KindCSV:
		return DecodeCSV(data)
	case KindJSONL:
		return DecodeJSONL(data)
	default:
		return DecodeParquet(data)
	}
}
