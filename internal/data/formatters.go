package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type ColumnType string

const (
	ColumnBoolean   ColumnType = "BOOLEAN"
	ColumnBigint    ColumnType = "BIGINT"
	ColumnDouble    ColumnType = "DOUBLE"
	ColumnTimestamp ColumnType = "TIMESTAMP"
	ColumnText      ColumnType = "TEXT"

	columnUnknown ColumnType = ""
)

type Column struct {
	Name string     `json:"column_name"`
	Type ColumnType `json:"column_type"`
}

// MaxInferRows caps how many rows schema inference looks at.
const MaxInferRows = 1000

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// InferColumns determines a column type for every named column by widening
// over the sampled rows. Columns that never carry a typed value fall back to
// TEXT.
func InferColumns(columnNames []string, rows []map[string]any) []Column {
	if len(rows) > MaxInferRows {
		rows = rows[:MaxInferRows]
	}

	columns := make([]Column, len(columnNames))
	for i, name := range columnNames {
		inferred := columnUnknown
		for _, row := range rows {
			inferred = widen(inferred, typeOf(row[name]))
			if inferred == ColumnText {
				break
			}
		}
		if inferred == columnUnknown {
			inferred = ColumnText
		}
		columns[i] = Column{Name: name, Type: inferred}
	}
	return columns
}

func typeOf(value any) ColumnType {
	switch v := value.(type) {
	case nil:
		return columnUnknown
	case bool:
		return ColumnBoolean
	case int, int32, int64:
		return ColumnBigint
	case float32, float64:
		return ColumnDouble
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return ColumnBigint
		}
		return ColumnDouble
	case time.Time:
		return ColumnTimestamp
	case string:
		return typeOfString(v)
	default:
		return ColumnText
	}
}

// typeOfString probes CSV cell text, which carries no type of its own. Empty
// cells count as null.
func typeOfString(s string) ColumnType {
	if s == "" {
		return columnUnknown
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ColumnBigint
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return ColumnDouble
	}
	switch strings.ToLower(s) {
	case "true", "false":
		return ColumnBoolean
	}
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return ColumnTimestamp
		}
	}
	return ColumnText
}

func widen(a, b ColumnType) ColumnType {
	switch {
	case a == b:
		return a
	case a == columnUnknown:
		return b
	case b == columnUnknown:
		return a
	case a == ColumnBigint && b == ColumnDouble, a == ColumnDouble && b == ColumnBigint:
		return ColumnDouble
	default:
		return ColumnText
	}
}

// Formatters coerces a decoded value into a driver argument for its inferred
// column type. Nil values and empty CSV cells become SQL NULL.
var Formatters = map[ColumnType]func(value any) (any, error){
	ColumnBoolean:   toBoolean,
	ColumnBigint:    toBigint,
	ColumnDouble:    toDouble,
	ColumnTimestamp: toTimestamp,
	ColumnText:      toText,
}

func isNull(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func toBoolean(value any) (any, error) {
	if isNull(value) {
		return nil, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("toBoolean unable to coerce %q to bool", v)
	default:
		return nil, fmt.Errorf("toBoolean unable to coerce %T to bool", value)
	}
}

func toBigint(value any) (any, error) {
	if isNull(value) {
		return nil, nil
	}
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return nil, fmt.Errorf("toBigint unable to coerce %T to int64", value)
	}
}

func toDouble(value any) (any, error) {
	if isNull(value) {
		return nil, nil
	}
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return nil, fmt.Errorf("toDouble unable to coerce %T to float64", value)
	}
}

func toTimestamp(value any) (any, error) {
	if isNull(value) {
		return nil, nil
	}
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, fmt.Errorf("toTimestamp unable to parse %q", v)
	default:
		return nil, fmt.Errorf("toTimestamp unable to coerce %T to time.Time", value)
	}
}

func toText(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.Format("2006-01-02 15:04:05.000000"), nil
	default:
		return fmt.Sprintf("%v", v), nil
	}
}

// FormatRow coerces a full decoded row into insert arguments, in column
// order.
func FormatRow(columns []Column, row map[string]any) ([]any, error) {
	args := make([]any, len(columns))
	for i, col := range columns {
		formatter, ok := Formatters[col.Type]
		if !ok {
			return nil, errors.New("no formatter for column type " + string(col.Type))
		}
		arg, err := formatter(row[col.Name])
		if err != nil {
			return nil, fmt.Errorf("column %v: %v", col.Name, err)
		}
		args[i] = arg
	}
	return args, nil
}
