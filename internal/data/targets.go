package data

import (
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"github.com/johnny-rice/ingestr/internal/validator"
)

var identifierRX = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Target is the destination database, parsed from a destination URI. The URI
// scheme selects the database/sql driver; a bare *.duckdb path is shorthand
// for a DuckDB destination, matching the documented worked example.
type Target struct {
	Dialect string  `json:"destination_dialect"`
	Schema  string  `json:"destination_schema,omitempty"`
	Table   string  `json:"destination_table"`
	Db      *sql.DB `json:"-"`

	driver string
	dsn    string
}

func ParseTargetURI(raw string) (Target, error) {
	if strings.HasPrefix(raw, "duckdb://") {
		return Target{Dialect: "duckdb", driver: "duckdb", dsn: strings.TrimPrefix(raw, "duckdb://")}, nil
	}
	if strings.HasSuffix(raw, ".duckdb") && !strings.Contains(raw, "://") {
		return Target{Dialect: "duckdb", driver: "duckdb", dsn: raw}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("unable to parse destination uri: %v", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		return Target{Dialect: "postgres", driver: "postgres", dsn: raw}, nil
	case "sqlserver":
		return Target{Dialect: "sqlserver", driver: "sqlserver", dsn: raw}, nil
	case "snowflake":
		password, _ := u.User.Password()
		snowflakeConfig := gosnowflake.Config{
			Account:   u.Host,
			User:      u.User.Username(),
			Password:  password,
			Database:  strings.TrimPrefix(u.Path, "/"),
			Warehouse: u.Query().Get("warehouse"),
			Role:      u.Query().Get("role"),
		}
		dsn, err := gosnowflake.DSN(&snowflakeConfig)
		if err != nil {
			return Target{}, fmt.Errorf("unable to construct a snowflake DSN: %v", err)
		}
		return Target{Dialect: "snowflake", driver: "snowflake", dsn: dsn}, nil
	default:
		return Target{}, fmt.Errorf("unsupported destination uri scheme %q", u.Scheme)
	}
}

// SetTable records the destination table, given as schema.table or a bare
// table name.
func (t *Target) SetTable(raw string) error {
	schema, table, found := strings.Cut(raw, ".")
	if !found {
		t.Table = raw
		return nil
	}
	if strings.Contains(table, ".") {
		return fmt.Errorf("destination table %q must be schema.table or a bare table name", raw)
	}
	t.Schema = schema
	t.Table = table
	return nil
}

func ValidateTarget(v *validator.Validator, target Target) {
	v.Check(target.Table != "", "destination_table", "must be provided")
	if target.Table != "" {
		v.Check(validator.Matches(target.Table, identifierRX), "destination_table", "table name must be a plain identifier")
	}
	if target.Schema != "" {
		v.Check(validator.Matches(target.Schema, identifierRX), "destination_table", "schema name must be a plain identifier")
	}
}

// ValidateColumns rejects column names that cannot be interpolated into DDL
// as plain identifiers. Inferred names come straight from file headers, so
// this is what keeps a hostile header out of the destination's SQL.
func ValidateColumns(columns []Column) error {
	for _, col := range columns {
		if !validator.Matches(col.Name, identifierRX) {
			return fmt.Errorf("column name %q is not a plain identifier", col.Name)
		}
	}
	return nil
}

// Open opens the destination connection and pings it.
func (t *Target) Open() error {
	db, err := sql.Open(t.driver, t.dsn)
	if err != nil {
		return fmt.Errorf("unable to open %v connection: %v", t.Dialect, err)
	}
	err = db.Ping()
	if err != nil {
		return fmt.Errorf("unable to ping %v destination: %v", t.Dialect, err)
	}
	t.Db = db
	return nil
}

func (t Target) QualifiedTable() string {
	if t.Schema == "" {
		return t.Table
	}
	return t.Schema + "." + t.Table
}

// Placeholder returns the parameter marker for the i-th (1-based) argument.
func (t Target) Placeholder(i int) string {
	switch t.Dialect {
	case "postgres":
		return fmt.Sprintf("$%d", i)
	case "sqlserver":
		return fmt.Sprintf("@p%d", i)
	default:
		return "?"
	}
}

// CreateSchemaStmt returns the statement creating the target schema, or ok
// false when no schema was given.
func (t Target) CreateSchemaStmt() (string, bool) {
	if t.Schema == "" {
		return "", false
	}
	if t.Dialect == "sqlserver" {
		return fmt.Sprintf("IF SCHEMA_ID(N'%v') IS NULL EXEC(N'CREATE SCHEMA %v')", t.Schema, t.Schema), true
	}
	return fmt.Sprintf("create schema if not exists %v", t.Schema), true
}

// ColumnDDL maps an inferred column type to the dialect's DDL type name.
func (t Target) ColumnDDL(columnType ColumnType) string {
	switch columnType {
	case ColumnBoolean:
		if t.Dialect == "sqlserver" {
			return "BIT"
		}
		return "BOOLEAN"
	case ColumnBigint:
		return "BIGINT"
	case ColumnDouble:
		switch t.Dialect {
		case "postgres":
			return "DOUBLE PRECISION"
		case "sqlserver":
			return "FLOAT"
		default:
			return "DOUBLE"
		}
	case ColumnTimestamp:
		if t.Dialect == "sqlserver" {
			return "DATETIME2"
		}
		return "TIMESTAMP"
	default:
		if t.Dialect == "sqlserver" {
			return "NVARCHAR(MAX)"
		}
		return "TEXT"
	}
}

// CreateTableStmt builds the create table statement for the inferred columns,
// in column order.
func (t Target) CreateTableStmt(columns []Column) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%v %v", col.Name, t.ColumnDDL(col.Type))
	}
	createTable := "create table if not exists"
	if t.Dialect == "sqlserver" {
		createTable = "create table"
	}
	return fmt.Sprintf("%v %v (%v)", createTable, t.QualifiedTable(), strings.Join(parts, ", "))
}

// InsertStmt builds the single-row insert statement for the columns.
func (t Target) InsertStmt(columns []Column) string {
	names := make([]string, len(columns))
	markers := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
		markers[i] = t.Placeholder(i + 1)
	}
	return fmt.Sprintf(
		"insert into %v (%v) values (%v)",
		t.QualifiedTable(),
		strings.Join(names, ", "),
		strings.Join(markers, ", "),
	)
}
