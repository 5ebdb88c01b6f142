package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnny-rice/ingestr/internal/validator"
)

func TestParseSourceURI(t *testing.T) {
	source, err := ParseSourceURI("s3://?access_key_id=AKIA123&secret_access_key=shhh")
	require.NoError(t, err)
	assert.Equal(t, "AKIA123", source.AccessKeyID)
	assert.Equal(t, "shhh", source.SecretAccessKey)
	assert.Equal(t, "us-east-1", source.Region)
	assert.Empty(t, source.EndpointURL)
}

func TestParseSourceURICompatibleStore(t *testing.T) {
	source, err := ParseSourceURI("s3://?access_key_id=minio&secret_access_key=minio123&endpoint_url=http://localhost:9000&region=eu-west-1&session_token=tok")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", source.EndpointURL)
	assert.Equal(t, "eu-west-1", source.Region)
	assert.Equal(t, "tok", source.SessionToken)
}

func TestParseSourceURIRejectsUnknownParameters(t *testing.T) {
	_, err := ParseSourceURI("s3://?access_key_id=a&secret_access_key=b&acess_key=typo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acess_key")
}

func TestParseSourceURIRejectsWrongScheme(t *testing.T) {
	_, err := ParseSourceURI("gs://?access_key_id=a&secret_access_key=b")
	require.Error(t, err)
}

func TestValidateSource(t *testing.T) {
	v := validator.New()
	ValidateSource(v, Source{AccessKeyID: "a", SecretAccessKey: "b"})
	assert.True(t, v.Valid())

	v = validator.New()
	ValidateSource(v, Source{AccessKeyID: "a"})
	assert.False(t, v.Valid())
	assert.Contains(t, v.Errors, "secret_access_key")
}

func TestParseTableRef(t *testing.T) {
	ref, err := ParseTableRef("my_bucket/students/students_details.csv")
	require.NoError(t, err)
	assert.Equal(t, "my_bucket", ref.Bucket)
	assert.Equal(t, "students/students_details.csv", ref.Glob)
	assert.Equal(t, "my_bucket/students/students_details.csv", ref.String())

	_, err = ParseTableRef("just_a_bucket")
	require.Error(t, err)
}

// The five documented glob patterns, checked against their stated meanings.
func TestMatchKey(t *testing.T) {
	tests := []struct {
		glob    string
		match   []string
		noMatch []string
	}{
		{
			// all CSV files at any depth
			glob:    "**/*.csv",
			match:   []string{"a.csv", "folder/b.csv", "folder/sub/deep/c.csv"},
			noMatch: []string{"a.jsonl", "folder/b.parquet"},
		},
		{
			// CSV files at the top level only
			glob:    "*.csv",
			match:   []string{"a.csv", "employees.csv"},
			noMatch: []string{"folder/b.csv", "folder/sub/c.csv", "a.jsonl"},
		},
		{
			// all JSONL files anywhere under myFolder
			glob:    "myFolder/**/*.jsonl",
			match:   []string{"myFolder/a.jsonl", "myFolder/sub/b.jsonl", "myFolder/x/y/z.jsonl"},
			noMatch: []string{"a.jsonl", "otherFolder/a.jsonl", "myFolder/a.csv"},
		},
		{
			// one exact file
			glob:    "myFolder/mySubFolder/users.parquet",
			match:   []string{"myFolder/mySubFolder/users.parquet"},
			noMatch: []string{"myFolder/users.parquet", "myFolder/mySubFolder/other.parquet"},
		},
		{
			// one exact file at bucket root
			glob:    "employees.jsonl",
			match:   []string{"employees.jsonl"},
			noMatch: []string{"folder/employees.jsonl", "employees.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.glob, func(t *testing.T) {
			ref := TableRef{Bucket: "my_bucket", Glob: tt.glob}
			for _, key := range tt.match {
				assert.True(t, ref.MatchKey(key), "expected %q to match %q", tt.glob, key)
			}
			for _, key := range tt.noMatch {
				assert.False(t, ref.MatchKey(key), "expected %q not to match %q", tt.glob, key)
			}
		})
	}
}

func TestValidateTableRef(t *testing.T) {
	v := validator.New()
	ValidateTableRef(v, TableRef{Bucket: "b", Glob: "**/*.csv"})
	assert.True(t, v.Valid())

	v = validator.New()
	ValidateTableRef(v, TableRef{Bucket: "b", Glob: "[bad"})
	assert.False(t, v.Valid())

	v = validator.New()
	ValidateTableRef(v, TableRef{Bucket: "b"})
	assert.False(t, v.Valid())
}

func TestListPrefix(t *testing.T) {
	tests := []struct {
		glob   string
		prefix string
	}{
		{"**/*.csv", ""},
		{"*.csv", ""},
		{"myFolder/**/*.jsonl", "myFolder/"},
		{"myFolder/mySubFolder/users.parquet", "myFolder/mySubFolder/users.parquet"},
		{"employees.jsonl", "employees.jsonl"},
		{"a/b/c*.csv", "a/b/"},
	}

	for _, tt := range tests {
		ref := TableRef{Glob: tt.glob}
		assert.Equal(t, tt.prefix, ref.ListPrefix(), "glob %q", tt.glob)
	}
}
