package data

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/johnny-rice/ingestr/internal/validator"
)

const defaultRegion = "us-east-1"

// Source holds the connection details parsed from a source URI of the form
// s3://?access_key_id=<id>&secret_access_key=<key>. The endpoint_url parameter
// points the client at an S3-compatible store such as MinIO or R2.
type Source struct {
	AccessKeyID     string `json:"-"`
	SecretAccessKey string `json:"-"`
	SessionToken    string `json:"-"`
	EndpointURL     string `json:"source_endpoint_url,omitempty"`
	Region          string `json:"source_region"`
}

var sourceParams = map[string]func(*Source, string){
	"access_key_id":     func(s *Source, v string) { s.AccessKeyID = v },
	"secret_access_key": func(s *Source, v string) { s.SecretAccessKey = v },
	"session_token":     func(s *Source, v string) { s.SessionToken = v },
	"endpoint_url":      func(s *Source, v string) { s.EndpointURL = v },
	"region":            func(s *Source, v string) { s.Region = v },
}

func ParseSourceURI(raw string) (Source, error) {
	source := Source{Region: defaultRegion}

	u, err := url.Parse(raw)
	if err != nil {
		return source, fmt.Errorf("unable to parse source uri: %v", err)
	}

	if u.Scheme != "s3" {
		return source, fmt.Errorf("source uri scheme must be s3, got %q", u.Scheme)
	}

	for key, values := range u.Query() {
		set, ok := sourceParams[key]
		if !ok {
			return source, fmt.Errorf("unknown source uri parameter %q", key)
		}
		set(&source, values[len(values)-1])
	}

	return source, nil
}

func ValidateSource(v *validator.Validator, source Source) {
	v.Check(source.AccessKeyID != "", "access_key_id", "must be provided")
	v.Check(source.SecretAccessKey != "", "secret_access_key", "must be provided")
}

// TableRef is a source table of the form <bucket_name>/<file_glob>, split at
// the first slash. The glob uses object-key separators: * stops at /, **
// crosses any number of path segments.
type TableRef struct {
	Bucket string `json:"source_bucket"`
	Glob   string `json:"source_glob"`
}

func ParseTableRef(raw string) (TableRef, error) {
	bucket, glob, found := strings.Cut(raw, "/")
	if !found {
		return TableRef{}, fmt.Errorf("source table %q must be of the form <bucket_name>/<file_glob>", raw)
	}
	return TableRef{Bucket: bucket, Glob: glob}, nil
}

func ValidateTableRef(v *validator.Validator, ref TableRef) {
	v.Check(ref.Bucket != "", "source_table", "bucket name must be provided")
	v.Check(ref.Glob != "", "source_table", "file glob must be provided")
	if ref.Glob != "" {
		v.Check(doublestar.ValidatePattern(ref.Glob), "source_table", "file glob is malformed")
	}
}

func (t TableRef) String() string {
	return t.Bucket + "/" + t.Glob
}

// MatchKey reports whether an object key is selected by the table's glob.
func (t TableRef) MatchKey(key string) bool {
	ok, err := doublestar.Match(t.Glob, key)
	if err != nil {
		return false
	}
	return ok
}

// ListPrefix returns the literal leading part of the glob, up to the last /
// before the first metacharacter. Passing it as the ListObjectsV2 prefix
// avoids walking the whole bucket for globs like myFolder/**/*.jsonl.
func (t TableRef) ListPrefix() string {
	i := strings.IndexAny(t.Glob, `*?[{\`)
	if i == -1 {
		return t.Glob
	}
	slash := strings.LastIndex(t.Glob[:i], "/")
	if slash == -1 {
		return ""
	}
	return t.Glob[:slash+1]
}
