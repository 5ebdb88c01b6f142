package data

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newS3Stub serves a single-page ListObjectsV2 response and records the
// prefix the client asked for.
func newS3Stub(t *testing.T, gotPrefix *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotPrefix = r.URL.Query().Get("prefix")
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
	<Name>my_bucket</Name>
	<IsTruncated>false</IsTruncated>
	<Contents><Key>students/a.csv</Key><Size>10</Size></Contents>
	<Contents><Key>students/sub/b.csv</Key><Size>20</Size></Contents>
	<Contents><Key>students/sub/</Key><Size>0</Size></Contents>
	<Contents><Key>students/c.jsonl</Key><Size>30</Size></Contents>
</ListBucketResult>`)
	}))
}

func newStubClient(t *testing.T, endpoint string) *s3.Client {
	t.Helper()
	source := Source{
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		Region:          "us-east-1",
		EndpointURL:     endpoint,
	}
	client, err := NewS3Client(context.Background(), source)
	require.NoError(t, err)
	return client
}

func TestListMatches(t *testing.T) {
	var gotPrefix string
	srv := newS3Stub(t, &gotPrefix)
	defer srv.Close()

	client := newStubClient(t, srv.URL)

	objects, err := ListMatches(context.Background(), client, TableRef{Bucket: "my_bucket", Glob: "students/**/*.csv"})
	require.NoError(t, err)

	// directory markers and non-matching keys are filtered out
	require.Len(t, objects, 2)
	assert.Equal(t, "students/a.csv", objects[0].Key)
	assert.Equal(t, int64(10), objects[0].Size)
	assert.Equal(t, "students/sub/b.csv", objects[1].Key)

	// the glob's literal lead-in narrows the listing
	assert.Equal(t, "students/", gotPrefix)
}

func TestListMatchesNoObjects(t *testing.T) {
	var gotPrefix string
	srv := newS3Stub(t, &gotPrefix)
	defer srv.Close()

	client := newStubClient(t, srv.URL)

	_, err := ListMatches(context.Background(), client, TableRef{Bucket: "my_bucket", Glob: "students/**/*.parquet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `match pattern "students/**/*.parquet"`)
}
