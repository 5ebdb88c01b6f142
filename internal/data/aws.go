package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Object is a bucket entry selected by the source table's glob.
type Object struct {
	Key  string `json:"object_key"`
	Size int64  `json:"object_size"`
	Rows int64  `json:"object_rows_loaded"`
}

// NewS3Client builds an S3 client from the source's static credentials. A
// custom endpoint switches the client to path-style addressing, which is what
// MinIO-style stores expect.
func NewS3Client(ctx context.Context, source Source) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(source.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(source.AccessKeyID, source.SecretAccessKey, source.SessionToken),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load aws config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if source.EndpointURL != "" {
			o.BaseEndpoint = aws.String(source.EndpointURL)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

// ListMatches walks the bucket with ListObjectsV2 and keeps the keys selected
// by the table's glob. Zero matches is an error so a typoed pattern does not
// complete as an empty ingestion.
func ListMatches(ctx context.Context, client *s3.Client, ref TableRef) ([]Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(ref.Bucket),
	}
	if prefix := ref.ListPrefix(); prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	objects := []Object{}
	paginator := s3.NewListObjectsV2Paginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("unable to list objects in bucket %v: %v", ref.Bucket, err)
		}
		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			if !ref.MatchKey(key) {
				continue
			}
			objects = append(objects, Object{Key: key, Size: aws.ToInt64(object.Size)})
		}
	}

	if len(objects) == 0 {
		return nil, fmt.Errorf("no objects in bucket %q match pattern %q", ref.Bucket, ref.Glob)
	}

	return objects, nil
}

// DownloadObject buffers a whole object in memory.
func DownloadObject(ctx context.Context, downloader *manager.Downloader, bucket, key string) ([]byte, error) {
	buf := manager.NewWriteAtBuffer([]byte{})

	_, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to download s3://%v/%v: %v", bucket, key, err)
	}

	return buf.Bytes(), nil
}
