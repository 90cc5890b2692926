package media

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// S3Gateway stores assets in a single S3 bucket.  Asset ids are object keys.
type S3Gateway struct {
	bucket   string
	uploader *s3manager.Uploader
	client   *s3.S3
}

// NewS3Gateway opens an AWS session for region.  Credentials come from the
// default provider chain (environment, shared config, instance role).
func NewS3Gateway(region, bucket string) (*S3Gateway, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return &S3Gateway{
		bucket:   bucket,
		uploader: s3manager.NewUploader(sess),
		client:   s3.New(sess),
	}, nil
}

// Upload streams the file at localPath into the bucket and removes it
// afterwards.
func (g *S3Gateway) Upload(ctx context.Context, localPath string, opts UploadOptions) (Asset, error) {
	defer removeLocal(ctx, localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return Asset{}, &UpstreamError{Op: "upload", Kind: opts.Kind, Err: err}
	}
	defer f.Close()

	key := objectKey(opts.Folder, localPath)
	input := &s3manager.UploadInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if ct := mime.TypeByExtension(filepath.Ext(localPath)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	res, err := g.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return Asset{}, &UpstreamError{Op: "upload", Kind: opts.Kind, Err: err}
	}
	return Asset{URL: res.Location, AssetID: key, Kind: opts.Kind}, nil
}

// Destroy deletes the object.  S3 deletes are idempotent.
func (g *S3Gateway) Destroy(ctx context.Context, assetID string, kind model.MediaKind) error {
	_, err := g.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(assetID),
	})
	if err != nil {
		return &UpstreamError{Op: "destroy", Kind: kind, Err: err}
	}
	return nil
}

// objectKey builds "<folder>/<uuid><ext>", keeping the extension so the
// stored URL still names the file type.
func objectKey(folder, localPath string) string {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(localPath))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}
