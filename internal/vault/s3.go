package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"channels-go/internal/catalog"
	"channels-go/internal/config"
)

// versionMetadataKey is the user metadata entry holding the snapshot version.
const versionMetadataKey = "channels-version"

// S3Vault stores snapshots as objects under <prefix>/snapshots/<instanceID>/<name>.
// The version travels as object metadata so a HEAD request is enough to read it.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Vault builds the client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain. A custom
// endpoint switches to path-style addressing for S3-compatible services.
func NewS3Vault(ctx context.Context, cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(strings.TrimRight(cfg.S3Endpoint, "/"))
			o.UsePathStyle = true
		}
	})

	return &S3Vault{
		name:     cfg.Name,
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (v *S3Vault) objectKey(instanceID, name string) string {
	return path.Join(v.prefix, "snapshots", instanceID, name)
}

// PutSnapshot uploads the snapshot with the multipart uploader.
func (v *S3Vault) PutSnapshot(instanceID string, name string, r io.Reader, size int64, version int64) error {
	key := v.objectKey(instanceID, name)
	counter := &countingReader{r: r}

	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:   aws.String(v.bucket),
		Key:      aws.String(key),
		Body:     counter,
		Metadata: map[string]string{versionMetadataKey: strconv.FormatInt(version, 10)},
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s: %w", v.bucket, key, err)
	}
	if counter.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, counter.n)
	}
	return nil
}

// GetSnapshot streams the snapshot object to w.
func (v *S3Vault) GetSnapshot(instanceID string, name string, w io.Writer) error {
	key := v.objectKey(instanceID, name)

	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *s3types.NoSuchKey
		if errors.As(err, &noKey) {
			return fmt.Errorf("snapshot %q for instance %s: %w", name, instanceID, catalog.ErrSnapshotNotFound)
		}
		return fmt.Errorf("s3 download %s/%s: %w", v.bucket, key, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("s3 read body %s/%s: %w", v.bucket, key, err)
	}
	return nil
}

// GetSnapshotVersion reads the version from the object metadata.
// Returns 0 if the object does not exist.
func (v *S3Vault) GetSnapshotVersion(instanceID string, name string) (int64, error) {
	key := v.objectKey(instanceID, name)

	out, err := v.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *s3types.NotFound
		if errors.As(err, &notFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("s3 head %s/%s: %w", v.bucket, key, err)
	}

	return parseVersionMetadata(out.Metadata)
}

// ValidateSetup checks that the bucket exists and is reachable with the
// configured credentials.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

// parseVersionMetadata reads the version entry. S3 lower-cases metadata
// keys, so the lookup is case-insensitive.
func parseVersionMetadata(md map[string]string) (int64, error) {
	for k, val := range md {
		if strings.EqualFold(k, versionMetadataKey) {
			version, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if err != nil {
				return 0, fmt.Errorf("parsing version metadata %q: %w", val, err)
			}
			return version, nil
		}
	}
	return 0, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ catalog.Vault = (*S3Vault)(nil)
