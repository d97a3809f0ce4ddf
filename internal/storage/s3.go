package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures remote access. Empty credentials fall back to the default AWS chain.
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Endpoint      string // S3-compatible endpoint, forces path-style addressing
	HTTPTimeout     time.Duration
}

// Remote fetches s3:// and http(s):// references into local files.
type Remote struct {
	opts Options
	http *http.Client

	once  sync.Once
	s3    *s3.Client
	s3Err error
}

// NewRemote creates a fetcher. The S3 client is only built when an s3:// reference is seen.
func NewRemote(opts Options) *Remote {
	if opts.HTTPTimeout <= 0 {
		opts.HTTPTimeout = 60 * time.Second
	}
	return &Remote{opts: opts, http: &http.Client{Timeout: opts.HTTPTimeout}}
}

// IsRemote reports whether ref names an object this package can fetch.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "s3://") || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// ParseS3URL splits s3://bucket/key.
func ParseS3URL(ref string) (bucket, key string, err error) {
	path := strings.TrimPrefix(ref, "s3://")
	slash := strings.Index(path, "/")
	if !strings.HasPrefix(ref, "s3://") || slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", ref)
	}
	return path[:slash], path[slash+1:], nil
}

// Fetch downloads ref into dst and returns the number of bytes written.
func (r *Remote) Fetch(ctx context.Context, ref string, dst *os.File) (int64, error) {
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return r.fetchS3(ctx, ref, dst)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return r.fetchHTTP(ctx, ref, dst)
	}
	return 0, fmt.Errorf("unsupported reference: %s", ref)
}

func (r *Remote) client(ctx context.Context) (*s3.Client, error) {
	r.once.Do(func() {
		var opts []func(*awscfg.LoadOptions) error
		if r.opts.Region != "" {
			opts = append(opts, awscfg.WithRegion(r.opts.Region))
		}
		if r.opts.AccessKeyID != "" && r.opts.SecretAccessKey != "" {
			opts = append(opts, awscfg.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(r.opts.AccessKeyID, r.opts.SecretAccessKey, "")))
		}
		cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			r.s3Err = fmt.Errorf("failed to load AWS config: %w", err)
			return
		}
		endpoint := r.opts.S3Endpoint
		r.s3 = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return r.s3, r.s3Err
}

func (r *Remote) fetchS3(ctx context.Context, ref string, dst *os.File) (int64, error) {
	bucket, key, err := ParseS3URL(ref)
	if err != nil {
		return 0, err
	}
	cli, err := r.client(ctx)
	if err != nil {
		return 0, err
	}

	n, err := manager.NewDownloader(cli).Download(ctx, dst, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to download from S3: %w", err)
	}
	log.Info().Str("bucket", bucket).Str("key", key).Int64("size", n).Msg("downloaded s3 object")
	return n, nil
}

func (r *Remote) fetchHTTP(ctx context.Context, url string, dst *os.File) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("http %d", resp.StatusCode)
	}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		return 0, err
	}
	log.Info().Str("url", url).Int64("size", n).Msg("downloaded http object")
	return n, nil
}
