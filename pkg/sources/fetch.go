package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the object-store surface the fetcher needs.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Fetcher resolves source URIs to local files, caching downloads under a
// single directory keyed by file name.
type Fetcher struct {
	s3Client   S3API
	httpClient *http.Client
	cacheDir   string
}

// NewFetcher caches under dir; an empty dir falls back to the OS temp
// directory.
func NewFetcher(s3Client S3API, dir string) *Fetcher {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "wayfarer")
	}
	return &Fetcher{
		s3Client:   s3Client,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		cacheDir:   dir,
	}
}

// Fetch returns a local path for the source: local paths verbatim, remote
// sources downloaded into the cache. Cached object-store files are reused
// when their ETag still matches the remote.
func (f *Fetcher) Fetch(ctx context.Context, source string) (string, error) {
	uri, err := ParseURI(source)
	if err != nil {
		return "", err
	}
	switch uri.Scheme {
	case SchemeLocal:
		if _, err := os.Stat(uri.Raw); err != nil {
			return "", fmt.Errorf("local source: %w", err)
		}
		return uri.Raw, nil
	case SchemeHTTP:
		return f.fetchHTTP(ctx, uri)
	case SchemeS3:
		return f.fetchS3(ctx, uri)
	default:
		return "", fmt.Errorf("unsupported source %q", source)
	}
}

func (f *Fetcher) cachePath(uri URI) (string, error) {
	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache dir: %w", err)
	}
	return filepath.Join(f.cacheDir, uri.Base()), nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, uri URI) (string, error) {
	dest, err := f.cachePath(uri)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(dest); err == nil {
		slog.Debug("reusing cached download", "source", uri.Raw, "path", dest)
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri.Raw, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating download request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", uri.Raw, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: unexpected status %d", uri.Raw, resp.StatusCode)
	}
	return dest, writeAtomic(dest, resp.Body)
}

func (f *Fetcher) fetchS3(ctx context.Context, uri URI) (string, error) {
	if f.s3Client == nil {
		return "", fmt.Errorf("no object-store client for %s", uri.Raw)
	}
	dest, err := f.cachePath(uri)
	if err != nil {
		return "", err
	}

	head, err := f.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return "", fmt.Errorf("heading %s: %w", uri.Raw, err)
	}

	if _, statErr := os.Stat(dest); statErr == nil {
		local, etagErr := ComputeETag(dest)
		if etagErr == nil && SameETag(local, aws.ToString(head.ETag)) {
			slog.Debug("reusing cached object", "source", uri.Raw, "etag", local)
			return dest, nil
		}
	}

	obj, err := f.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(uri.Bucket),
		Key:    aws.String(uri.Key),
	})
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", uri.Raw, err)
	}
	defer obj.Body.Close()

	slog.Info("downloading object", "source", uri.Raw, "bytes", aws.ToInt64(obj.ContentLength))
	return dest, writeAtomic(dest, obj.Body)
}

// writeAtomic lands the stream next to dest and renames it into place so a
// torn download never poisons the cache.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".part-*")
	if err != nil {
		return fmt.Errorf("creating download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing download: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing download: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("committing download: %w", err)
	}
	return nil
}
