package sources

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// etagChunkSize matches the multipart upload part size the object store
// computes its ETags over.
const etagChunkSize = 8 << 20

// ComputeETag derives the object-store ETag of a local file: a plain MD5
// for single-chunk files, otherwise MD5 over the concatenated per-chunk
// digests with the chunk count as a "-N" suffix.
func ComputeETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var digests []byte
	chunks := 0
	for {
		h := md5.New()
		n, err := io.CopyN(h, f, etagChunkSize)
		if n > 0 {
			chunks++
			digests = append(digests, h.Sum(nil)...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hashing %s: %w", path, err)
		}
	}

	switch chunks {
	case 0:
		return hex.EncodeToString(md5.New().Sum(nil)), nil
	case 1:
		return hex.EncodeToString(digests), nil
	default:
		sum := md5.Sum(digests)
		return fmt.Sprintf("%s-%d", hex.EncodeToString(sum[:]), chunks), nil
	}
}

// SameETag compares a local digest against the remote header value, which
// arrives quoted.
func SameETag(local, remote string) bool {
	return local != "" && local == strings.Trim(remote, `"`)
}
