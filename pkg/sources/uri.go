// Package sources fetches region data files (poly boundaries, address
// books, routing-engine archives) from their configured locations and
// caches them locally.
package sources

import (
	"fmt"
	"net/url"
	"strings"
)

// Scheme is where a source lives.
type Scheme int

const (
	SchemeLocal Scheme = iota
	SchemeHTTP
	SchemeS3
)

// URI is a parsed source location.
type URI struct {
	Scheme Scheme

	// Raw is the original string; for local sources it is the path.
	Raw string

	// Bucket and Key are set for s3 sources.
	Bucket string
	Key    string
}

// ParseURI classifies a source entry. Anything without a recognized scheme
// is a local path.
func ParseURI(s string) (URI, error) {
	if s == "" {
		return URI{}, fmt.Errorf("empty source")
	}
	switch {
	case strings.HasPrefix(s, "http://"), strings.HasPrefix(s, "https://"):
		if _, err := url.Parse(s); err != nil {
			return URI{}, fmt.Errorf("parsing source %q: %w", s, err)
		}
		return URI{Scheme: SchemeHTTP, Raw: s}, nil
	case strings.HasPrefix(s, "s3://"):
		rest := strings.TrimPrefix(s, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || key == "" {
			return URI{}, fmt.Errorf("s3 source %q needs bucket and key", s)
		}
		return URI{Scheme: SchemeS3, Raw: s, Bucket: bucket, Key: key}, nil
	default:
		return URI{Scheme: SchemeLocal, Raw: s}, nil
	}
}

// Base returns the file name component of the source.
func (u URI) Base() string {
	raw := u.Raw
	if u.Scheme == SchemeS3 {
		raw = u.Key
	}
	if u.Scheme == SchemeHTTP {
		if parsed, err := url.Parse(raw); err == nil {
			raw = parsed.Path
		}
	}
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		raw = raw[i+1:]
	}
	return raw
}
