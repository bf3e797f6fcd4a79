package sources

import (
	"archive/tar"
	"compress/bzip2"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ExtractTarBz2 unpacks archive into dir. An entry already on disk with
// matching size and mtime is skipped, so re-extraction of an unchanged
// archive is cheap.
func ExtractTarBz2(archive, dir string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if err := extractTar(bzip2.NewReader(f), dir); err != nil {
		return fmt.Errorf("archive %s: %w", archive, err)
	}
	return nil
}

// extractTar walks a tar stream into dir.
func extractTar(r io.Reader, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating extraction dir: %w", err)
	}

	extracted, skipped := 0, 0
	reader := tar.NewReader(r)
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		dest, err := securePath(dir, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", dest, err)
			}
		case tar.TypeReg:
			if upToDate(dest, header) {
				skipped++
				continue
			}
			if err := extractFile(dest, header, reader); err != nil {
				return err
			}
			extracted++
		default:
			// symlinks and specials are not part of engine archives
			slog.Warn("skipping archive entry", "name", header.Name, "type", header.Typeflag)
		}
	}

	slog.Info("archive extracted", "dir", dir, "files", extracted, "unchanged", skipped)
	return nil
}

// upToDate reports whether the on-disk file already matches the archive
// entry by size and mtime.
func upToDate(dest string, header *tar.Header) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return info.Size() == header.Size && info.ModTime().Equal(header.ModTime)
}

func extractFile(dest string, header *tar.Header, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(header.Mode)&0o777)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("extracting %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	// carry the archive mtime so the next extraction can skip the file
	if err := os.Chtimes(dest, header.ModTime, header.ModTime); err != nil {
		return fmt.Errorf("stamping %s: %w", dest, err)
	}
	return nil
}

func securePath(dir, name string) (string, error) {
	dest := filepath.Join(dir, filepath.Clean(name))
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extraction dir", name)
	}
	return dest, nil
}
