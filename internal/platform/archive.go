package platform

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

// decompress extracts archive into destination (or alongside archive when
// destination is empty), supporting .zip, .tar, .tar.gz/.tgz.
func decompress(ctx context.Context, services *Services, args map[string]any) (forgeerr.CommandResult, error) {
	archivePath, hasArchive := argString(args, "archive")
	if !hasArchive || archivePath == "" {
		return fail("decompress: missing archive")
	}
	dest := argStringDefault(args, "destination", "")
	if dest == "" {
		dest = strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	}

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", dest, err)
	}

	lower := strings.ToLower(archivePath)
	var err error
	switch {
	case strings.HasSuffix(lower, ".zip"):
		err = extractZip(archivePath, dest)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		err = extractTarGz(archivePath, dest)
	case strings.HasSuffix(lower, ".tar"):
		err = extractTar(archivePath, dest)
	default:
		return forgeerr.CommandResult{}, forgeerr.Wrap(forgeerr.ErrUnsupported, "unrecognized archive format %q", archivePath)
	}
	if err != nil {
		return forgeerr.CommandResult{}, err
	}
	return ok(dest), nil
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) && target != filepath.Clean(dest) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func extractZip(archivePath, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "open zip %q: %v", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return forgeerr.Wrap(forgeerr.ErrInvalidArgument, "%v", err)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", target, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", filepath.Dir(target), err)
		}
		if err := copyZipEntry(f, target); err != nil {
			return err
		}
	}
	return nil
}

func copyZipEntry(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "open entry %q: %v", f.Name, err)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "create %q: %v", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "write %q: %v", target, err)
	}
	return nil
}

func extractTar(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "open tar %q: %v", archivePath, err)
	}
	defer f.Close()
	return extractTarReader(f, dest)
}

func extractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "open tar.gz %q: %v", archivePath, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return forgeerr.Wrap(forgeerr.ErrInternal, "gunzip %q: %v", archivePath, err)
	}
	defer gz.Close()

	return extractTarReader(gz, dest)
}

func extractTarReader(r io.Reader, dest string) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return forgeerr.Wrap(forgeerr.ErrInternal, "read tar entry: %v", err)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return forgeerr.Wrap(forgeerr.ErrInvalidArgument, "%v", err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return forgeerr.Wrap(forgeerr.ErrInternal, "mkdir %q: %v", filepath.Dir(target), err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return forgeerr.Wrap(forgeerr.ErrInternal, "create %q: %v", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return forgeerr.Wrap(forgeerr.ErrInternal, "write %q: %v", target, err)
			}
			out.Close()
		}
	}
}
