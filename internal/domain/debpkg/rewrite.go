package debpkg

import (
	"archive/tar"
	"bufio"
	"bytes"
	"crypto/md5" //nolint:gosec // dpkg md5sums format
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEntryNotFound is returned when the requested path is not in the data member.
var ErrEntryNotFound = errors.New("entry not found in package")

// Transform rewrites the contents of one file.
type Transform func(content []byte) ([]byte, error)

// cleanPath strips the leading "./" or "/" that tar entries in packages carry.
func cleanPath(p string) string {
	return strings.TrimPrefix(strings.TrimPrefix(p, "./"), "/")
}

// ReadEntry returns the contents of a file in the data member.
func (p *Package) ReadEntry(path string) ([]byte, error) {
	idx := p.Member("data.tar")
	if idx < 0 {
		return nil, fmt.Errorf("%w: no data member", ErrEntryNotFound)
	}
	tarball, err := p.memberTar(idx)
	if err != nil {
		return nil, err
	}

	want := cleanPath(path)
	tr := tar.NewReader(bytes.NewReader(tarball))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p.Members[idx].Name, err)
		}
		if hdr.Typeflag == tar.TypeReg && cleanPath(hdr.Name) == want {
			return io.ReadAll(tr)
		}
	}
}

// RewriteEntry passes one file of the data member through fn and stores the
// result with the member's original compression. The matching md5sums line
// in the control member is updated when present.
func (p *Package) RewriteEntry(path string, fn Transform) error {
	idx := p.Member("data.tar")
	if idx < 0 {
		return fmt.Errorf("%w: no data member", ErrEntryNotFound)
	}

	var sum string
	err := p.rewriteMember(idx, func(hdr *tar.Header, content []byte) ([]byte, bool, error) {
		if hdr.Typeflag != tar.TypeReg || cleanPath(hdr.Name) != cleanPath(path) {
			return nil, false, nil
		}
		out, err := fn(content)
		if err != nil {
			return nil, false, fmt.Errorf("transform %s: %w", path, err)
		}
		digest := md5.Sum(out) //nolint:gosec // dpkg md5sums format
		sum = hex.EncodeToString(digest[:])
		return out, true, nil
	})
	if err != nil {
		return err
	}
	if sum == "" {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}

	return p.updateMD5Sum(cleanPath(path), sum)
}

// updateMD5Sum rewrites the md5sums line for path in the control member.
func (p *Package) updateMD5Sum(path, sum string) error {
	idx := p.Member("control.tar")
	if idx < 0 {
		return nil
	}
	return p.rewriteMember(idx, func(hdr *tar.Header, content []byte) ([]byte, bool, error) {
		if cleanPath(hdr.Name) != "md5sums" {
			return nil, false, nil
		}
		var out strings.Builder
		sc := bufio.NewScanner(bytes.NewReader(content))
		for sc.Scan() {
			line := sc.Text()
			if _, file, ok := strings.Cut(line, "  "); ok && file == path {
				line = sum + "  " + file
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
		if err := sc.Err(); err != nil {
			return nil, false, err
		}
		return []byte(out.String()), true, nil
	})
}

// entryFunc inspects one tar entry; returning true replaces its contents.
type entryFunc func(hdr *tar.Header, content []byte) ([]byte, bool, error)

// rewriteMember streams the tar in member idx through fn. The member is only
// re-encoded when fn replaced at least one entry.
func (p *Package) rewriteMember(idx int, fn entryFunc) error {
	m := &p.Members[idx]
	codec, err := CompressionFor(m.Name)
	if err != nil {
		return err
	}
	tarball, err := codec.Decompress(m.Data)
	if err != nil {
		return fmt.Errorf("decompress %s: %w", m.Name, err)
	}

	var out bytes.Buffer
	tr := tar.NewReader(bytes.NewReader(tarball))
	tw := tar.NewWriter(&out)
	changed := false

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", m.Name, err)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("read %s in %s: %w", hdr.Name, m.Name, err)
		}

		replaced, ok, err := fn(hdr, content)
		if err != nil {
			return err
		}
		if ok {
			content = replaced
			hdr.Size = int64(len(content))
			changed = true
		}

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write %s in %s: %w", hdr.Name, m.Name, err)
		}
		if _, err := tw.Write(content); err != nil {
			return fmt.Errorf("write %s in %s: %w", hdr.Name, m.Name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", m.Name, err)
	}
	if !changed {
		return nil
	}

	data, err := codec.Compress(out.Bytes())
	if err != nil {
		return fmt.Errorf("compress %s: %w", m.Name, err)
	}
	m.Data = data
	return nil
}

func (p *Package) memberTar(idx int) ([]byte, error) {
	m := p.Members[idx]
	codec, err := CompressionFor(m.Name)
	if err != nil {
		return nil, err
	}
	tarball, err := codec.Decompress(m.Data)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", m.Name, err)
	}
	return tarball, nil
}

// Rewrite is a convenience over Open, RewriteEntry and Bytes.
func Rewrite(deb []byte, path string, fn Transform) ([]byte, error) {
	pkg, err := Open(deb)
	if err != nil {
		return nil, err
	}
	if err := pkg.RewriteEntry(path, fn); err != nil {
		return nil, err
	}
	return pkg.Bytes()
}
