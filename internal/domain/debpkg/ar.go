// Package debpkg edits Debian binary packages in process: the ar container,
// the compressed tar members inside it, and individual files in those tars.
package debpkg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blakesmith/ar"
)

const arMagic = "!<arch>\n"

// ErrNotArchive is returned for input that does not start with the ar magic.
var ErrNotArchive = errors.New("not an ar archive")

// Member is one file inside an ar archive. Mode carries the file type bits
// the way ar headers store them, e.g. 0o100644.
type Member struct {
	Name    string
	ModTime int64
	UID     int
	GID     int
	Mode    int64
	Data    []byte
}

// ReadArchive reads every member of an ar archive in order.
func ReadArchive(r io.Reader) ([]Member, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(len(arMagic)); err != nil || string(magic) != arMagic {
		return nil, ErrNotArchive
	}

	var members []Member
	rd := ar.NewReader(br)
	for {
		hdr, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return members, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read member header: %v", ErrNotArchive, err)
		}
		if hdr.Size < 0 {
			return nil, fmt.Errorf("%w: member %s size %d", ErrNotArchive, hdr.Name, hdr.Size)
		}

		m := Member{
			// GNU ar terminates names with a slash; dpkg-deb does not.
			Name:    strings.TrimSuffix(hdr.Name, "/"),
			ModTime: hdr.ModTime.Unix(),
			UID:     hdr.Uid,
			GID:     hdr.Gid,
			Mode:    hdr.Mode,
			Data:    make([]byte, hdr.Size),
		}
		if _, err := io.ReadFull(rd, m.Data); err != nil {
			return nil, fmt.Errorf("read member %s: %w", m.Name, err)
		}
		members = append(members, m)
	}
}

// WriteArchive writes members as an ar archive in the given order.
func WriteArchive(w io.Writer, members []Member) error {
	aw := ar.NewWriter(w)
	if err := aw.WriteGlobalHeader(); err != nil {
		return err
	}
	for _, m := range members {
		if len(m.Name) > 16 {
			return fmt.Errorf("member name %q longer than 16 bytes", m.Name)
		}
		// The writer supplies the regular-file type bits itself.
		perm := m.Mode & 0o7777
		if perm == 0 {
			perm = 0o644
		}
		hdr := &ar.Header{
			Name:    m.Name,
			ModTime: time.Unix(m.ModTime, 0),
			Uid:     m.UID,
			Gid:     m.GID,
			Mode:    perm,
			Size:    int64(len(m.Data)),
		}
		if err := aw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("write member %s: %w", m.Name, err)
		}
		// One write per member so the odd-size pad byte follows the data.
		if _, err := aw.Write(m.Data); err != nil {
			return fmt.Errorf("write member %s: %w", m.Name, err)
		}
	}
	return nil
}

// Package is a parsed .deb file.
type Package struct {
	Members []Member
}

// Open parses a .deb file.
func Open(data []byte) (*Package, error) {
	members, err := ReadArchive(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if len(members) == 0 || members[0].Name != "debian-binary" {
		return nil, fmt.Errorf("%w: first member must be debian-binary", ErrNotArchive)
	}
	return &Package{Members: members}, nil
}

// Bytes serializes the package.
func (p *Package) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArchive(&buf, p.Members); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Member returns the index of the first member whose name starts with
// prefix, or -1.
func (p *Package) Member(prefix string) int {
	for i, m := range p.Members {
		if strings.HasPrefix(m.Name, prefix) {
			return i
		}
	}
	return -1
}
