package testutil

import (
	"archive/tar"
	"bytes"
	"crypto/md5" //nolint:gosec // dpkg md5sums format
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/debpkg"
)

// TarEntry is one regular file in a tarball.
type TarEntry struct {
	Name string
	Body string
}

// Tarball builds an uncompressed tar with a leading "./" directory and the
// entries in order.
func Tarball(t testing.TB, entries ...TarEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "./", Typeflag: tar.TypeDir, Mode: 0o755}))
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.Name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(e.Body)),
		}))
		_, err := tw.Write([]byte(e.Body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

// MD5Hex returns the hex md5 of s as it appears in a dpkg md5sums file.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec // dpkg md5sums format
	return hex.EncodeToString(sum[:])
}

// DebBuilder assembles synthetic binary packages.
type DebBuilder struct {
	control     []TarEntry
	data        []TarEntry
	compression debpkg.Compression
	md5sums     bool
}

// NewDebBuilder starts a package with the given control fields.
func NewDebBuilder(pkg, version string) *DebBuilder {
	return &DebBuilder{
		control: []TarEntry{{
			Name: "./control",
			Body: "Package: " + pkg + "\nVersion: " + version + "\nArchitecture: all\n",
		}},
		compression: debpkg.CompressionXz,
	}
}

// WithFile adds a file to the data member.
func (b *DebBuilder) WithFile(name, body string) *DebBuilder {
	b.data = append(b.data, TarEntry{Name: name, Body: body})
	return b
}

// WithCompression sets the data member codec (default xz).
func (b *DebBuilder) WithCompression(c debpkg.Compression) *DebBuilder {
	b.compression = c
	return b
}

// WithMD5Sums adds a control md5sums file covering every data file.
func (b *DebBuilder) WithMD5Sums() *DebBuilder {
	b.md5sums = true
	return b
}

// DataMemberName returns the ar member name the data tarball is stored under.
func (b *DebBuilder) DataMemberName() string {
	switch b.compression {
	case debpkg.CompressionGzip:
		return "data.tar.gz"
	case debpkg.CompressionXz:
		return "data.tar.xz"
	case debpkg.CompressionZstd:
		return "data.tar.zst"
	default:
		return "data.tar"
	}
}

// Build encodes the package.
func (b *DebBuilder) Build(t testing.TB) []byte {
	t.Helper()

	control := b.control
	if b.md5sums {
		var sums strings.Builder
		for _, e := range b.data {
			sums.WriteString(MD5Hex(e.Body) + "  " + strings.TrimPrefix(e.Name, "./") + "\n")
		}
		control = append(control, TarEntry{Name: "./md5sums", Body: sums.String()})
	}

	controlTar, err := debpkg.CompressionGzip.Compress(Tarball(t, control...))
	require.NoError(t, err)
	dataTar, err := b.compression.Compress(Tarball(t, b.data...))
	require.NoError(t, err)

	pkg := &debpkg.Package{Members: []debpkg.Member{
		{Name: "debian-binary", Mode: 0o100644, Data: []byte("2.0\n")},
		{Name: "control.tar.gz", Mode: 0o100644, Data: controlTar},
		{Name: b.DataMemberName(), Mode: 0o100644, Data: dataTar},
	}}
	out, err := pkg.Bytes()
	require.NoError(t, err)
	return out
}
