package debpkg_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/debpkg"
	"github.com/felixgeelhaar/crostini-setup/internal/testutil"
)

const settingsPath = "./etc/gtk-3.0/settings.ini"

const settings = `[Settings]
gtk-theme-name=Adwaita
InhibitAllGtkDialogs=1
`

// buildDeb assembles a minimal package whose data member uses the given suffix.
func buildDeb(t *testing.T, dataSuffix string) []byte {
	t.Helper()

	codec, err := debpkg.CompressionFor("data" + dataSuffix)
	require.NoError(t, err)
	return testutil.NewDebBuilder("cros-ui-config", "0.15").
		WithCompression(codec).
		WithFile(settingsPath, settings).
		WithFile("./usr/share/doc/README", "docs\n").
		WithMD5Sums().
		Build(t)
}

func TestArchive_RoundTrip(t *testing.T) {
	t.Parallel()

	members := []debpkg.Member{
		{Name: "debian-binary", ModTime: 1700000000, Mode: 0o100644, Data: []byte("2.0\n")},
		{Name: "odd", UID: 1000, GID: 1000, Mode: 0o100600, Data: []byte("abc")},
		{Name: "empty", Mode: 0o100644, Data: []byte{}},
	}

	var buf bytes.Buffer
	require.NoError(t, debpkg.WriteArchive(&buf, members))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("!<arch>\n")))
	assert.Equal(t, 0, (buf.Len()-8)%2, "members are padded to even offsets")

	got, err := debpkg.ReadArchive(&buf)
	require.NoError(t, err)
	assert.Equal(t, members, got)
}

func TestArchive_HeaderLayoutMatchesDpkg(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, debpkg.WriteArchive(&buf, []debpkg.Member{
		{Name: "debian-binary", ModTime: 1700000000, Mode: 0o100644, Data: []byte("2.0\n")},
		{Name: "control.tar", Data: []byte("x")},
	}))

	want := "!<arch>\n" +
		"debian-binary   1700000000  0     0     100644  4         `\n" + "2.0\n" +
		"control.tar     0           0     0     100644  1         `\n" + "x\n"
	assert.Equal(t, want, buf.String())
}

func TestArchive_GNUNamesAndErrors(t *testing.T) {
	t.Parallel()

	raw := "!<arch>\n" + "debian-binary/  0           0     0     100644  4         `\n" + "2.0\n"
	got, err := debpkg.ReadArchive(bytes.NewReader([]byte(raw)))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "debian-binary", got[0].Name)

	_, err = debpkg.ReadArchive(bytes.NewReader([]byte("PK\x03\x04")))
	assert.ErrorIs(t, err, debpkg.ErrNotArchive)

	err = debpkg.WriteArchive(&bytes.Buffer{}, []debpkg.Member{{Name: "a-name-longer-than-16"}})
	assert.Error(t, err)
}

func TestOpen_RequiresDebianBinaryFirst(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, debpkg.WriteArchive(&buf, []debpkg.Member{{Name: "data.tar", Data: []byte{}}}))
	_, err := debpkg.Open(buf.Bytes())
	assert.ErrorIs(t, err, debpkg.ErrNotArchive)
}

func TestRewrite_PatchesSettingsForEveryCodec(t *testing.T) {
	t.Parallel()

	for _, suffix := range []string{".tar", ".tar.gz", ".tar.xz", ".tar.zst"} {
		t.Run(suffix, func(t *testing.T) {
			t.Parallel()

			out, err := debpkg.Rewrite(buildDeb(t, suffix), settingsPath, debpkg.PatchINIKey("InhibitAllGtkDialogs", "0"))
			require.NoError(t, err)

			pkg, err := debpkg.Open(out)
			require.NoError(t, err)
			require.Len(t, pkg.Members, 3)
			assert.Equal(t, "data"+suffix, pkg.Members[2].Name, "member order and codec are preserved")

			patched, err := pkg.ReadEntry(settingsPath)
			require.NoError(t, err)
			v, ok := debpkg.INIValue(patched, "InhibitAllGtkDialogs")
			assert.True(t, ok)
			assert.Equal(t, "0", v)
			theme, _ := debpkg.INIValue(patched, "gtk-theme-name")
			assert.Equal(t, "Adwaita", theme)

			readme, err := pkg.ReadEntry("usr/share/doc/README")
			require.NoError(t, err)
			assert.Equal(t, "docs\n", string(readme))
		})
	}
}

func TestRewrite_UpdatesMD5Sums(t *testing.T) {
	t.Parallel()

	pkg, err := debpkg.Open(buildDeb(t, ".tar.xz"))
	require.NoError(t, err)
	require.NoError(t, pkg.RewriteEntry(settingsPath, func([]byte) ([]byte, error) {
		return []byte("[Settings]\nInhibitAllGtkDialogs=0\n"), nil
	}))

	codec, err := debpkg.CompressionFor(pkg.Members[1].Name)
	require.NoError(t, err)
	raw, err := codec.Decompress(pkg.Members[1].Data)
	require.NoError(t, err)

	assert.Contains(t, string(raw), testutil.MD5Hex("[Settings]\nInhibitAllGtkDialogs=0\n")+"  etc/gtk-3.0/settings.ini")
	assert.Contains(t, string(raw), testutil.MD5Hex("docs\n")+"  usr/share/doc/README")
}

func TestRewrite_MissingEntry(t *testing.T) {
	t.Parallel()

	_, err := debpkg.Rewrite(buildDeb(t, ".tar.gz"), "./etc/missing.ini", debpkg.PatchINIKey("k", "v"))
	assert.ErrorIs(t, err, debpkg.ErrEntryNotFound)

	pkg, err := debpkg.Open(buildDeb(t, ".tar.gz"))
	require.NoError(t, err)
	_, err = pkg.ReadEntry("./etc/missing.ini")
	assert.ErrorIs(t, err, debpkg.ErrEntryNotFound)
}

func TestRewrite_TransformError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	_, err := debpkg.Rewrite(buildDeb(t, ".tar.gz"), settingsPath, func([]byte) ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCompressionFor(t *testing.T) {
	t.Parallel()

	c, err := debpkg.CompressionFor("data.tar.zst")
	require.NoError(t, err)
	assert.Equal(t, "zstd", c.String())

	_, err = debpkg.CompressionFor("data.tar.bz2")
	assert.ErrorIs(t, err, debpkg.ErrUnsupportedCompression)
}

func TestPatchINIKey_AddsMissingKey(t *testing.T) {
	t.Parallel()

	out, err := debpkg.PatchINIKey("InhibitAllGtkDialogs", "0")([]byte("[Settings]\ngtk-theme-name=Adwaita\n"))
	require.NoError(t, err)

	v, ok := debpkg.INIValue(out, "InhibitAllGtkDialogs")
	assert.True(t, ok)
	assert.Equal(t, "0", v)
	assert.Contains(t, string(out), "[Settings]")
}
