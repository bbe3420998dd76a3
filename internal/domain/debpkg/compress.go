package debpkg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// ErrUnsupportedCompression is returned for a tar member with an unknown suffix.
var ErrUnsupportedCompression = errors.New("unsupported member compression")

// Compression identifies the codec of a tar member, chosen by file suffix.
type Compression int

// Supported codecs.
const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionXz
	CompressionZstd
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionXz:
		return "xz"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// CompressionFor returns the codec for a member name such as data.tar.xz.
func CompressionFor(name string) (Compression, error) {
	switch {
	case strings.HasSuffix(name, ".tar"):
		return CompressionNone, nil
	case strings.HasSuffix(name, ".tar.gz"):
		return CompressionGzip, nil
	case strings.HasSuffix(name, ".tar.xz"):
		return CompressionXz, nil
	case strings.HasSuffix(name, ".tar.zst"):
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedCompression, name)
	}
}

// Decompress returns the uncompressed member contents.
func (c Compression) Decompress(data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer func() { _ = zr.Close() }()
		return io.ReadAll(zr)
	case CompressionXz:
		xr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return io.ReadAll(xr)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
}

// Compress returns data encoded with the codec.
func (c Compression) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if _, err := zw.Write(data); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
	case CompressionXz:
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		if _, err := xw.Write(data); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		if err := xw.Close(); err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer func() { _ = enc.Close() }()
		return enc.EncodeAll(data, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCompression, c)
	}
	return buf.Bytes(), nil
}
