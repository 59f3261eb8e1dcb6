package loader

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Compression is the compression format of an upload.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

var compressionSuffixes = []string{".gz", ".bz2", ".xz"}

var (
	gzipMagic  = []byte{0x1f, 0x8b}
	bzip2Magic = []byte{0x42, 0x5a, 0x68}
	xzMagic    = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

func detectCompression(data []byte) Compression {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		return CompressionGzip
	case bytes.HasPrefix(data, bzip2Magic):
		return CompressionBzip2
	case bytes.HasPrefix(data, xzMagic):
		return CompressionXZ
	}
	return CompressionNone
}

// decompress expands data, failing with ErrTooLarge past limit bytes.
func decompress(data []byte, c Compression, limit int64) ([]byte, error) {
	var r io.Reader
	src := bytes.NewReader(data)

	switch c {
	case CompressionGzip:
		gz, err := gzip.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create gzip reader")
		}
		defer gz.Close()
		r = gz
	case CompressionBzip2:
		r = bzip2.NewReader(src)
	case CompressionXZ:
		xr, err := xz.NewReader(src)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create xz reader")
		}
		r = xr
	default:
		return data, nil
	}

	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, errors.Wrapf(ErrTooLarge, "expands past %d bytes", limit)
	}
	return out, nil
}
