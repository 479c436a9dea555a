// Package compress wraps the codecs used for boot sector backups.
// Names: none|gzip|gz|zstd|zst|lz4|xz|lzma|bzip2|bz2
package compress

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

var ErrUnsupported = errors.New("compression: unsupported codec")

// Normalize maps aliases to canonical codec names.
func Normalize(name string) string {
	switch name {
	case "", "none", "raw":
		return "none"
	case "gz":
		return "gzip"
	case "zst":
		return "zstd"
	case "bz2":
		return "bzip2"
	default:
		return name
	}
}

// Ext is the conventional file suffix for a codec, including the dot.
func Ext(name string) string {
	switch Normalize(name) {
	case "gzip":
		return ".gz"
	case "zstd":
		return ".zst"
	case "lz4":
		return ".lz4"
	case "xz":
		return ".xz"
	case "lzma":
		return ".lzma"
	case "bzip2":
		return ".bz2"
	default:
		return ""
	}
}

// Detect guesses the codec from magic bytes. lzma has no reliable magic and
// is reported as none.
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x1f, 0x8b}):
		return "gzip"
	case bytes.HasPrefix(data, []byte{0x28, 0xB5, 0x2F, 0xFD}):
		return "zstd"
	case bytes.HasPrefix(data, []byte{0x04, 0x22, 0x4D, 0x18}):
		return "lz4"
	case bytes.HasPrefix(data, []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}):
		return "xz"
	case bytes.HasPrefix(data, []byte("BZh")):
		return "bzip2"
	default:
		return "none"
	}
}

// DecompressAuto decompresses data according to its magic.
func DecompressAuto(data []byte) ([]byte, string, error) {
	kind := Detect(data)
	out, err := Decompress(data, kind)
	return out, kind, err
}

func Decompress(data []byte, name string) ([]byte, error) {
	name = Normalize(name)
	if name == "none" {
		return data, nil
	}
	r, err := newReader(name, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s reader", name)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s decompress", name)
	}
	return out, nil
}

func Compress(data []byte, name string) ([]byte, error) {
	name = Normalize(name)
	if name == "none" {
		return data, nil
	}
	var buf bytes.Buffer
	w, err := newWriter(name, &buf)
	if err != nil {
		return nil, errors.Wrapf(err, "%s writer", name)
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, errors.Wrapf(err, "%s compress", name)
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrapf(err, "%s compress", name)
	}
	return buf.Bytes(), nil
}

func newReader(name string, r io.Reader) (io.ReadCloser, error) {
	switch name {
	case "gzip":
		return gzip.NewReader(r)
	case "zstd":
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case "lz4":
		return io.NopCloser(lz4.NewReader(r)), nil
	case "xz":
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	case "lzma":
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(lr), nil
	case "bzip2":
		return bzip2.NewReader(r, &bzip2.ReaderConfig{})
	default:
		return nil, ErrUnsupported
	}
}

func newWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch name {
	case "gzip":
		return gzip.NewWriter(w), nil
	case "zstd":
		return zstd.NewWriter(w)
	case "lz4":
		return lz4.NewWriter(w), nil
	case "xz":
		return xz.NewWriter(w)
	case "lzma":
		return lzma.NewWriter(w)
	case "bzip2":
		return bzip2.NewWriter(w, &bzip2.WriterConfig{})
	default:
		return nil, ErrUnsupported
	}
}
