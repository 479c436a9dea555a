// Package device provides sector access to disks and disk images.
package device

import (
	"io"
	"io/fs"
	"os"

	"github.com/diskfs/go-diskfs/backend"
	befile "github.com/diskfs/go-diskfs/backend/file"
	"github.com/pkg/errors"

	"mmcfdisk/internal/image/partition"
)

const SectorSize = partition.SectorSize

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrReadOnly       = errors.New("device opened read-only")
)

// Device is a 512-byte sector addressable disk.
type Device interface {
	ReadSector(index int64) ([]byte, error)
	WriteSector(index int64, b []byte) error
	TotalBlocks() (int64, error)
}

// Image is a Device backed by a regular image file or a block device node.
type Image struct {
	path     string
	storage  backend.Storage
	readOnly bool
}

// Open opens path as a device. A missing path yields ErrDeviceNotFound.
func Open(path string, readOnly bool) (*Image, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrap(ErrDeviceNotFound, path)
		}
		return nil, err
	}
	s, err := befile.OpenFromPath(path, readOnly)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &Image{path: path, storage: s, readOnly: readOnly}, nil
}

// Create makes a zero-filled image file holding blocks sectors. It fails if
// path already exists.
func Create(path string, blocks int64) (*Image, error) {
	if blocks <= 0 {
		return nil, errors.Errorf("create %s: invalid size of %d blocks", path, blocks)
	}
	s, err := befile.CreateFromPath(path, blocks*SectorSize)
	if err != nil {
		return nil, errors.Wrapf(err, "create %s", path)
	}
	return &Image{path: path, storage: s}, nil
}

func (d *Image) Path() string { return d.path }

func (d *Image) Close() error {
	return d.storage.Close()
}

func (d *Image) ReadSector(index int64) ([]byte, error) {
	b := make([]byte, SectorSize)
	n, err := d.storage.ReadAt(b, index*SectorSize)
	if err != nil && !(err == io.EOF && n == SectorSize) {
		return nil, errors.Wrapf(err, "read sector %d of %s", index, d.path)
	}
	return b, nil
}

func (d *Image) WriteSector(index int64, b []byte) error {
	if len(b) != SectorSize {
		return errors.Errorf("write sector %d: %d bytes, want %d", index, len(b), SectorSize)
	}
	if d.readOnly {
		return ErrReadOnly
	}
	w, err := d.storage.Writable()
	if err != nil {
		return errors.Wrapf(err, "write sector %d of %s", index, d.path)
	}
	if _, err := w.WriteAt(b, index*SectorSize); err != nil {
		return errors.Wrapf(err, "write sector %d of %s", index, d.path)
	}
	return nil
}

// TotalBlocks is the device size in 512-byte blocks. Device nodes report a
// zero stat size, so those are measured by seeking to the end.
func (d *Image) TotalBlocks() (int64, error) {
	fi, err := d.storage.Stat()
	if err != nil {
		return 0, errors.Wrapf(err, "stat %s", d.path)
	}
	size := fi.Size()
	if size == 0 {
		f, err := d.storage.Sys()
		if err != nil {
			return 0, errors.Wrapf(err, "size of %s", d.path)
		}
		if size, err = f.Seek(0, io.SeekEnd); err != nil {
			return 0, errors.Wrapf(err, "size of %s", d.path)
		}
	}
	return size / SectorSize, nil
}
