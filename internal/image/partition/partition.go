package partition

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"mmcfdisk/internal/geometry"
)

const (
	SectorSize = 512
	EntrySize  = 16
	Slots      = 4
)

// Partition type identifiers written by the table builder.
const (
	TypeLinux    byte = 0x83
	TypeFAT32LBA byte = 0x0C
)

var (
	ErrInvalidSlot  = errors.New("partition slot out of range")
	ErrBadSignature = errors.New("bad mbr signature")
	ErrShortSector  = errors.New("short mbr")
)

// Entry is one primary partition descriptor. Start and End are only
// meaningful on the write path; decoding leaves them zero.
type Entry struct {
	Bootable byte
	Type     byte

	Start geometry.CHSAddr
	End   geometry.CHSAddr

	BlockStart int64
	BlockCount int64
	BlockEnd   int64
}

func (e Entry) String() string {
	return fmt.Sprintf("type=0x%02X start=%d count=%d end=%d chs=%s-%s",
		e.Type, e.BlockStart, e.BlockCount, e.BlockEnd, e.Start, e.End)
}

// Empty reports whether the slot carries no usable partition.
func (e Entry) Empty() bool {
	return e.BlockStart == 0 || e.BlockCount == 0
}

// SizeMB is the partition size in MiB, truncated.
func (e Entry) SizeMB() int64 {
	return e.BlockCount / 2048
}

// Table is the fixed set of four primary descriptors in logical order.
type Table [Slots]Entry

// Sector is a complete master boot record.
type Sector [SectorSize]byte

// Load reads the first sector of r.
func Load(r io.ReadSeeker) (Sector, error) {
	var sec Sector
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return sec, err
	}
	if _, err := io.ReadFull(r, sec[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return sec, ErrShortSector
		}
		return sec, err
	}
	return sec, nil
}

// FromBytes copies a raw sector, rejecting anything shorter than 512 bytes.
func FromBytes(b []byte) (Sector, error) {
	var sec Sector
	if len(b) < SectorSize {
		return sec, errors.Wrapf(ErrShortSector, "%d bytes", len(b))
	}
	copy(sec[:], b)
	return sec, nil
}
