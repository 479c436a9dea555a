package partition

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"mmcfdisk/internal/geometry"
)

const (
	sigOffset = 510
	sig0      = 0x55
	sig1      = 0xAA
)

// slotOffsets maps slot 1..4 to its descriptor offset.
var slotOffsets = [Slots]int{0x1BE, 0x1CE, 0x1DE, 0x1EE}

// assembleOffsets is where Assemble stores logical entries 0..3. The last
// partition lands in the first slot; firmware reading these tables relies
// on that order.
var assembleOffsets = [Slots]int{0x1CE, 0x1DE, 0x1EE, 0x1BE}

// Encode packs e into its on-disk descriptor.
func Encode(e Entry) [EntrySize]byte {
	var b [EntrySize]byte
	b[0] = e.Bootable
	packCHS(b[1:4], e.Start)
	b[4] = e.Type
	packCHS(b[5:8], e.End)
	binary.LittleEndian.PutUint32(b[8:12], uint32(e.BlockStart))
	binary.LittleEndian.PutUint32(b[12:16], uint32(e.BlockCount))
	return b
}

// Decode recovers the boot flag, type and block range of a descriptor.
// CHS fields are not reconstructed.
func Decode(b []byte) Entry {
	e := Entry{
		Bootable:   b[0],
		Type:       b[4],
		BlockStart: int64(binary.LittleEndian.Uint32(b[8:12])),
		BlockCount: int64(binary.LittleEndian.Uint32(b[12:16])),
	}
	e.BlockEnd = e.BlockStart + e.BlockCount - 1
	return e
}

// Assemble builds a fresh boot sector holding t.
func Assemble(t Table) Sector {
	var sec Sector
	sec[sigOffset] = sig0
	sec[sigOffset+1] = sig1
	for i, e := range t {
		d := Encode(e)
		copy(sec[assembleOffsets[i]:], d[:])
	}
	return sec
}

// Parse decodes the descriptor in slot 1..4.
func Parse(sec Sector, slot int) (Entry, error) {
	if slot < 1 || slot > Slots {
		return Entry{}, errors.Wrapf(ErrInvalidSlot, "slot %d", slot)
	}
	off := slotOffsets[slot-1]
	return Decode(sec[off : off+EntrySize]), nil
}

// ReadTable decodes all four slots in slot order.
func ReadTable(sec Sector) Table {
	var t Table
	for i := range t {
		off := slotOffsets[i]
		t[i] = Decode(sec[off : off+EntrySize])
	}
	return t
}

// Valid reports whether sec carries the 0x55AA boot signature.
func Valid(sec Sector) bool {
	return sec[sigOffset] == sig0 && sec[sigOffset+1] == sig1
}

// packCHS writes head, sector with cylinder bits 8-9 folded into its top
// two bits, then the low cylinder byte.
func packCHS(b []byte, a geometry.CHSAddr) {
	b[0] = byte(a.H)
	b[1] = byte(a.S + ((a.C & 0x300) >> 2))
	b[2] = byte(a.C & 0xFF)
}

// CHS returns the packed start and end coordinates stored in slot 1..4.
func CHS(sec Sector, slot int) (start, end geometry.CHSAddr, err error) {
	if slot < 1 || slot > Slots {
		return start, end, errors.Wrapf(ErrInvalidSlot, "slot %d", slot)
	}
	off := slotOffsets[slot-1]
	return unpackCHS(sec[off+1 : off+4]), unpackCHS(sec[off+5 : off+8]), nil
}

func unpackCHS(b []byte) geometry.CHSAddr {
	return geometry.CHSAddr{
		H: int(b[0]),
		S: int(b[1] & 0x3F),
		C: int(b[2]) | int(b[1]&0xC0)<<2,
	}
}
