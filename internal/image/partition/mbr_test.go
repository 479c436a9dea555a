package partition

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmcfdisk/internal/geometry"
)

func lbaEntry(typ byte, start, count int64) Entry {
	return Entry{
		Type:       typ,
		Start:      geometry.CHSAddr{C: 0, H: 1, S: 1},
		End:        geometry.CHSAddr{C: 1023, H: 254, S: 63},
		BlockStart: start,
		BlockCount: count,
		BlockEnd:   start + count - 1,
	}
}

func TestEncodeLayout(t *testing.T) {
	e := Entry{
		Bootable:   0x80,
		Type:       TypeLinux,
		Start:      geometry.CHSAddr{C: 283, H: 0, S: 1},
		End:        geometry.CHSAddr{C: 560, H: 243, S: 31},
		BlockStart: 2140612,
		BlockCount: 2102792,
	}
	b := Encode(e)
	assert.Equal(t, [EntrySize]byte{
		0x80,
		0x00, 0x41, 0x1B,
		0x83,
		0xF3, 0x9F, 0x30,
		0xC4, 0xA9, 0x20, 0x00,
		0x08, 0x16, 0x20, 0x00,
	}, b)
}

func TestEncodeLBAPlaceholderCHS(t *testing.T) {
	b := Encode(lbaEntry(TypeFAT32LBA, 4841472, 26415280))
	// 1023 = 0x3FF: the two high bits go to the top of the sector byte
	assert.Equal(t, []byte{0x01, 0x01, 0x00}, b[1:4])
	assert.Equal(t, []byte{0xFE, 0xFF, 0xFF}, b[5:8])
	assert.Equal(t, byte(0x0C), b[4])
}

func TestDecode(t *testing.T) {
	in := lbaEntry(TypeLinux, 32768, 2097152)
	b := Encode(in)
	out := Decode(b[:])
	assert.Equal(t, in.Bootable, out.Bootable)
	assert.Equal(t, in.Type, out.Type)
	assert.Equal(t, in.BlockStart, out.BlockStart)
	assert.Equal(t, in.BlockCount, out.BlockCount)
	assert.Equal(t, in.BlockEnd, out.BlockEnd)
	assert.Equal(t, geometry.CHSAddr{}, out.Start)
	assert.Equal(t, geometry.CHSAddr{}, out.End)
}

func TestAssembleSignatureAndZeroFill(t *testing.T) {
	sec := Assemble(Table{})
	assert.True(t, Valid(sec))
	assert.Equal(t, byte(0x55), sec[510])
	assert.Equal(t, byte(0xAA), sec[511])
	assert.Equal(t, make([]byte, 510), sec[:510])
}

func TestAssembleSlotMapping(t *testing.T) {
	tbl := Table{
		lbaEntry(TypeLinux, 32768, 2097152),
		lbaEntry(TypeLinux, 2129920, 2097152),
		lbaEntry(TypeLinux, 4227072, 614400),
		lbaEntry(TypeFAT32LBA, 4841472, 26415280),
	}
	sec := Assemble(tbl)

	e3 := Encode(tbl[3])
	e0 := Encode(tbl[0])
	assert.Equal(t, e3[:], sec[0x1BE:0x1CE])
	assert.Equal(t, e0[:], sec[0x1CE:0x1DE])
	assert.Equal(t, byte(0x0C), sec[0x1BE+4])
	assert.Equal(t, byte(0x83), sec[0x1CE+4])

	// slot 1 is the end-of-disk partition, slots 2..4 hold entries 0..2
	want := []Entry{tbl[3], tbl[0], tbl[1], tbl[2]}
	for slot := 1; slot <= Slots; slot++ {
		got, err := Parse(sec, slot)
		require.NoError(t, err)
		assert.Equal(t, want[slot-1].BlockStart, got.BlockStart, "slot %d", slot)
		assert.Equal(t, want[slot-1].BlockCount, got.BlockCount, "slot %d", slot)
		assert.Equal(t, want[slot-1].Type, got.Type, "slot %d", slot)
	}

	rt := ReadTable(sec)
	for i := range rt {
		assert.Equal(t, want[i].BlockStart, rt[i].BlockStart)
		assert.Equal(t, want[i].BlockCount, rt[i].BlockCount)
	}
}

func TestParseInvalidSlot(t *testing.T) {
	sec := Assemble(Table{})
	for _, slot := range []int{0, -1, 5, 100} {
		_, err := Parse(sec, slot)
		assert.True(t, errors.Is(err, ErrInvalidSlot), "slot %d", slot)
		_, _, err = CHS(sec, slot)
		assert.True(t, errors.Is(err, ErrInvalidSlot), "slot %d", slot)
	}
}

func TestCHSRoundTrip(t *testing.T) {
	e := Entry{
		Type:  TypeLinux,
		Start: geometry.CHSAddr{C: 643, H: 0, S: 1},
		End:   geometry.CHSAddr{C: 1019, H: 243, S: 31},
	}
	sec := Assemble(Table{e, {}, {}, {}})
	start, end, err := CHS(sec, 2)
	require.NoError(t, err)
	assert.Equal(t, e.Start, start)
	assert.Equal(t, e.End, end)
}

func TestLoad(t *testing.T) {
	sec := Assemble(Table{lbaEntry(TypeLinux, 32768, 2097152)})
	buf := append(append([]byte{}, sec[:]...), make([]byte, 1024)...)

	got, err := Load(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, sec, got)

	_, err = Load(bytes.NewReader(buf[:100]))
	assert.Equal(t, ErrShortSector, err)
}

func TestFromBytes(t *testing.T) {
	_, err := FromBytes(make([]byte, 511))
	assert.True(t, errors.Is(err, ErrShortSector))

	sec, err := FromBytes(make([]byte, 600))
	require.NoError(t, err)
	assert.False(t, Valid(sec))
}

func TestEntryEmpty(t *testing.T) {
	assert.True(t, Entry{}.Empty())
	assert.True(t, Entry{BlockStart: 10}.Empty())
	assert.False(t, Entry{BlockStart: 10, BlockCount: 2048}.Empty())
	assert.Equal(t, int64(1024), Entry{BlockCount: 2097152}.SizeMB())
}
