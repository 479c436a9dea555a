// Package layout turns partition sizes into CHS/LBA descriptors for a
// resolved disk geometry.
package layout

import (
	"mmcfdisk/internal/geometry"
	"mmcfdisk/internal/image/partition"
)

const (
	BlockSize = partition.SectorSize

	// ToEnd requests a partition running up to the end-of-disk slack.
	ToEnd int64 = -1

	// SlackSize is left unallocated after the last partition.
	SlackSize = 10 * 1024 * 1024
)

// Blocks converts a length in bytes to a block count. CHS disks round to
// one unit past the truncated quotient, so an exact multiple still gains a
// whole cylinder.
func Blocks(length uint64, g geometry.Geometry) int64 {
	n := int64(length / BlockSize)
	if g.Mode == geometry.CHS {
		return (n/g.Unit + 1) * g.Unit
	}
	return n
}

// SlackBlocks is the number of trailing blocks kept free on the disk.
func SlackBlocks(g geometry.Geometry) int64 {
	return Blocks(SlackSize, g)
}

// Plan describes a partition starting at block start holding count blocks,
// or reaching the end-of-disk slack when count is ToEnd. Nothing is
// validated: a range past the end of the disk yields an invalid entry.
func Plan(start, count int64, g geometry.Geometry) partition.Entry {
	e := partition.Entry{BlockStart: start}

	if count == ToEnd {
		e.BlockEnd = g.UsableBlocks() - SlackBlocks(g) - 1
		e.BlockCount = e.BlockEnd - e.BlockStart + 1
	} else {
		e.BlockCount = count
		e.BlockEnd = e.BlockStart + count - 1
	}

	if g.Mode == geometry.LBA {
		e.Start = g.Start
		e.End = g.End
		return e
	}

	e.Start = toCHS(e.BlockStart, g)
	if count == ToEnd {
		// the last partition always closes on a full cylinder
		e.End = geometry.CHSAddr{
			C: int(e.BlockEnd / g.Unit),
			H: g.End.H - 1,
			S: g.End.S,
		}
	} else {
		e.End = toCHS(e.BlockEnd, g)
	}
	return e
}

func toCHS(block int64, g geometry.Geometry) geometry.CHSAddr {
	sectors := int64(g.End.S)
	rem := block % g.Unit
	return geometry.CHSAddr{
		C: int(block / g.Unit),
		H: int(rem / sectors),
		S: int(rem%sectors + 1),
	}
}
