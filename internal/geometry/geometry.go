// Package geometry infers the legacy addressing mode and CHS geometry of a
// disk from its 512-byte block count.
package geometry

import "fmt"

// Mode is the descriptor addressing mode used for a disk.
type Mode int

const (
	CHS Mode = iota
	LBA
)

func (m Mode) String() string {
	switch m {
	case CHS:
		return "CHS"
	case LBA:
		return "LBA"
	default:
		return "unknown"
	}
}

const (
	MaxCylinder = 1023
	MaxHead     = 255
	MaxSector   = 63

	// LBAThreshold is the block count (about 8.4 GB) from which CHS
	// addressing can no longer describe the disk.
	LBAThreshold = 1023 * 254 * 63

	lbaHeads = 254
)

// CHSAddr is a cylinder/head/sector triple.
type CHSAddr struct {
	C, H, S int
}

func (a CHSAddr) String() string {
	return fmt.Sprintf("%d/%d/%d", a.C, a.H, a.S)
}

// Geometry is computed once per disk and never modified afterwards.
type Geometry struct {
	Mode  Mode
	Start CHSAddr
	End   CHSAddr

	// Unit is heads*sectors, the alignment granularity of CHS partitions.
	Unit            int64
	TotalBlocks     int64
	AvailableBlocks int64
}

// Resolve picks the addressing mode for totalBlocks and, for CHS disks,
// searches the head/sector grid for the cylinder count closest to 1023.
// Ties resolve to the last candidate visited.
func Resolve(totalBlocks int64) Geometry {
	g := Geometry{
		Start:       CHSAddr{C: 0, H: 1, S: 1},
		TotalBlocks: totalBlocks,
	}

	if totalBlocks >= LBAThreshold {
		g.Mode = LBA
		g.End = CHSAddr{C: MaxCylinder, H: lbaHeads, S: MaxSector}
	} else {
		g.Mode = CHS
		diffMin := int64(MaxCylinder)
		for h := 1; h <= MaxHead; h++ {
			for s := 1; s <= MaxSector; s++ {
				c := totalBlocks / int64(h*s)
				if c > MaxCylinder {
					continue
				}
				if diff := MaxCylinder - c; diff <= diffMin {
					diffMin = diff
					g.End = CHSAddr{C: int(c), H: h, S: s}
				}
			}
		}
	}

	g.Unit = int64(g.End.H) * int64(g.End.S)
	g.AvailableBlocks = int64(g.End.C) * g.Unit
	return g
}

// UsableBlocks is the block count the end-of-disk partition is measured
// against: the CHS-addressable capacity, or the real size for LBA disks.
func (g Geometry) UsableBlocks() int64 {
	if g.Mode == LBA {
		return g.TotalBlocks
	}
	return g.AvailableBlocks
}

func (g Geometry) String() string {
	return fmt.Sprintf("%s C/H/S=%s unit=%d total=%d available=%d",
		g.Mode, g.End, g.Unit, g.TotalBlocks, g.AvailableBlocks)
}
