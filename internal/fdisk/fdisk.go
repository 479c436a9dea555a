// Package fdisk lays out the fixed four-partition table used on SD/MMC
// boot media and reads it back.
//
// The table holds, in logical order, a system partition, a user-data
// partition and a cache partition (all type 0x83), followed by a FAT32 LBA
// partition (type 0x0C) that runs up to 10 MiB before the end of the disk.
// The first partition starts after the raw boot area at DiskStart.
package fdisk

import (
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mmcfdisk/internal/device"
	"mmcfdisk/internal/geometry"
	"mmcfdisk/internal/image/partition"
	"mmcfdisk/internal/layout"
)

const (
	MiB = 1024 * 1024
	GiB = 1024 * MiB

	DefaultDiskStart         = 16 * MiB
	DefaultSystemSize        = GiB
	DefaultUserDataSize      = GiB
	DefaultUserDataRemovable = 300 * MiB
	DefaultCacheSize         = 300 * MiB
)

var (
	ErrDiskTooSmall = errors.New("disk too small for partition layout")
	ErrDiskTooLarge = errors.New("disk too large for a 32-bit partition table")
)

// Media selects the default user-data size.
type Media int

const (
	Fixed     Media = iota // eMMC
	Removable              // SD/TF card
)

func (m Media) String() string {
	if m == Removable {
		return "removable"
	}
	return "fixed"
}

// Sizes are byte lengths of the first three partitions.
type Sizes struct {
	System   uint64
	UserData uint64
	Cache    uint64
}

// Defaults holds the policy sizes applied when no override is given.
type Defaults struct {
	DiskStart         uint64
	System            uint64
	UserData          uint64
	UserDataRemovable uint64
	Cache             uint64
}

var StandardDefaults = Defaults{
	DiskStart:         DefaultDiskStart,
	System:            DefaultSystemSize,
	UserData:          DefaultUserDataSize,
	UserDataRemovable: DefaultUserDataRemovable,
	Cache:             DefaultCacheSize,
}

// Options control a table build. A nil Sizes uses Defaults for all three
// sized partitions; a nil Defaults uses StandardDefaults.
type Options struct {
	Media    Media
	Sizes    *Sizes
	Defaults *Defaults
}

func (o Options) defaults() Defaults {
	if o.Defaults == nil {
		return StandardDefaults
	}
	return *o.Defaults
}

func (o Options) sizes() Sizes {
	if o.Sizes != nil {
		return *o.Sizes
	}
	d := o.defaults()
	s := Sizes{System: d.System, UserData: d.UserData, Cache: d.Cache}
	if o.Media == Removable {
		s.UserData = d.UserDataRemovable
	}
	return s
}

// Result is a planned table and its encoded boot sector.
type Result struct {
	Geometry geometry.Geometry
	Table    partition.Table
	Sector   partition.Sector
}

// Build plans the four partitions for a disk of totalBlocks and assembles
// the boot sector. It fails with ErrDiskTooSmall when nothing is left for
// the last partition, and with ErrDiskTooLarge when block numbers would not
// fit the 32-bit descriptor fields.
func Build(totalBlocks int64, opts Options) (*Result, error) {
	if totalBlocks > math.MaxUint32 {
		return nil, errors.Wrapf(ErrDiskTooLarge, "%d blocks", totalBlocks)
	}
	g := geometry.Resolve(totalBlocks)
	log.Debugf("geometry: %s", g)

	sizes := opts.sizes()
	start := layout.Blocks(opts.defaults().DiskStart, g)

	var t partition.Table
	for i, length := range []uint64{sizes.System, sizes.UserData, sizes.Cache} {
		t[i] = layout.Plan(start, layout.Blocks(length, g), g)
		t[i].Type = partition.TypeLinux
		start += t[i].BlockCount
	}
	t[3] = layout.Plan(start, layout.ToEnd, g)
	t[3].Type = partition.TypeFAT32LBA

	for i, e := range t {
		log.Debugf("partition %d: %s", i+1, e)
	}
	if t[3].BlockCount <= 0 {
		return nil, errors.Wrapf(ErrDiskTooSmall, "%d blocks, last partition would start at %d",
			totalBlocks, t[3].BlockStart)
	}

	return &Result{Geometry: g, Table: t, Sector: partition.Assemble(t)}, nil
}

// Create builds a table for dev and writes it to sector 0. On a failed
// write the computed table is still returned alongside the error.
func Create(dev device.Device, opts Options) (*Result, error) {
	total, err := dev.TotalBlocks()
	if err != nil {
		return nil, err
	}
	r, err := Build(total, opts)
	if err != nil {
		return nil, err
	}
	if err := dev.WriteSector(0, r.Sector[:]); err != nil {
		return r, errors.Wrap(err, "write partition table")
	}
	log.Infof("fdisk is completed")
	return r, nil
}

// ReadSector loads the boot sector of dev.
func ReadSector(dev device.Device) (partition.Sector, error) {
	b, err := dev.ReadSector(0)
	if err != nil {
		return partition.Sector{}, err
	}
	return partition.FromBytes(b)
}

// PartInfo returns the descriptor in slot 1..4 of dev.
func PartInfo(dev device.Device, slot int) (partition.Entry, error) {
	sec, err := ReadSector(dev)
	if err != nil {
		return partition.Entry{}, err
	}
	return partition.Parse(sec, slot)
}

// Print writes the partition listing of a boot sector. Empty slots are
// skipped.
func Print(w io.Writer, sec partition.Sector) error {
	t := partition.ReadTable(sec)
	if _, err := fmt.Fprintf(w, "\npartition #  size(MB)     block start #    block count    partition_Id \n"); err != nil {
		return err
	}
	for i, e := range t {
		if e.Empty() {
			continue
		}
		if _, err := fmt.Fprintf(w, "   %d        %6d         %8d        %8d          0x%.2X \n",
			i+1, e.SizeMB(), e.BlockStart, e.BlockCount, e.Type); err != nil {
			return err
		}
	}
	return nil
}
