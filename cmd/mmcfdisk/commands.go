package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mmcfdisk/internal/compress"
	"mmcfdisk/internal/core"
	"mmcfdisk/internal/device"
	"mmcfdisk/internal/fdisk"
	"mmcfdisk/internal/geometry"
	"mmcfdisk/internal/image/partition"
	"mmcfdisk/internal/tui/view"
)

func runCreate(path string, opts fdisk.Options) error {
	dev, err := device.Open(path, false)
	if err != nil {
		return err
	}
	defer dev.Close()

	log.Debugf("%s: media=%s", path, opts.Media)
	r, err := fdisk.Create(dev, opts)
	if err != nil {
		return err
	}
	return fdisk.Print(os.Stdout, r.Sector)
}

func runPrint(path string) error {
	dev, err := device.Open(path, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	sec, err := fdisk.ReadSector(dev)
	if err != nil {
		return err
	}
	if !partition.Valid(sec) {
		log.Warnf("%s: no boot signature", path)
	}
	return fdisk.Print(os.Stdout, sec)
}

func runView(path string) error {
	dev, err := device.Open(path, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	total, err := dev.TotalBlocks()
	if err != nil {
		return err
	}
	sec, err := fdisk.ReadSector(dev)
	if err != nil {
		return err
	}
	return view.Run(filepath.Base(path), geometry.Resolve(total), sec)
}

// runNew creates a blank image file of the given size.
func runNew(path, size string) error {
	n, err := core.ParseSize(size)
	if err != nil {
		return err
	}
	img, err := core.CreateImage(path, n)
	if err != nil {
		return err
	}
	blocks, err := img.TotalBlocks()
	if err != nil {
		_ = img.Close()
		return err
	}
	if err := img.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	log.Infof("%s: %d blocks", filepath.Base(path), blocks)
	return nil
}

// backupName is the file backup writes to when no output is given.
func backupName(comp string) string {
	return "mbr" + compress.Ext(comp)
}

// runBackup saves sector 0 of path to out, compressed with comp.
func runBackup(path, out, comp string) error {
	if out == "" {
		out = backupName(comp)
	}
	dev, err := device.Open(path, true)
	if err != nil {
		return err
	}
	defer dev.Close()

	sec, err := fdisk.ReadSector(dev)
	if err != nil {
		return err
	}
	data, err := compress.Compress(sec[:], comp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", out)
	}
	log.Infof("%s: boot sector saved to %s (%s, %d bytes)", path, out, compress.Normalize(comp), len(data))
	return nil
}

// decodeBackup undoes comp, or the codec found by its magic when comp is
// empty. lzma streams carry no magic, so a short unrecognised payload is
// read as lzma.
func decodeBackup(data []byte, comp string) ([]byte, string, error) {
	if comp == "" {
		if compress.Detect(data) != "none" || len(data) >= partition.SectorSize {
			return compress.DecompressAuto(data)
		}
		comp = "lzma"
	}
	raw, err := compress.Decompress(data, comp)
	return raw, compress.Normalize(comp), err
}

// runRestore writes a backup made by runBackup to sector 0 of path. An
// empty comp detects the codec from the backup contents.
func runRestore(path, in, comp string) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "read %s", in)
	}
	raw, kind, err := decodeBackup(data, comp)
	if err != nil {
		return err
	}
	sec, err := partition.Load(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrapf(err, "%s: %d bytes (%s)", in, len(raw), kind)
	}
	if !partition.Valid(sec) {
		return errors.Wrap(partition.ErrBadSignature, in)
	}

	dev, err := device.Open(path, false)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.WriteSector(0, sec[:]); err != nil {
		return err
	}
	log.Infof("%s: boot sector restored from %s (%s)", path, in, kind)
	return nil
}
