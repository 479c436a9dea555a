// Package core holds size parsing and image file helpers shared by the
// command line front-end.
package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"

	"mmcfdisk/internal/device"
)

var (
	ErrBadSizeSyntax = errors.New("bad size syntax")
	ErrImageExists   = errors.New("image already exists")
)

// ParseSize parses a byte count with an optional K, M or G suffix.
func ParseSize(s string) (uint64, error) {
	ss := strings.ToUpper(strings.TrimSpace(s))
	if ss == "" {
		return 0, ErrBadSizeSyntax
	}
	mul := uint64(1)
	switch {
	case strings.HasSuffix(ss, "K"):
		mul = 1024
		ss = strings.TrimSuffix(ss, "K")
	case strings.HasSuffix(ss, "M"):
		mul = 1024 * 1024
		ss = strings.TrimSuffix(ss, "M")
	case strings.HasSuffix(ss, "G"):
		mul = 1024 * 1024 * 1024
		ss = strings.TrimSuffix(ss, "G")
	}
	var v uint64
	var rest string
	if n, _ := fmt.Sscanf(ss, "%d%s", &v, &rest); n != 1 {
		return 0, errors.Wrapf(ErrBadSizeSyntax, "%q", s)
	}
	return v * mul, nil
}

// ParseMB parses a plain count of mebibytes, as given for partition
// overrides on the command line.
func ParseMB(s string) (uint64, error) {
	var v uint64
	var rest string
	if n, _ := fmt.Sscanf(strings.TrimSpace(s), "%d%s", &v, &rest); n != 1 {
		return 0, errors.Wrapf(ErrBadSizeSyntax, "%q MB", s)
	}
	return v * 1024 * 1024, nil
}

// AlignUp rounds x up to a multiple of a.
func AlignUp(x, a uint64) uint64 {
	if a == 0 {
		return x
	}
	if r := x % a; r != 0 {
		return x + (a - r)
	}
	return x
}

// CreateImage makes a blank disk image of at least size bytes, rounded up
// to whole sectors.
func CreateImage(path string, size uint64) (*device.Image, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, errors.Wrap(ErrImageExists, path)
	}
	blocks := AlignUp(size, device.SectorSize) / device.SectorSize
	return device.Create(path, int64(blocks))
}
