package device

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.img"), true)
	assert.True(t, errors.Is(err, ErrDeviceNotFound))
}

func TestImageReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	img, err := Create(path, 64)
	require.NoError(t, err)

	n, err := img.TotalBlocks()
	require.NoError(t, err)
	assert.Equal(t, int64(64), n)

	sec := make([]byte, SectorSize)
	sec[0], sec[511] = 0xEB, 0xAA
	require.NoError(t, img.WriteSector(3, sec))
	require.NoError(t, img.Close())

	ro, err := Open(path, true)
	require.NoError(t, err)
	defer ro.Close()

	got, err := ro.ReadSector(3)
	require.NoError(t, err)
	assert.Equal(t, sec, got)

	zero, err := ro.ReadSector(0)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, SectorSize), zero)

	assert.Equal(t, ErrReadOnly, ro.WriteSector(0, sec))
}

func TestImageRejectsPartialSector(t *testing.T) {
	img, err := Create(filepath.Join(t.TempDir(), "disk.img"), 4)
	require.NoError(t, err)
	defer img.Close()
	assert.Error(t, img.WriteSector(0, make([]byte, 100)))
}

func TestCreateInvalidSize(t *testing.T) {
	_, err := Create(filepath.Join(t.TempDir(), "disk.img"), 0)
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	m := NewMemory(8)
	n, err := m.TotalBlocks()
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	b := make([]byte, SectorSize)
	b[10] = 7
	require.NoError(t, m.WriteSector(0, b))
	b[10] = 9 // the device keeps its own copy

	got, err := m.ReadSector(0)
	require.NoError(t, err)
	assert.Equal(t, byte(7), got[10])

	_, err = m.ReadSector(8)
	assert.Error(t, err)
	assert.Error(t, m.WriteSector(-1, b))

	m.WriteErr = errors.New("io error")
	assert.Equal(t, m.WriteErr, m.WriteSector(0, b))
}
