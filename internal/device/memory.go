package device

import "github.com/pkg/errors"

// Memory is an in-memory Device. Sectors that were never written read as
// zeroes.
type Memory struct {
	blocks  int64
	sectors map[int64][]byte

	// WriteErr, when set, is returned by every WriteSector call.
	WriteErr error
}

func NewMemory(blocks int64) *Memory {
	return &Memory{blocks: blocks, sectors: map[int64][]byte{}}
}

func (m *Memory) ReadSector(index int64) ([]byte, error) {
	if index < 0 || index >= m.blocks {
		return nil, errors.Errorf("read sector %d: out of range (%d blocks)", index, m.blocks)
	}
	b := make([]byte, SectorSize)
	copy(b, m.sectors[index])
	return b, nil
}

func (m *Memory) WriteSector(index int64, b []byte) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	if index < 0 || index >= m.blocks {
		return errors.Errorf("write sector %d: out of range (%d blocks)", index, m.blocks)
	}
	if len(b) != SectorSize {
		return errors.Errorf("write sector %d: %d bytes, want %d", index, len(b), SectorSize)
	}
	m.sectors[index] = append([]byte(nil), b...)
	return nil
}

func (m *Memory) TotalBlocks() (int64, error) {
	return m.blocks, nil
}
