package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveLBA(t *testing.T) {
	for _, total := range []int64{LBAThreshold, 31277232, 1 << 32} {
		g := Resolve(total)
		assert.Equal(t, LBA, g.Mode, "total=%d", total)
		assert.Equal(t, CHSAddr{C: 1023, H: 254, S: 63}, g.End)
		assert.Equal(t, CHSAddr{C: 0, H: 1, S: 1}, g.Start)
		assert.Equal(t, int64(254*63), g.Unit)
		assert.Equal(t, int64(1023*254*63), g.AvailableBlocks)
		assert.Equal(t, total, g.TotalBlocks)
		assert.Equal(t, total, g.UsableBlocks())
	}
}

func TestResolveCHS(t *testing.T) {
	tests := []struct {
		total int64
		end   CHSAddr
	}{
		{3842048, CHSAddr{C: 1023, H: 139, S: 27}},
		{1000000, CHSAddr{C: 1022, H: 163, S: 6}},
		{204800, CHSAddr{C: 1018, H: 201, S: 1}},
		{1, CHSAddr{C: 1, H: 1, S: 1}},
		{0, CHSAddr{C: 0, H: 255, S: 63}},
	}
	for _, tt := range tests {
		g := Resolve(tt.total)
		assert.Equal(t, CHS, g.Mode, "total=%d", tt.total)
		assert.Equal(t, tt.end, g.End, "total=%d", tt.total)
		assert.Equal(t, int64(tt.end.H*tt.end.S), g.Unit)
		assert.Equal(t, int64(tt.end.C*tt.end.H*tt.end.S), g.AvailableBlocks)
		assert.Equal(t, g.AvailableBlocks, g.UsableBlocks())
	}
}

// A strict "<" comparison would settle on 1023/122/62 here.
func TestResolveTieGoesToLastCandidate(t *testing.T) {
	g := Resolve(7744512)
	assert.Equal(t, CHSAddr{C: 1023, H: 244, S: 31}, g.End)
	assert.Equal(t, int64(7564), g.Unit)
	assert.Equal(t, int64(7737972), g.AvailableBlocks)
}

func TestResolveBelowThresholdStaysCHS(t *testing.T) {
	for _, total := range []int64{LBAThreshold - 1, LBAThreshold / 2, 2048} {
		g := Resolve(total)
		assert.Equal(t, CHS, g.Mode)
		assert.LessOrEqual(t, g.End.C, MaxCylinder)
		assert.LessOrEqual(t, g.AvailableBlocks, total)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	assert.Equal(t, Resolve(3842048), Resolve(3842048))
}
