package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModRM(t *testing.T) {
	mod, reg, rm := ModRM(0b11_010_011)
	assert.Equal(t, byte(0b11), mod)
	assert.Equal(t, byte(0b010), reg)
	assert.Equal(t, byte(0b011), rm)

	mod, reg, rm = ModRM(0b00_111_110)
	assert.Equal(t, byte(0b00), mod)
	assert.Equal(t, byte(0b111), reg)
	assert.Equal(t, byte(0b110), rm)
}

func TestParity(t *testing.T) {
	assert.True(t, Parity(0b0000_0011))  // two set bits: even
	assert.False(t, Parity(0b0000_0001)) // one set bit: odd
	assert.True(t, Parity(0xFF00))       // low byte clear: even (zero bits)
}
