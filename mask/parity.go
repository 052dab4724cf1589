package mask

import "math/bits"

// Parity reports the 8086's PF semantics: set when the low byte of value
// has an even number of 1 bits.
func Parity(value uint16) bool {
	return bits.OnesCount8(byte(value))%2 == 0
}
