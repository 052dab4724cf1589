// Package mem provides the flat memory array and bus the CPU drives its
// reads and writes through. Each Bus has an independent memory layout that
// begins at physical address 0x00000.
package mem

// A Bus is the central (global) object that connects the CPU to its
// backing store. One or more components (structs) can be connected to a
// Bus by means of a pointer; e.g. CPU.Bus = &Bus{}.
//
// The 8086/8088 addresses 1 MiB of memory over a 20-bit bus (CS<<4 + IP,
// and similarly for the other segment:offset pairs); any address that
// overflows that range wraps rather than faults.
type Bus struct {
	RAM [1 << 20]byte // 1 MiB (0xFFFFF), zeroed on init

	test bool // state of the TEST line, sampled by the WAIT instruction
}

const addressMask = 1<<20 - 1

// ReadByte returns the byte at addr, wrapping addr into the 20-bit range.
func (b *Bus) ReadByte(addr uint32) byte {
	return b.RAM[addr&addressMask]
}

// ReadWord returns the little-endian word at addr. No alignment is
// required; odd addresses are legal, just slower on real hardware (a fact
// the CPU accounts for, not the bus).
func (b *Bus) ReadWord(addr uint32) uint16 {
	lo := b.RAM[addr&addressMask]
	hi := b.RAM[(addr+1)&addressMask]
	return uint16(lo) | uint16(hi)<<8
}

// WriteByte stores data at addr, wrapping addr into the 20-bit range.
func (b *Bus) WriteByte(addr uint32, data byte) {
	b.RAM[addr&addressMask] = data
}

// WriteWord stores the little-endian word data at addr.
func (b *Bus) WriteWord(addr uint32, data uint16) {
	b.RAM[addr&addressMask] = byte(data)
	b.RAM[(addr+1)&addressMask] = byte(data >> 8)
}

// TestLine reports the current state of the external TEST pin, as sampled
// by the WAIT instruction.
func (b *Bus) TestLine() bool { return b.test }

// SetTestLine drives the external TEST pin, simulating whatever coprocessor
// or host logic would otherwise hold it high.
func (b *Bus) SetTestLine(asserted bool) { b.test = asserted }

// LoadProgram copies program into RAM starting at addr, for test harnesses
// and debugging; it has no hardware counterpart.
func (b *Bus) LoadProgram(program []byte, addr uint32) {
	for i, v := range program {
		b.RAM[(addr+uint32(i))&addressMask] = v
	}
}
