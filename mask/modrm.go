package mask

// ModRM splits a ModR/M byte into its mod (bits 7-6), reg (bits 5-3) and
// rm (bits 2-0) fields using the generic Range extractor in mask.go.
func ModRM(b byte) (mod, reg, rm byte) {
	return Range(b, I1, I2), Range(b, I3, I5), Range(b, I6, I8)
}
