package db

import (
	"encoding/binary"
	"math"
)

// VectorToBytes serializes []float32 into the little-endian binary string
// stored in hash fields and passed to FT.SEARCH as the KNN blob.
func VectorToBytes(v []float32) string {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return string(b)
}

// BytesToVector deserializes a binary string back to []float32.
// Returns nil if the input length is not a multiple of 4.
func BytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
