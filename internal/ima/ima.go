// Package ima implements the headerless IMA ADPCM block codec used by the
// adaptive coding of streamed audio containers.
//
// A block is 16 bytes carrying 32 4-bit codes, low nibble first. The
// predictor and step index run on across blocks; there is no per-block
// header.
package ima

import "errors"

// Block geometry.
const (
	BlockSize       = 16
	SamplesPerBlock = 32
)

// stepTable is the standard IMA ADPCM quantizer step size table.
var stepTable = [89]int32{
	7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 19, 21, 23, 25, 28, 31, 34,
	37, 41, 45, 50, 55, 60, 66, 73, 80, 88, 97, 107, 118, 130, 143,
	157, 173, 190, 209, 230, 253, 279, 307, 337, 371, 408, 449, 494,
	544, 598, 658, 724, 796, 876, 963, 1060, 1166, 1282, 1411, 1552,
	1707, 1878, 2066, 2272, 2499, 2749, 3024, 3327, 3660, 4026,
	4428, 4871, 5358, 5894, 6484, 7132, 7845, 8630, 9493, 10442,
	11487, 12635, 13899, 15289, 16818, 18500, 20350, 22385, 24623,
	27086, 29794, 32767,
}

// indexTable adjusts the step index after each code.
var indexTable = [16]int32{
	-1, -1, -1, -1, 2, 4, 6, 8,
	-1, -1, -1, -1, 2, 4, 6, 8,
}

// Errors returned by the codec.
var (
	// ErrBlockSize indicates a block that is not exactly 16 bytes.
	ErrBlockSize = errors.New("ima: block must be 16 bytes")

	// ErrTooManySamples indicates more than 32 samples passed to the encoder.
	ErrTooManySamples = errors.New("ima: more than 32 samples in block")
)

// State is the adaptive state of one channel.
type State struct {
	Predictor int32 // Last output sample, always within int16 range
	Index     int32 // Step table index, always within [0, 88]
}

func clamp(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// decodeSample applies one code to the state and returns the new sample.
func (s *State) decodeSample(code int32) int16 {
	step := stepTable[s.Index]

	diff := step >> 3
	if code&1 != 0 {
		diff += step >> 2
	}
	if code&2 != 0 {
		diff += step >> 1
	}
	if code&4 != 0 {
		diff += step
	}
	if code&8 != 0 {
		diff = -diff
	}

	s.Predictor = clamp(s.Predictor+diff, -32768, 32767)
	s.Index = clamp(s.Index+indexTable[code], 0, int32(len(stepTable)-1))
	return int16(s.Predictor)
}

// encodeSample picks the code closest to sample and advances the state as
// the decoder will.
func (s *State) encodeSample(sample int16) int32 {
	step := stepTable[s.Index]
	diff := int32(sample) - s.Predictor

	var code int32
	if diff < 0 {
		code = 8
		diff = -diff
	}
	if diff >= step {
		code |= 4
		diff -= step
	}
	step >>= 1
	if diff >= step {
		code |= 2
		diff -= step
	}
	step >>= 1
	if diff >= step {
		code |= 1
	}

	s.decodeSample(code)
	return code
}

// DecodeBlock decodes one 16-byte block starting from state s.
// Every code is valid, so the only failure is a wrongly sized block.
func DecodeBlock(s State, block []byte) ([SamplesPerBlock]int16, State, error) {
	var out [SamplesPerBlock]int16
	if len(block) != BlockSize {
		return out, s, ErrBlockSize
	}
	for i, b := range block {
		out[2*i] = s.decodeSample(int32(b & 0xF))
		out[2*i+1] = s.decodeSample(int32(b >> 4))
	}
	return out, s, nil
}

// EncodeBlock encodes up to 32 samples starting from state s. Missing
// samples are treated as silence. It returns the block and the state after
// it; s itself is not modified.
func EncodeBlock(s State, samples []int16) ([BlockSize]byte, State, error) {
	var block [BlockSize]byte
	if len(samples) > SamplesPerBlock {
		return block, s, ErrTooManySamples
	}

	var padded [SamplesPerBlock]int16
	copy(padded[:], samples)

	for i := range block {
		lo := s.encodeSample(padded[2*i])
		hi := s.encodeSample(padded[2*i+1])
		block[i] = byte(lo | hi<<4)
	}
	return block, s, nil
}
