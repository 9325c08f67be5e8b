// Package procyon implements the Procyon predictive ADPCM block codec used
// by Nintendo DS streamed audio.
//
// A block is 16 bytes: 15 bytes of packed 4-bit residuals (30 samples, low
// nibble first) followed by a header byte selecting the predictor
// coefficients and the residual scale. Every byte is stored XOR 0x80.
//
// The arithmetic is fixed-point with 6 fractional bits and reproduces the
// hardware decoder bit for bit, including the final rounding of every
// output sample down to a multiple of 64.
package procyon

import "errors"

// Block geometry.
const (
	BlockSize       = 16 // Bytes per encoded block
	SamplesPerBlock = 30 // Samples decoded from one block
	headerByte      = 15 // Offset of the coefficient/scale header
	bias            = 0x80
)

// Search space of the encoder.
const (
	NumCoefs  = 5  // Entries in the coefficient table
	NumScales = 12 // Scale exponents 0..11
)

// coefs is the fixed predictor table, indexed by coefficient index.
var coefs = [NumCoefs][2]int64{
	{0, 0},
	{60, 0},
	{115, -52},
	{98, -55},
	{122, -60},
}

// Errors returned by the codec.
var (
	// ErrCoefIndex indicates a block header selecting a coefficient pair
	// beyond the table. This only happens for corrupted data.
	ErrCoefIndex = errors.New("procyon: coefficient index out of range")

	// ErrBlockSize indicates a block that is not exactly 16 bytes.
	ErrBlockSize = errors.New("procyon: block must be 16 bytes")

	// ErrTooManySamples indicates more than 30 samples passed to the encoder.
	ErrTooManySamples = errors.New("procyon: more than 30 samples in block")
)

// State is the predictor history of one channel.
//
// Hist0 is the most recent reconstructed value and Hist1 the one before it.
// Both are kept at 6 fractional bits (sample << 6). A loud block can push
// them far outside the 16-bit sample range; they are reduced into
// [-2^32, 2^32) after every sample, wrapping modulo 2^33.
type State struct {
	Hist0 int64
	Hist1 int64
}

// histRange bounds the history: values wrap into [-histRange, histRange).
const histRange = 1 << 32

// wrapHist reduces v into [-histRange, histRange) modulo 2*histRange.
func wrapHist(v int64) int64 {
	return (v+histRange)&(2*histRange-1) - histRange
}

// push shifts a reconstructed value into the history.
func (s *State) push(v int64) {
	s.Hist1 = s.Hist0
	s.Hist0 = wrapHist(v)
}

// predict returns the rounded linear prediction for the next value.
func (s State) predict(coef1, coef2 int64) int64 {
	return (s.Hist0*coef1 + s.Hist1*coef2 + 32) >> 6
}

// quantize turns a reconstructed fixed-point value into an output sample:
// round, saturate to 16 bits, then drop the low 6 bits. v is the value
// before the history wrap.
func quantize(v int64) int16 {
	c := (v + 32) >> 6
	if c > 32767 {
		c = 32767
	}
	if c < -32768 {
		c = -32768
	}
	return int16(c >> 6 << 6)
}

// signExtend maps a 4-bit code to [-8, 7].
func signExtend(code int64) int64 {
	return (code+8)&0xF - 8
}

// Header splits a block header byte into coefficient index and scale.
// The byte is taken as stored, before removing the 0x80 bias.
func Header(b byte) (coefIndex, scale int) {
	h := b ^ bias
	return int(h >> 4), int(h & 0xF)
}

// DecodeBlock decodes one 16-byte block starting from history s.
//
// It returns the 30 decoded samples and the history after the last sample.
// DecodeBlock has no side effects: the same inputs always produce the same
// outputs, and s is left untouched when an error is returned.
func DecodeBlock(s State, block []byte) ([SamplesPerBlock]int16, State, error) {
	var out [SamplesPerBlock]int16
	if len(block) != BlockSize {
		return out, s, ErrBlockSize
	}

	coefIndex, scale := Header(block[headerByte])
	if coefIndex >= NumCoefs {
		return out, s, ErrCoefIndex
	}
	coef1, coef2 := coefs[coefIndex][0], coefs[coefIndex][1]

	for i := 0; i < SamplesPerBlock; i++ {
		b := block[i/2] ^ bias
		var code int64
		if i&1 == 1 {
			code = int64(b >> 4)
		} else {
			code = int64(b & 0xF)
		}
		code = signExtend(code)

		v := s.predict(coef1, coef2) + code<<(6+scale)
		s.push(v)
		out[i] = quantize(v)
	}

	return out, s, nil
}
