// Package output converts decoded channel buffers into the sample layouts
// handed to playback writers, and reads/writes 16-bit PCM WAVE files.
package output

import (
	"errors"
	"math"
)

// FloatScale normalizes 16-bit range to [-1.0, 1.0].
const FloatScale = float32(1.0 / 32768.0)

// ErrChannels indicates a channel count that does not divide the buffer.
var ErrChannels = errors.New("output: sample count is not a multiple of the channel count")

// clip16 clips and rounds a float32 to int16 range.
func clip16(sample float32) int16 {
	if sample >= 32767.0 {
		return 32767
	}
	if sample <= -32768.0 {
		return -32768
	}
	return int16(math.RoundToEven(float64(sample)))
}

// Interleave converts per-channel buffers (input[channel][sample]) to one
// frame-interleaved buffer. Channels shorter than the first are padded with
// silence.
func Interleave(input [][]int16) []int16 {
	if len(input) == 0 {
		return nil
	}
	channels := len(input)
	frames := len(input[0])

	// Mono needs no reordering.
	if channels == 1 {
		return append([]int16(nil), input[0]...)
	}

	out := make([]int16, frames*channels)
	for ch, samples := range input {
		for i := 0; i < frames && i < len(samples); i++ {
			out[i*channels+ch] = samples[i]
		}
	}
	return out
}

// Deinterleave splits a frame-interleaved buffer into per-channel buffers.
func Deinterleave(samples []int16, channels int) ([][]int16, error) {
	if channels < 1 || len(samples)%channels != 0 {
		return nil, ErrChannels
	}
	frames := len(samples) / channels

	out := make([][]int16, channels)
	for ch := range out {
		out[ch] = make([]int16, frames)
		for i := 0; i < frames; i++ {
			out[ch][i] = samples[i*channels+ch]
		}
	}
	return out, nil
}

// ToFloat32 converts 16-bit samples to [-1.0, 1.0).
func ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) * FloatScale
	}
	return out
}

// FromFloat32 converts normalized float samples back to 16 bits, clipping
// out-of-range values.
func FromFloat32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		out[i] = clip16(s * 32768.0)
	}
	return out
}

// Gain scales samples by gain, clipping to the 16-bit range.
func Gain(samples []int16, gain float32) []int16 {
	f := ToFloat32(samples)
	for i := range f {
		f[i] *= gain
	}
	return FromFloat32(f)
}
