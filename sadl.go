// Package sadl reads, decodes, encodes and writes SADL streamed audio.
package sadl

import (
	"github.com/llehouerou/go-sadl/internal/ima"
	"github.com/llehouerou/go-sadl/internal/procyon"
)

// Magic is the 4-byte tag at the start of every stream.
const Magic = "sadl"

// Container layout. All multi-byte fields are little-endian.
const (
	HeaderSize = 0x100 // Bytes of header before the block data
	BlockSize  = 16    // Bytes per encoded block, both codings

	offsetMagic      = 0x00
	offsetLoopFlag   = 0x31
	offsetChannels   = 0x32
	offsetCoding     = 0x33
	offsetByteSize   = 0x40
	offsetLoopOffset = 0x54
)

// Coding byte fields.
const (
	codingKindMask   = 0xF0
	rateSelectorMask = 0x06

	rateSelector32728 = 0x04
	rateSelector16364 = 0x02
)

// Supported sample rates in Hz.
const (
	SampleRate32728 = 32728
	SampleRate16364 = 16364
)

// Coding identifies the block codec used by every channel of a stream.
// The value is the high nibble of the coding byte.
type Coding uint8

// Codings.
const (
	CodingIMA     Coding = 0x70 // Adaptive (IMA ADPCM), 32 samples per block
	CodingProcyon Coding = 0xB0 // Predictive (Procyon), 30 samples per block
)

// String returns the coding name.
func (c Coding) String() string {
	switch c {
	case CodingIMA:
		return "ima"
	case CodingProcyon:
		return "procyon"
	default:
		return "unknown"
	}
}

// Valid reports whether c is one of the supported codings.
func (c Coding) Valid() bool {
	return c == CodingIMA || c == CodingProcyon
}

// SamplesPerBlock returns how many samples one 16-byte block holds,
// or 0 for an unsupported coding.
func (c Coding) SamplesPerBlock() int {
	switch c {
	case CodingIMA:
		return ima.SamplesPerBlock
	case CodingProcyon:
		return procyon.SamplesPerBlock
	default:
		return 0
	}
}

// samplesFor converts a byte count measured from the end of the header
// into a per-channel sample count.
func (c Coding) samplesFor(n, channels int) int {
	switch c {
	case CodingIMA:
		return n / channels * 2
	case CodingProcyon:
		return n / channels / BlockSize * procyon.SamplesPerBlock
	default:
		return 0
	}
}

// bytesFor is the inverse of samplesFor. IMA offsets are byte precise;
// Procyon offsets are aligned down to a whole block group.
func (c Coding) bytesFor(samples, channels int) int {
	switch c {
	case CodingIMA:
		return samples / 2 * channels
	case CodingProcyon:
		return samples / procyon.SamplesPerBlock * BlockSize * channels
	default:
		return 0
	}
}

// sampleRateFor decodes the rate selector bits of the coding byte.
func sampleRateFor(codingByte byte) (int, error) {
	switch codingByte & rateSelectorMask {
	case rateSelector32728:
		return SampleRate32728, nil
	case rateSelector16364:
		return SampleRate16364, nil
	default:
		return 0, ErrUnsupportedSampleRate
	}
}

// rateSelector encodes a sample rate into coding byte selector bits.
func rateSelector(rate int) (byte, error) {
	switch rate {
	case SampleRate32728:
		return rateSelector32728, nil
	case SampleRate16364:
		return rateSelector16364, nil
	default:
		return 0, ErrUnsupportedSampleRate
	}
}

// PCM is decoded audio handed to a playback-format writer.
type PCM struct {
	Channels      int     // Number of channels
	SampleRate    int     // Sample rate in Hz
	BitsPerSample int     // Always 16
	Samples       []int16 // Frame-interleaved samples
}

// Frames returns the number of sample frames (samples per channel).
func (p *PCM) Frames() int {
	if p.Channels == 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Config describes a stream to build from scratch with New.
type Config struct {
	Channels   int    // 1..255
	Coding     Coding // CodingIMA or CodingProcyon
	SampleRate int    // SampleRate32728 or SampleRate16364
	Loop       bool   // Whether playback loops
	LoopSample int    // Loop start in samples, used when Loop is set
}
