// decode.go
package sadl

import (
	"fmt"

	"github.com/llehouerou/go-sadl/internal/output"
)

// totalBlocks returns the number of blocks per channel that hold samples:
// the declared sample count, bounded by what the buffers actually contain.
func (s *Stream) totalBlocks() int {
	spb := s.coding.SamplesPerBlock()
	if spb == 0 || len(s.chans) == 0 {
		return 0
	}
	n := s.sampleCount / spb
	if have := len(s.chans[0].data) / BlockSize; have < n {
		n = have
	}
	return n
}

// Remaining returns the number of blocks per channel not yet decoded.
func (s *Stream) Remaining() int {
	if len(s.chans) == 0 {
		return 0
	}
	n := s.totalBlocks() - s.chans[0].cursor
	if n < 0 {
		return 0
	}
	return n
}

// Position returns the number of samples per channel decoded or encoded
// so far.
func (s *Stream) Position() int {
	if len(s.chans) == 0 {
		return 0
	}
	return s.chans[0].cursor * s.coding.SamplesPerBlock()
}

// Decode decodes the next blocks blocks of every channel and returns the
// samples channel by channel (out[channel][sample]).
//
// A negative blocks decodes everything that remains; a count larger than
// what remains is clamped. Successive calls continue where the previous
// one stopped.
//
// Decode either decodes every requested block or fails without changing
// any cursor or codec state.
func (s *Stream) Decode(blocks int) ([][]int16, error) {
	remaining := s.Remaining()
	if blocks < 0 || blocks > remaining {
		blocks = remaining
	}
	spb := s.coding.SamplesPerBlock()

	out := make([][]int16, len(s.chans))
	next := make([]blockCodec, len(s.chans))

	for ch := range s.chans {
		c := &s.chans[ch]
		out[ch] = make([]int16, blocks*spb)

		codec := c.codec
		for i := 0; i < blocks; i++ {
			idx := c.cursor + i
			block := c.data[idx*BlockSize : (idx+1)*BlockSize]

			var err error
			codec, err = codec.decode(block, out[ch][i*spb:])
			if err != nil {
				return nil, fmt.Errorf("%w: channel %d block %d: %w", ErrInvalidBlock, ch, idx, err)
			}
		}
		next[ch] = codec
	}

	for ch := range s.chans {
		s.chans[ch].codec = next[ch]
		s.chans[ch].cursor += blocks
	}
	return out, nil
}

// DecodeAll decodes every remaining block.
func (s *Stream) DecodeAll() ([][]int16, error) {
	return s.Decode(-1)
}

// Encode encodes samples (samples[channel][sample]) into blocks starting at
// each channel's cursor, overwriting existing blocks in place and appending
// past the end of the buffers. A final partial block is padded with
// silence.
//
// Every channel must supply the same number of samples. The declared size
// is not updated; call Reconcile before Write if the buffers grew.
func (s *Stream) Encode(samples [][]int16) error {
	if len(samples) != len(s.chans) {
		return fmt.Errorf("%w: got %d sample buffers for %d channels", ErrInvalidChannels, len(samples), len(s.chans))
	}
	if len(samples) == 0 {
		return nil
	}
	n := len(samples[0])
	for ch := range samples {
		if len(samples[ch]) != n {
			return fmt.Errorf("%w: channel %d has %d samples, channel 0 has %d", ErrInvalidSampleCount, ch, len(samples[ch]), n)
		}
	}

	spb := s.coding.SamplesPerBlock()
	blocks := (n + spb - 1) / spb

	encoded := make([][]byte, len(s.chans))
	next := make([]blockCodec, len(s.chans))

	for ch := range s.chans {
		codec := s.chans[ch].codec
		encoded[ch] = make([]byte, blocks*BlockSize)

		for i := 0; i < blocks; i++ {
			lo, hi := i*spb, (i+1)*spb
			if hi > n {
				hi = n
			}

			var err error
			codec, err = codec.encode(samples[ch][lo:hi], encoded[ch][i*BlockSize:(i+1)*BlockSize])
			if err != nil {
				return fmt.Errorf("channel %d block %d: %w", ch, s.chans[ch].cursor+i, err)
			}
		}
		next[ch] = codec
	}

	for ch := range s.chans {
		c := &s.chans[ch]
		start := c.cursor * BlockSize
		if need := start + len(encoded[ch]); need > len(c.data) {
			c.data = append(c.data, make([]byte, need-len(c.data))...)
		}
		copy(c.data[start:], encoded[ch])
		c.codec = next[ch]
		c.cursor += blocks
	}
	return nil
}

// Rewind moves every channel back to the first block and resets its codec
// state, as if the stream had just been read.
func (s *Stream) Rewind() {
	for ch := range s.chans {
		s.chans[ch].cursor = 0
		s.chans[ch].codec = newCodec(s.coding)
	}
}

// PCM decodes everything that remains and returns it with the metadata a
// playback-format writer needs.
func (s *Stream) PCM() (*PCM, error) {
	decoded, err := s.DecodeAll()
	if err != nil {
		return nil, err
	}
	return &PCM{
		Channels:      len(s.chans),
		SampleRate:    s.sampleRate,
		BitsPerSample: 16,
		Samples:       output.Interleave(decoded),
	}, nil
}

// EncodePCM encodes frame-interleaved samples, as produced by PCM.
func (s *Stream) EncodePCM(samples []int16) error {
	chans, err := output.Deinterleave(samples, len(s.chans))
	if err != nil {
		return fmt.Errorf("%w: %d samples for %d channels", ErrInvalidChannels, len(samples), len(s.chans))
	}
	return s.Encode(chans)
}
