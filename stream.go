// stream.go
package sadl

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/llehouerou/go-sadl/internal/interleave"
)

// Stream is one SADL audio asset.
//
// A Stream is built once by Read or New and then changes only through
// Decode, Encode, Rewind, SetLoop and Reconcile. It owns its block buffers
// and per-channel codec state; nothing is shared between Streams.
//
// A Stream is NOT safe for concurrent use. Callers that decode on one
// goroutine and consume on another must serialize access themselves.
type Stream struct {
	// header is the original first 256 bytes, written back verbatim
	// except for the fields modeled below.
	header [HeaderSize]byte

	magic      [4]byte
	loopFlag   byte
	coding     Coding
	codingByte byte // Original coding byte, for its unmodeled bits
	sampleRate int

	byteSize    int // Declared size including the header
	sampleCount int // Per-channel samples implied by byteSize
	loopSample  int // Loop start in samples, meaningful when loopFlag != 0

	chans []channel
	rest  []byte // Bytes after the last whole block group
}

// channel is one channel's block sequence, cursor and codec state.
type channel struct {
	data   []byte     // Contiguous 16-byte blocks in temporal order
	cursor int        // Index of the next block to decode or encode
	codec  blockCodec // State carried from block to block
}

// Read parses a SADL stream from data.
//
// The header is validated completely before anything is built; on error no
// Stream is returned. data is not retained.
func Read(data []byte) (*Stream, error) {
	if len(data) < len(Magic) || string(data[offsetMagic:offsetMagic+len(Magic)]) != Magic {
		return nil, ErrFormat
	}
	if len(data) < HeaderSize {
		return nil, ErrTruncatedStream
	}

	s := &Stream{
		loopFlag:   data[offsetLoopFlag],
		codingByte: data[offsetCoding],
	}
	copy(s.header[:], data[:HeaderSize])
	copy(s.magic[:], data[offsetMagic:])

	channels := int(data[offsetChannels])
	if channels == 0 {
		return nil, ErrInvalidChannels
	}

	rate, err := sampleRateFor(s.codingByte)
	if err != nil {
		return nil, err
	}
	s.sampleRate = rate

	s.coding = Coding(s.codingByte & codingKindMask)
	if !s.coding.Valid() {
		return nil, ErrUnsupportedCoding
	}

	s.byteSize = int(binary.LittleEndian.Uint32(data[offsetByteSize:]))
	if s.byteSize < HeaderSize {
		return nil, fmt.Errorf("%w: declared size %d is smaller than the header", ErrFormat, s.byteSize)
	}
	if len(data) < s.byteSize {
		return nil, fmt.Errorf("%w: have %d bytes, header declares %d", ErrTruncatedStream, len(data), s.byteSize)
	}
	s.sampleCount = s.coding.samplesFor(s.byteSize-HeaderSize, channels)

	if s.loopFlag != 0 {
		off := int(binary.LittleEndian.Uint32(data[offsetLoopOffset:])) - HeaderSize
		if off < 0 {
			off = 0
		}
		s.loopSample = s.coding.samplesFor(off, channels)
	}

	blocks, rest, err := interleave.Deinterleave(data[HeaderSize:s.byteSize], channels, BlockSize)
	if err != nil {
		return nil, err
	}
	s.rest = rest
	s.chans = make([]channel, channels)
	for ch := range s.chans {
		s.chans[ch] = channel{data: blocks[ch], codec: newCodec(s.coding)}
	}

	return s, nil
}

// ReadFrom reads a whole stream from r and parses it with Read.
func ReadFrom(r io.Reader) (*Stream, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Read(data)
}

// New builds an empty stream from cfg. Blocks are added with Encode;
// call Reconcile before Write to update the declared size.
func New(cfg Config) (*Stream, error) {
	if cfg.Channels < 1 || cfg.Channels > 255 {
		return nil, ErrInvalidChannels
	}
	if !cfg.Coding.Valid() {
		return nil, ErrUnsupportedCoding
	}
	sel, err := rateSelector(cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	if cfg.Loop && cfg.LoopSample < 0 {
		return nil, ErrInvalidLoop
	}

	s := &Stream{
		coding:     cfg.Coding,
		codingByte: byte(cfg.Coding) | sel,
		sampleRate: cfg.SampleRate,
		chans:      make([]channel, cfg.Channels),
	}
	copy(s.magic[:], Magic)
	copy(s.header[:], Magic)
	if cfg.Loop {
		s.loopFlag = 1
		s.loopSample = cfg.LoopSample
	}
	for ch := range s.chans {
		s.chans[ch] = channel{data: []byte{}, codec: newCodec(s.coding)}
	}
	s.Reconcile()

	return s, nil
}

// Write serializes the stream: the preserved header with the magic, loop
// flag, channel count and coding byte overwritten, followed by the
// re-interleaved blocks.
//
// Write does not recompute the declared size or loop offset; call
// Reconcile first if blocks were added. The Stream is not modified.
func (s *Stream) Write() ([]byte, error) {
	sel, err := rateSelector(s.sampleRate)
	if err != nil {
		return nil, err
	}

	datas := make([][]byte, len(s.chans))
	for ch := range s.chans {
		datas[ch] = s.chans[ch].data
	}
	body, err := interleave.Interleave(datas, BlockSize)
	if err != nil {
		return nil, err
	}

	out := make([]byte, HeaderSize, HeaderSize+len(body)+len(s.rest))
	copy(out, s.header[:])
	copy(out[offsetMagic:], s.magic[:])
	out[offsetLoopFlag] = s.loopFlag
	out[offsetChannels] = byte(len(s.chans))
	out[offsetCoding] = s.codingByte&^(codingKindMask|rateSelectorMask) | byte(s.coding) | sel

	out = append(out, body...)
	out = append(out, s.rest...)
	return out, nil
}

// WriteTo writes the serialized stream to w.
func (s *Stream) WriteTo(w io.Writer) (int64, error) {
	data, err := s.Write()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Reconcile recomputes the declared size, sample count and loop offset
// from the current block buffers and stores them in the preserved header.
func (s *Stream) Reconcile() {
	channels := len(s.chans)
	payload := len(s.rest)
	if channels > 0 {
		payload += len(s.chans[0].data) * channels
	}

	s.byteSize = HeaderSize + payload
	s.sampleCount = s.coding.samplesFor(payload, channels)
	binary.LittleEndian.PutUint32(s.header[offsetByteSize:], uint32(s.byteSize))

	if s.loopFlag != 0 {
		off := HeaderSize + s.coding.bytesFor(s.loopSample, channels)
		binary.LittleEndian.PutUint32(s.header[offsetLoopOffset:], uint32(off))
	}
}

// SetLoop enables looping from sample start, or disables looping.
// The header loop offset is updated by the next Reconcile.
func (s *Stream) SetLoop(enabled bool, start int) error {
	if !enabled {
		s.loopFlag = 0
		s.loopSample = 0
		return nil
	}
	if start < 0 {
		return ErrInvalidLoop
	}
	s.loopFlag = 1
	s.loopSample = start
	return nil
}

// Channels returns the number of channels.
func (s *Stream) Channels() int { return len(s.chans) }

// Coding returns the block coding shared by all channels.
func (s *Stream) Coding() Coding { return s.coding }

// SampleRate returns the sample rate in Hz.
func (s *Stream) SampleRate() int { return s.sampleRate }

// ByteSize returns the declared container size including the header.
func (s *Stream) ByteSize() int { return s.byteSize }

// SampleCount returns the per-channel sample count implied by ByteSize.
func (s *Stream) SampleCount() int { return s.sampleCount }

// Loop reports whether the loop flag is set.
func (s *Stream) Loop() bool { return s.loopFlag != 0 }

// LoopSample returns the loop start in samples, or 0 without a loop.
func (s *Stream) LoopSample() int { return s.loopSample }

// Header returns a copy of the preserved 256-byte header.
func (s *Stream) Header() []byte {
	return append([]byte(nil), s.header[:]...)
}
