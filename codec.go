package sadl

import (
	"github.com/llehouerou/go-sadl/internal/ima"
	"github.com/llehouerou/go-sadl/internal/procyon"
)

// blockCodec is the per-channel codec state behind a uniform block
// contract. Implementations are small values: decode and encode return the
// advanced state and never modify the receiver, so a failed call leaves
// the channel untouched.
type blockCodec interface {
	// decode decodes one 16-byte block into out, which holds at least
	// SamplesPerBlock samples.
	decode(block []byte, out []int16) (blockCodec, error)

	// encode encodes up to SamplesPerBlock samples into block.
	encode(samples []int16, block []byte) (blockCodec, error)
}

// newCodec returns fresh codec state for c.
func newCodec(c Coding) blockCodec {
	switch c {
	case CodingIMA:
		return imaCodec{}
	case CodingProcyon:
		return procyonCodec{}
	default:
		return nil
	}
}

type procyonCodec struct {
	state procyon.State
}

func (c procyonCodec) decode(block []byte, out []int16) (blockCodec, error) {
	samples, st, err := procyon.DecodeBlock(c.state, block)
	if err != nil {
		return c, err
	}
	copy(out, samples[:])
	return procyonCodec{state: st}, nil
}

func (c procyonCodec) encode(samples []int16, block []byte) (blockCodec, error) {
	enc, st, _, err := procyon.EncodeBlock(c.state, samples)
	if err != nil {
		return c, err
	}
	copy(block, enc[:])
	return procyonCodec{state: st}, nil
}

type imaCodec struct {
	state ima.State
}

func (c imaCodec) decode(block []byte, out []int16) (blockCodec, error) {
	samples, st, err := ima.DecodeBlock(c.state, block)
	if err != nil {
		return c, err
	}
	copy(out, samples[:])
	return imaCodec{state: st}, nil
}

func (c imaCodec) encode(samples []int16, block []byte) (blockCodec, error) {
	enc, st, err := ima.EncodeBlock(c.state, samples)
	if err != nil {
		return c, err
	}
	copy(block, enc[:])
	return imaCodec{state: st}, nil
}
