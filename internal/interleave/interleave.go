// Package interleave splits a block-interleaved multi-channel buffer into
// per-channel block sequences and joins them back.
//
// On disk, block n of every channel is stored before block n+1 of any
// channel: ch0[n], ch1[n], ..., chN[n], ch0[n+1], ... Deinterleave returns
// one contiguous, temporally ordered sequence per channel; Interleave is its
// exact inverse.
package interleave

import "errors"

// Errors returned by the interleaver.
var (
	// ErrChannels indicates a channel count below one.
	ErrChannels = errors.New("interleave: channel count must be at least 1")

	// ErrBlockSize indicates a block size below one.
	ErrBlockSize = errors.New("interleave: block size must be at least 1")

	// ErrRagged indicates per-channel sequences of different lengths or
	// lengths that are not a whole number of blocks.
	ErrRagged = errors.New("interleave: channel sequences are not whole, equal-length block runs")
)

// Deinterleave splits buf into channels sequences of whole blocks.
//
// Bytes after the last complete group of one block per channel are returned
// as rest, untouched, so that Interleave(chans) followed by rest reproduces
// buf exactly. The returned slices do not alias buf.
func Deinterleave(buf []byte, channels, blockSize int) (chans [][]byte, rest []byte, err error) {
	if channels < 1 {
		return nil, nil, ErrChannels
	}
	if blockSize < 1 {
		return nil, nil, ErrBlockSize
	}

	group := channels * blockSize
	groups := len(buf) / group

	chans = make([][]byte, channels)
	for ch := range chans {
		chans[ch] = make([]byte, groups*blockSize)
	}

	for g := 0; g < groups; g++ {
		for ch := 0; ch < channels; ch++ {
			src := buf[g*group+ch*blockSize:]
			copy(chans[ch][g*blockSize:(g+1)*blockSize], src[:blockSize])
		}
	}

	rest = append([]byte(nil), buf[groups*group:]...)
	return chans, rest, nil
}

// Interleave joins per-channel block sequences into one buffer.
// Every sequence must hold the same whole number of blocks.
func Interleave(chans [][]byte, blockSize int) ([]byte, error) {
	if len(chans) < 1 {
		return nil, ErrChannels
	}
	if blockSize < 1 {
		return nil, ErrBlockSize
	}

	n := len(chans[0])
	for _, c := range chans {
		if len(c) != n || n%blockSize != 0 {
			return nil, ErrRagged
		}
	}

	groups := n / blockSize
	out := make([]byte, 0, n*len(chans))
	for g := 0; g < groups; g++ {
		for _, c := range chans {
			out = append(out, c[g*blockSize:(g+1)*blockSize]...)
		}
	}
	return out, nil
}
