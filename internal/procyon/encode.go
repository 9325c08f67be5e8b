package procyon

// encodeSample quantizes one input sample against the running history.
//
// It returns the 4-bit code and the absolute error between the input and
// what a decoder will output for that code. The history is advanced with
// the reconstructed value, exactly as the decoder will see it.
func (s *State) encodeSample(sample int16, coef1, coef2 int64, scale int) (int64, int64) {
	pred := s.predict(coef1, coef2)
	diff := int64(sample)<<6 - pred
	code := signExtend((diff >> (scale + 6)) & 0xF)

	v := pred + code<<(scale+6)
	s.push(v)

	d := int64(sample) - int64(quantize(v))
	if d < 0 {
		d = -d
	}
	return code, d
}

// candidate is one (coefficient, scale) trial of the encoder search.
type candidate struct {
	coefIndex int
	scale     int
	codes     [SamplesPerBlock]int64
	state     State
	err       int64
}

// try encodes samples with one coefficient/scale pair starting from s.
// It gives up as soon as the running error exceeds limit; a negative limit
// means no bound. The returned flag reports whether the run completed.
func try(s State, samples *[SamplesPerBlock]int16, coefIndex, scale int, limit int64) (candidate, bool) {
	c := candidate{coefIndex: coefIndex, scale: scale}
	coef1, coef2 := coefs[coefIndex][0], coefs[coefIndex][1]

	for i, sample := range samples {
		code, d := s.encodeSample(sample, coef1, coef2, scale)
		c.codes[i] = code
		c.err += d
		if limit >= 0 && c.err > limit {
			return c, false
		}
	}
	c.state = s
	return c, true
}

// search runs the branch-and-bound search over every coefficient index and
// scale. Each trial starts from the same history s. A trial is dropped as
// soon as its error passes the best complete one; an exact match ends the
// search. Ties keep the earliest candidate.
func search(s State, samples *[SamplesPerBlock]int16) candidate {
	var best candidate
	found := false

	for coefIndex := 0; coefIndex < NumCoefs; coefIndex++ {
		for scale := 0; scale < NumScales; scale++ {
			limit := int64(-1)
			if found {
				limit = best.err
			}
			c, ok := try(s, samples, coefIndex, scale, limit)
			if !ok {
				continue
			}
			if !found || c.err < best.err {
				best = c
				found = true
				if best.err == 0 {
					return best
				}
			}
		}
	}
	return best
}

// pack builds the 16 stored bytes for a finished candidate.
func (c *candidate) pack() [BlockSize]byte {
	var block [BlockSize]byte
	for i := 0; i < SamplesPerBlock; i += 2 {
		lo := byte(c.codes[i]) & 0xF
		hi := byte(c.codes[i+1]) & 0xF
		block[i/2] = (lo | hi<<4) ^ bias
	}
	block[headerByte] = byte(c.coefIndex<<4|c.scale) ^ bias
	return block
}

// EncodeBlock encodes up to 30 samples into one block starting from
// history s. Missing samples are treated as silence.
//
// It returns the block, the history a decoder holds after decoding it, and
// the total absolute error between the padded input and the decoded output.
// s is never modified; rejected candidates do not leak into the result.
func EncodeBlock(s State, samples []int16) ([BlockSize]byte, State, int64, error) {
	if len(samples) > SamplesPerBlock {
		return [BlockSize]byte{}, s, 0, ErrTooManySamples
	}

	var padded [SamplesPerBlock]int16
	copy(padded[:], samples)

	best := search(s, &padded)
	return best.pack(), best.state, best.err, nil
}
