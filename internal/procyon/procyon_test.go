package procyon

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storedBlock builds a block from unbiased sample bytes and header.
func storedBlock(sampleByte, header byte) []byte {
	b := make([]byte, BlockSize)
	for i := 0; i < headerByte; i++ {
		b[i] = sampleByte ^ bias
	}
	b[headerByte] = header ^ bias
	return b
}

func sineBlock(amp float64) []int16 {
	s := make([]int16, SamplesPerBlock)
	for i := range s {
		s[i] = int16(amp * math.Sin(2*math.Pi*float64(i)/SamplesPerBlock))
	}
	return s
}

func TestHeader(t *testing.T) {
	tests := []struct {
		stored    byte
		wantCoef  int
		wantScale int
	}{
		{0x80, 0, 0},
		{0xA3, 2, 3},
		{0xCB, 4, 11},
		{0x0F, 8, 15},
	}
	for _, tt := range tests {
		coef, scale := Header(tt.stored)
		assert.Equal(t, tt.wantCoef, coef, "stored %#x", tt.stored)
		assert.Equal(t, tt.wantScale, scale, "stored %#x", tt.stored)
	}
}

func TestSignExtend(t *testing.T) {
	for code := int64(0); code < 16; code++ {
		want := code
		if code >= 8 {
			want = code - 16
		}
		assert.Equal(t, want, signExtend(code), "code %d", code)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		v    int64
		want int16
	}{
		{0, 0},
		{31, 0},
		{32 * 64, 0},
		{64 * 64, 64},
		{-512, -64},
		{1 << 30, 32704},
		{-1 << 30, -32768},
		{1 << 40, 32704},
		{-1 << 40, -32768},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, quantize(tt.v), "quantize(%d)", tt.v)
	}
}

func TestDecodeBlockZero(t *testing.T) {
	histories := []State{{}, {Hist0: 1234, Hist1: -999}, {Hist0: -2000000, Hist1: 1500000}}
	for _, h := range histories {
		out, next, err := DecodeBlock(h, storedBlock(0x00, 0x00))
		require.NoError(t, err)
		assert.Equal(t, [SamplesPerBlock]int16{}, out)
		assert.Equal(t, State{}, next)
	}
}

func TestDecodeBlockGolden(t *testing.T) {
	// coefficient index 2, scale 3, every code +1 / +2.
	block := storedBlock(0x21, 0x23)
	want := [SamplesPerBlock]int16{
		0, 0, 0, 64, 128, 128, 192, 256, 256, 320,
		320, 384, 448, 448, 512, 512, 576, 576, 576, 640,
		640, 640, 704, 704, 704, 704, 704, 704, 704, 768,
	}

	out, next, err := DecodeBlock(State{}, block)
	require.NoError(t, err)
	assert.Equal(t, want, out)
	assert.Equal(t, State{Hist0: 49138, Hist1: 48680}, next)
}

func TestDecodeBlockDeterministic(t *testing.T) {
	block := storedBlock(0x7E, 0x49)
	start := State{Hist0: 4096, Hist1: -8192}

	out1, st1, err1 := DecodeBlock(start, block)
	out2, st2, err2 := DecodeBlock(start, block)
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, out1, out2)
	assert.Equal(t, st1, st2)
}

func TestDecodeBlockInvalid(t *testing.T) {
	start := State{Hist0: 7, Hist1: 9}

	_, st, err := DecodeBlock(start, storedBlock(0, 0x50))
	require.ErrorIs(t, err, ErrCoefIndex)
	assert.Equal(t, start, st)

	_, st, err = DecodeBlock(start, make([]byte, 15))
	require.ErrorIs(t, err, ErrBlockSize)
	assert.Equal(t, start, st)
}

func TestWrapHist(t *testing.T) {
	tests := []struct {
		v    int64
		want int64
	}{
		{0, 0},
		{-33459258, -33459258},
		{1<<32 - 1, 1<<32 - 1},
		{1 << 32, -1 << 32},
		{-1 << 32, -1 << 32},
		{-1<<32 - 1, 1<<32 - 1},
		{3 << 33, 0},
		{1<<33 + 5, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wrapHist(tt.v), "wrapHist(%d)", tt.v)
	}
}

// TestDecodeBlockSaturation decodes the extreme codes of every coefficient
// pair at the largest scale, where the history runs far past 16 bits and
// the output saturates.
func TestDecodeBlockSaturation(t *testing.T) {
	tests := []struct {
		name  string
		start State
		block []byte
		want  [SamplesPerBlock]int16
		state State
	}{
		{
			name:  "coef 0 min",
			start: State{},
			block: storedBlock(0x88, 0x0B),
			want:  [SamplesPerBlock]int16{
				-16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384,
				-16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384,
				-16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384, -16384,
			},
			state: State{Hist0: -1048576, Hist1: -1048576},
		},
		{
			name:  "coef 0 max",
			start: State{},
			block: storedBlock(0x77, 0x0B),
			want:  [SamplesPerBlock]int16{
				14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336,
				14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336,
				14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336, 14336,
			},
			state: State{Hist0: 917504, Hist1: 917504},
		},
		{
			name:  "coef 1 min",
			start: State{},
			block: storedBlock(0x88, 0x1B),
			want:  [SamplesPerBlock]int16{
				-16384, -31744, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
			},
			state: State{Hist0: -14356978, Hist1: -14195629},
		},
		{
			name:  "coef 1 max",
			start: State{},
			block: storedBlock(0x77, 0x1B),
			want:  [SamplesPerBlock]int16{
				14336, 27776, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
			},
			state: State{Hist0: 12562356, Hist1: 12421175},
		},
		{
			name:  "coef 2 min",
			start: State{},
			block: storedBlock(0x88, 0x2B),
			want:  [SamplesPerBlock]int16{
				-16384, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
			},
			state: State{Hist0: -67061052, Hist1: -66642848},
		},
		{
			name:  "coef 2 max",
			start: State{},
			block: storedBlock(0x77, 0x2B),
			want:  [SamplesPerBlock]int16{
				14336, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
			},
			state: State{Hist0: 58678417, Hist1: 58312488},
		},
		{
			name:  "coef 3 min",
			start: State{},
			block: storedBlock(0x88, 0x3B),
			want:  [SamplesPerBlock]int16{
				-16384, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -30592, -26368,
				-30464, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
			},
			state: State{Hist0: -2940340, Hist1: -3099472},
		},
		{
			name:  "coef 3 max",
			start: State{},
			block: storedBlock(0x77, 0x3B),
			want:  [SamplesPerBlock]int16{
				14336, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 26688, 22976,
				26560, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
			},
			state: State{Hist0: 2572799, Hist1: 2712039},
		},
		{
			name:  "coef 4 min",
			start: State{},
			block: storedBlock(0x88, 0x4B),
			want:  [SamplesPerBlock]int16{
				-16384, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
				-32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
			},
			state: State{Hist0: -27362537, Hist1: -29295671},
		},
		{
			name:  "coef 4 max",
			start: State{},
			block: storedBlock(0x77, 0x4B),
			want:  [SamplesPerBlock]int16{
				14336, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
				32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704, 32704,
			},
			state: State{Hist0: 23942222, Hist1: 25633714},
		},
		{
			name:  "coef 2 min near wrap",
			start: State{Hist0: 4000000000, Hist1: -4000000000},
			block: storedBlock(0x88, 0x2B),
			want:  [SamplesPerBlock]int16{
				32704, 32704, -32768, -32768, -32768, -32768, -32768, 32704, 32704, -32768,
				-32768, -32768, -32768, -32768, 32704, 32704, -32768, -32768, -32768, -32768,
				-32768, -32768, 32704, 32704, -32768, -32768, -32768, -32768, -32768, -32768,
			},
			state: State{Hist0: -4081430096, Hist1: -3755696282},
		},
		{
			name:  "coef 4 min near wrap",
			start: State{Hist0: 4000000000, Hist1: -4000000000},
			block: storedBlock(0x88, 0x4B),
			want:  [SamplesPerBlock]int16{
				32704, 32704, 32704, -32768, -32768, -32768, -32768, -32768, -32768, 32704,
				32704, 32704, -32768, -32768, -32768, -32768, -32768, -32768, -32768, 32704,
				32704, 32704, 32704, -32768, -32768, -32768, -32768, -32768, -32768, -32768,
			},
			state: State{Hist0: -4040810750, Hist1: -3810290374},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, next, err := DecodeBlock(tt.start, tt.block)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Equal(t, tt.state, next)
		})
	}
}

func TestDecodeLoudRun(t *testing.T) {
	// Coefficient index 4, scale 11, every code -8.
	block := storedBlock(0x88, 0x4B)

	out, state, err := DecodeBlock(State{}, block)
	require.NoError(t, err)
	assert.Equal(t, int16(-16384), out[0])
	assert.Equal(t, State{Hist0: -27362537, Hist1: -29295671}, state)

	for i := 1; i < 6; i++ {
		out, state, err = DecodeBlock(state, block)
		require.NoError(t, err)
		for j, s := range out {
			assert.Equal(t, int16(-32768), s, "block %d sample %d", i, j)
		}
	}
	assert.Equal(t, State{Hist0: -33459258, Hist1: -33451441}, state)
}

func TestDecodeOutputAlignment(t *testing.T) {
	// Every output sample is a multiple of 64, whatever the input.
	state := State{}
	for h := 0; h < NumCoefs<<4; h += 3 {
		block := storedBlock(byte(h*37), byte(h))
		if c, _ := Header(block[headerByte]); c >= NumCoefs {
			continue
		}
		out, next, err := DecodeBlock(state, block)
		require.NoError(t, err)
		for _, s := range out {
			assert.Zero(t, int(s)%64)
		}
		state = next
	}
}

func TestEncodeBlockSilence(t *testing.T) {
	block, st, errSum, err := EncodeBlock(State{}, nil)
	require.NoError(t, err)
	assert.Equal(t, storedBlock(0, 0), block[:])
	assert.Equal(t, State{}, st)
	assert.Zero(t, errSum)
}

func TestEncodeBlockGolden(t *testing.T) {
	block, st, errSum, err := EncodeBlock(State{}, sineBlock(8000))
	require.NoError(t, err)

	want := [BlockSize]byte{
		0xe0, 0xa1, 0x9f, 0x80, 0x7f, 0x7f, 0x7e, 0x6f,
		0x7f, 0x7f, 0x71, 0x81, 0x91, 0x92, 0xa1, 0xa8,
	}
	assert.Equal(t, want, block)
	assert.Equal(t, State{Hist0: -106700, Hist1: -213774}, st)
	assert.Equal(t, int64(4160), errSum)
}

func TestEncodeBlockPadding(t *testing.T) {
	ramp := []int16{0, 64, 128, 192, 256, 320, 384, 448, 512, 576}

	short, _, shortErr, err := EncodeBlock(State{}, ramp)
	require.NoError(t, err)

	padded := make([]int16, SamplesPerBlock)
	copy(padded, ramp)
	full, _, fullErr, err := EncodeBlock(State{}, padded)
	require.NoError(t, err)

	assert.Equal(t, full, short)
	assert.Equal(t, fullErr, shortErr)
	assert.Equal(t, int64(320), shortErr)
}

func TestEncodeBlockTooLong(t *testing.T) {
	_, st, _, err := EncodeBlock(State{Hist0: 1}, make([]int16, SamplesPerBlock+1))
	require.ErrorIs(t, err, ErrTooManySamples)
	assert.Equal(t, State{Hist0: 1}, st)
}

// TestRoundTripError checks that decoding an encoded block reproduces
// exactly the error the encoder reported, and the same history.
func TestRoundTripError(t *testing.T) {
	state := State{}
	for _, amp := range []float64{0, 100, 3000, 12000, 32000} {
		samples := sineBlock(amp)

		block, encState, errSum, err := EncodeBlock(state, samples)
		require.NoError(t, err)

		out, decState, err := DecodeBlock(state, block[:])
		require.NoError(t, err)

		var total int64
		for i, s := range samples {
			d := int64(s) - int64(out[i])
			if d < 0 {
				d = -d
			}
			total += d
		}
		assert.Equal(t, errSum, total, "amplitude %v", amp)
		assert.Equal(t, encState, decState, "amplitude %v", amp)
		state = decState
	}
}

// TestSearchIsMinimal compares the pruned search with a full scan of every
// candidate.
func TestSearchIsMinimal(t *testing.T) {
	var samples [SamplesPerBlock]int16
	copy(samples[:], sineBlock(20000))
	start := State{Hist0: 64 * 500, Hist1: 64 * 400}

	best := search(start, &samples)

	minErr := int64(math.MaxInt64)
	for c := 0; c < NumCoefs; c++ {
		for s := 0; s < NumScales; s++ {
			cand, ok := try(start, &samples, c, s, -1)
			require.True(t, ok)
			if cand.err < minErr {
				minErr = cand.err
			}
		}
	}
	assert.Equal(t, minErr, best.err)
}

func TestRoundTripLoudHistory(t *testing.T) {
	starts := []State{
		{Hist0: -33459258, Hist1: -33451441},
		{Hist0: 4000000000, Hist1: -4000000000},
	}
	for _, start := range starts {
		for _, amp := range []float64{0, 32000} {
			block, encState, errSum, err := EncodeBlock(start, sineBlock(amp))
			require.NoError(t, err)

			out, decState, err := DecodeBlock(start, block[:])
			require.NoError(t, err)
			assert.Equal(t, encState, decState)

			var total int64
			for i, s := range sineBlock(amp) {
				d := int64(s) - int64(out[i])
				if d < 0 {
					d = -d
				}
				total += d
			}
			assert.Equal(t, errSum, total)
		}
	}
}

func BenchmarkEncodeBlock(b *testing.B) {
	samples := sineBlock(12000)
	for i := 0; i < b.N; i++ {
		_, _, _, _ = EncodeBlock(State{}, samples)
	}
}

func BenchmarkDecodeBlock(b *testing.B) {
	block := storedBlock(0x7E, 0x49)
	for i := 0; i < b.N; i++ {
		_, _, _ = DecodeBlock(State{}, block)
	}
}
