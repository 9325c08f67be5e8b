package output

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// WAVE format errors.
var (
	ErrNotWAV        = errors.New("output: not a RIFF/WAVE file")
	ErrWAVFormat     = errors.New("output: only 16-bit integer PCM is supported")
	ErrWAVMissingFmt = errors.New("output: data chunk before fmt chunk")
	ErrWAVNoData     = errors.New("output: no data chunk")
)

const formatPCM = 1

// WAV is a 16-bit PCM clip with frame-interleaved samples.
type WAV struct {
	Channels   int
	SampleRate int
	Samples    []int16
}

// WriteWAV writes w as a canonical 44-byte-header RIFF/WAVE file.
func WriteWAV(out io.Writer, w *WAV) error {
	const bitsPerSample = 16
	blockAlign := w.Channels * bitsPerSample / 8
	dataLen := len(w.Samples) * 2

	var hdr [44]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(36+dataLen))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], uint16(w.Channels))
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(w.SampleRate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(w.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(hdr[34:36], bitsPerSample)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(dataLen))

	if _, err := out.Write(hdr[:]); err != nil {
		return err
	}

	buf := make([]byte, dataLen)
	for i, s := range w.Samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	_, err := out.Write(buf)
	return err
}

// ReadWAV reads a 16-bit PCM RIFF/WAVE file. Chunks other than "fmt " and
// "data" are skipped.
func ReadWAV(in io.Reader) (*WAV, error) {
	var riff [12]byte
	if _, err := io.ReadFull(in, riff[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotWAV, err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWAV
	}

	var w *WAV
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(in, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrWAVNoData
			}
			return nil, err
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			body, err := readChunk(in, size)
			if err != nil {
				return nil, err
			}
			if size < 16 {
				return nil, ErrWAVFormat
			}
			format := binary.LittleEndian.Uint16(body[0:2])
			bits := binary.LittleEndian.Uint16(body[14:16])
			if format != formatPCM || bits != 16 {
				return nil, ErrWAVFormat
			}
			w = &WAV{
				Channels:   int(binary.LittleEndian.Uint16(body[2:4])),
				SampleRate: int(binary.LittleEndian.Uint32(body[4:8])),
			}

		case "data":
			if w == nil {
				return nil, ErrWAVMissingFmt
			}
			body, err := readChunk(in, size)
			if err != nil {
				return nil, err
			}
			w.Samples = make([]int16, size/2)
			for i := range w.Samples {
				w.Samples[i] = int16(binary.LittleEndian.Uint16(body[i*2:]))
			}
			return w, nil

		default:
			if _, err := io.CopyN(io.Discard, in, size); err != nil {
				return nil, err
			}
		}

		// Chunks are word aligned.
		if size%2 == 1 {
			if _, err := io.CopyN(io.Discard, in, 1); err != nil {
				return nil, err
			}
		}
	}
}

// readChunk reads a chunk body of the declared size. The buffer grows with
// the data actually read, so a bogus size cannot force a huge allocation.
func readChunk(in io.Reader, size int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(in, size))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) != size {
		return nil, io.ErrUnexpectedEOF
	}
	return body, nil
}
