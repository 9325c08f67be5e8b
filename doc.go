// Package sadl provides a pure Go codec for SADL streamed audio, the
// container used for voice and music streams in Nintendo DS game archives.
//
// # Basic Usage
//
// To decode a stream extracted from an archive:
//
//	s, err := sadl.Read(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pcm, err := s.PCM()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// pcm.Samples holds interleaved 16-bit samples at pcm.SampleRate.
//
// Decoding is resumable: Decode(n) decodes the next n blocks of every
// channel and a later call continues from there, which lets a player feed
// audio out while the rest of the stream is still being decoded.
//
// To re-encode edited audio into an existing stream:
//
//	s.Rewind()
//	if err := s.Encode(channels); err != nil {
//	    log.Fatal(err)
//	}
//	s.Reconcile()
//	out, err := s.Write()
//
// # Container Layout
//
// A stream is a 256-byte header followed by 16-byte blocks. Block n of every
// channel is stored before block n+1 of any channel. The header fields
// used here are:
//   - 0x00: magic "sadl"
//   - 0x31: loop flag
//   - 0x32: channel count
//   - 0x33: coding byte (bits 1-2 sample rate, bits 4-7 coding)
//   - 0x40: total size including the header (little-endian uint32)
//   - 0x54: loop start as a byte offset from the start of the file
//
// All other header bytes are preserved verbatim by Write.
//
// # Codings
//
// Procyon (0xB0) is a predictive ADPCM codec with five fixed predictor
// coefficient pairs and 30 samples per block. Decoding is bit-exact with
// the console decoder, including the rounding of every sample down to a
// multiple of 64. Encoding searches all 60 coefficient/scale pairs per block
// and keeps the one with the smallest total absolute error.
//
// IMA (0x70) is headerless IMA ADPCM with 32 samples per block.
//
// # Thread Safety
//
// Streams are NOT safe for concurrent use. Separate Streams share nothing
// and may be used from different goroutines.
package sadl
