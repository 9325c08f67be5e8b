package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/llehouerou/go-sadl"
	"github.com/llehouerou/go-sadl/internal/output"
)

func runInfo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	files, err := parseCommand(fs, args)
	if err != nil {
		return err
	}

	for _, path := range files {
		s, err := readStream(path)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, describe(path, s))
	}
	return nil
}

func describe(path string, s *sadl.Stream) string {
	seconds := float64(s.SampleCount()) / float64(s.SampleRate())
	loop := "off"
	if s.Loop() {
		loop = fmt.Sprintf("from sample %d", s.LoopSample())
	}
	return fmt.Sprintf("%s: %s, %d ch, %d Hz, %d bytes, %d samples (%.2fs), loop %s",
		path, s.Coding(), s.Channels(), s.SampleRate(), s.ByteSize(), s.SampleCount(), seconds, loop)
}

type decodeOptions struct {
	outDir string
	gain   float64
}

func runDecode(ctx context.Context, logger *slog.Logger, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts decodeOptions
	fs.StringVar(&opts.outDir, "o", "", "output `directory` (default: next to each input)")
	fs.Float64Var(&opts.gain, "gain", 1, "scale decoded samples by `factor`")
	jobs := fs.Int("j", runtime.NumCPU(), "number of files converted in parallel")
	files, err := parseCommand(fs, args)
	if err != nil {
		return err
	}

	if err := makeOutDir(opts.outDir); err != nil {
		return err
	}

	return forEach(ctx, *jobs, files, func(in string) error {
		out, err := decodeFile(in, opts)
		if err != nil {
			return err
		}
		logger.Debug("decoded", slog.String("in", in), slog.String("out", out))
		return nil
	})
}

// decodeFile converts the SADL stream at in to a WAVE file and returns the
// path written.
func decodeFile(in string, opts decodeOptions) (string, error) {
	s, err := readStream(in)
	if err != nil {
		return "", err
	}
	pcm, err := s.PCM()
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}

	samples := pcm.Samples
	if opts.gain != 1 {
		samples = output.Gain(samples, float32(opts.gain))
	}

	out := outputPath(in, opts.outDir, ".wav")
	err = writeFile(out, func(w io.Writer) error {
		return output.WriteWAV(w, &output.WAV{
			Channels:   pcm.Channels,
			SampleRate: pcm.SampleRate,
			Samples:    samples,
		})
	})
	return out, err
}

type encodeOptions struct {
	outDir string
	coding sadl.Coding
	rate   int // 0 keeps the WAVE rate
	loop   int // negative disables looping
}

func runEncode(ctx context.Context, logger *slog.Logger, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts encodeOptions
	fs.StringVar(&opts.outDir, "o", "", "output `directory` (default: next to each input)")
	codingName := fs.String("coding", "procyon", "block coding: procyon or ima")
	fs.IntVar(&opts.rate, "rate", 0, "stream sample rate, 16364 or 32728 (default: the WAVE rate)")
	fs.IntVar(&opts.loop, "loop", -1, "loop start `sample`; negative disables looping")
	jobs := fs.Int("j", runtime.NumCPU(), "number of files converted in parallel")
	files, err := parseCommand(fs, args)
	if err != nil {
		return err
	}

	opts.coding, err = parseCoding(*codingName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errUsage
	}

	if err := makeOutDir(opts.outDir); err != nil {
		return err
	}

	return forEach(ctx, *jobs, files, func(in string) error {
		out, err := encodeFile(in, opts)
		if err != nil {
			return err
		}
		logger.Debug("encoded", slog.String("in", in), slog.String("out", out), slog.String("coding", opts.coding.String()))
		return nil
	})
}

func parseCoding(name string) (sadl.Coding, error) {
	switch strings.ToLower(name) {
	case "procyon":
		return sadl.CodingProcyon, nil
	case "ima":
		return sadl.CodingIMA, nil
	}
	return 0, fmt.Errorf("unknown coding %q", name)
}

// encodeFile converts the WAVE file at in to a SADL stream and returns the
// path written.
func encodeFile(in string, opts encodeOptions) (string, error) {
	f, err := os.Open(in)
	if err != nil {
		return "", err
	}
	w, err := output.ReadWAV(bufio.NewReader(f))
	f.Close()
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}

	rate := opts.rate
	if rate == 0 {
		rate = w.SampleRate
	}
	s, err := sadl.New(sadl.Config{
		Channels:   w.Channels,
		Coding:     opts.coding,
		SampleRate: rate,
		Loop:       opts.loop >= 0,
		LoopSample: max(opts.loop, 0),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}
	if err := s.EncodePCM(w.Samples); err != nil {
		return "", fmt.Errorf("%s: %w", in, err)
	}
	s.Reconcile()

	out := outputPath(in, opts.outDir, ".sadl")
	err = writeFile(out, func(w io.Writer) error {
		_, err := s.WriteTo(w)
		return err
	})
	return out, err
}

// forEach runs fn on every file with at most jobs running at once. The
// first error cancels the files not yet started.
func forEach(ctx context.Context, jobs int, files []string, fn func(string) error) error {
	if jobs < 1 {
		jobs = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, file := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(file)
		})
	}
	return g.Wait()
}

func readStream(path string) (*sadl.Stream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := sadl.Read(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func outputPath(in, dir, ext string) string {
	name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ext
	if dir == "" {
		dir = filepath.Dir(in)
	}
	return filepath.Join(dir, name)
}

func makeOutDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// writeFile creates path and fills it through a buffered writer.
func writeFile(path string, fill func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fill(bw); err != nil {
		return err
	}
	return bw.Flush()
}
