// Command sadlconv inspects SADL streams and converts them to and from
// 16-bit PCM WAVE files.
//
// Usage:
//
//	sadlconv [-v] [-profile cpu|mem] info FILE...
//	sadlconv [-v] [-profile cpu|mem] decode [-o DIR] [-j N] [-gain G] FILE...
//	sadlconv [-v] [-profile cpu|mem] encode [-o DIR] [-j N] [-coding procyon|ima] [-rate HZ] [-loop SAMPLE] FILE...
//
// decode writes NAME.wav for every NAME.sadl, encode writes NAME.sadl for
// every NAME.wav. Output goes next to the input unless -o is given.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/pkg/profile"
)

const usage = `usage: sadlconv [-v] [-profile cpu|mem] <command> [flags] FILE...

commands:
  info     print the header fields of SADL streams
  decode   convert SADL streams to WAVE files
  encode   convert WAVE files to SADL streams

global flags:
`

// errUsage marks command-line mistakes, reported with exit status 2.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sadlconv", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "log every file as it is processed")
	prof := fs.String("profile", "", "write a `cpu` or `mem` profile to the current directory")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	switch *prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet).Stop()
	default:
		logger.Error("unknown profile mode", slog.String("mode", *prof))
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	var err error
	switch cmd, cmdArgs := rest[0], rest[1:]; cmd {
	case "info":
		err = runInfo(cmdArgs, stdout, stderr)
	case "decode":
		err = runDecode(ctx, logger, cmdArgs, stderr)
	case "encode":
		err = runEncode(ctx, logger, cmdArgs, stderr)
	default:
		logger.Error("unknown command", slog.String("command", cmd))
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	default:
		logger.Error("failed", slog.Any("error", err))
		return 1
	}
}

// parseCommand parses the flags of a subcommand and returns its file
// arguments, of which there must be at least one.
func parseCommand(fs *flag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(fs.Output(), "%s: no input files\n", fs.Name())
		return nil, errUsage
	}
	return fs.Args(), nil
}
