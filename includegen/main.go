// Entry point for includegen, which checks binding manifests, generates the code which exposes their bindings and
// decodes array literals.
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
	"path"
	"strings"

	"github.com/chzyer/readline"

	"github.com/marcuscaisey/lazyinclude/include"
	"github.com/marcuscaisey/lazyinclude/include/arraylit"
	"github.com/marcuscaisey/lazyinclude/include/ast"
	"github.com/marcuscaisey/lazyinclude/include/binding"
	"github.com/marcuscaisey/lazyinclude/include/gen"
	"github.com/marcuscaisey/lazyinclude/include/manifest"
	"github.com/marcuscaisey/lazyinclude/include/parser"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type config struct {
	cmd      string
	typeName string
	length   int
	printAST bool
	check    bool
	verify   bool
	verbose  bool
}

// run runs includegen with the given arguments and returns the exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("includegen", flag.ContinueOnError)
	flags.SetOutput(stderr)
	cfg := &config{}
	flags.StringVar(&cfg.cmd, "c", "", "Array literal passed in as string")
	flags.StringVar(&cfg.typeName, "type", "", "Element type of the array literals read from -c or the REPL, such as u8 or &str")
	flags.IntVar(&cfg.length, "len", -1, "Number of elements that arrays read from -c or the REPL must have, or -1 for any")
	flags.BoolVar(&cfg.printAST, "p", false, "Print the AST of the array literal only")
	flags.BoolVar(&cfg.check, "check", false, "Resolve every binding in the manifest and report any errors instead of generating code")
	flags.BoolVar(&cfg.verify, "verify", false, "Report whether the generated code for the manifest is up to date instead of generating it")
	flags.BoolVar(&cfg.verbose, "v", false, "Log debug messages")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "Usage: includegen [options] [manifest]\n")
		fmt.Fprintf(flags.Output(), "\n")
		fmt.Fprintf(flags.Output(), "With a manifest, generates the code for its bindings. Without one, decodes the array literal passed with -c or\n")
		fmt.Fprintf(flags.Output(), "starts a REPL which decodes each line.\n")
		fmt.Fprintf(flags.Output(), "\n")
		fmt.Fprintf(flags.Output(), "Options:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var err error
	switch {
	case cfg.cmd != "":
		err = decode(cfg, cfg.cmd, stdout)
	case flags.NArg() == 0 && (cfg.typeName != "" || cfg.printAST):
		err = runREPL(cfg, stdin, stdout, stderr)
	case flags.NArg() == 1 && cfg.check:
		err = check(ctx, flags.Arg(0), logger)
	case flags.NArg() == 1 && cfg.verify:
		err = verify(ctx, flags.Arg(0), stdout)
	case flags.NArg() == 1:
		err = generate(ctx, flags.Arg(0), logger)
	default:
		flags.Usage()
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

// decode decodes the array literal in src and prints its elements.
func decode(cfg *config, src string, stdout io.Writer) error {
	if cfg.printAST {
		root, err := parser.Parse([]byte(src), "")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, ast.Sprint(root))
		return nil
	}
	if cfg.typeName == "" {
		return errors.New("-type must be set to decode an array literal")
	}
	desc, ok := arraylit.Lookup(cfg.typeName)
	if !ok {
		return fmt.Errorf("unknown element type %q, expected one of %s", cfg.typeName, strings.Join(arraylit.Names(), ", "))
	}
	values, err := arraylit.DecodeValues([]byte(src), "", desc, cfg.length)
	if err != nil {
		return err
	}
	elems := make([]string, len(values))
	for i, v := range values {
		elems[i] = v.String()
	}
	fmt.Fprintf(stdout, "[%s]\n", strings.Join(elems, ", "))
	return nil
}

func runREPL(cfg *config, stdin io.Reader, stdout, stderr io.Writer) error {
	rlCfg := &readline.Config{
		Prompt: ">>> ",
		Stdin:  io.NopCloser(stdin),
		Stdout: stdout,
		Stderr: stderr,
	}

	homeDir, err := os.UserHomeDir()
	if err == nil {
		rlCfg.HistoryFile = path.Join(homeDir, ".includegen_history")
	} else {
		fmt.Fprintf(stderr, "Can't get current user's home directory (%s). Command history will not be saved.\n", err)
	}

	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("running includegen REPL: %s", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("running includegen REPL: %s", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := decode(cfg, line, stdout); err != nil {
			fmt.Fprintln(stderr, err)
		}
	}

	return nil
}

// check resolves every binding in the manifest at path and returns an error describing each one which failed.
func check(ctx context.Context, path string, logger *slog.Logger) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	reg := binding.NewRegistry(binding.WithRoot(m.Dir), binding.WithLogger(logger))
	m.Declare(reg)
	err = reg.Preload(ctx)
	if err == nil {
		logger.Info("All bindings resolved", "manifest", path, "bindings", len(m.Bindings))
		return nil
	}

	var errs include.Errors
	var other []error
	for _, err := range unwrapJoined(err) {
		var includeErr *include.Error
		if errors.As(err, &includeErr) {
			errs.Add(includeErr)
		} else {
			other = append(other, err)
		}
	}
	return errors.Join(append([]error{errs.Err()}, other...)...)
}

func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

func generate(ctx context.Context, path string, logger *slog.Logger) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	_, err = gen.Generate(ctx, m, logger)
	return err
}

// verify returns an error if the code generated for the manifest at path differs from the code on disk, after
// printing the differences.
func verify(ctx context.Context, path string, stdout io.Writer) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	files, err := gen.Render(ctx, m)
	if err != nil {
		return err
	}
	diff, err := gen.Diff(files)
	if err != nil {
		return err
	}
	if diff != "" {
		fmt.Fprint(stdout, diff)
		return fmt.Errorf("generated code for %s is out of date, run includegen %s", path, path)
	}
	return nil
}
