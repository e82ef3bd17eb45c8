package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"slug/internal/ast"
	"slug/internal/diag"
	"slug/internal/interpreter"
	"slug/internal/lexer"
	"slug/internal/log"
	"slug/internal/parser"
	"slug/internal/runtime"
	"slug/internal/types"
	"slug/internal/util"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	debugAST  bool
	logLevel  string
	logFile   string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.BoolVar(&debugAST, "debug-ast", false, "Dump the parsed AST before type-checking")
	flag.StringVar(&logLevel, "log-level", "NONE", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	log.InitLogger(logLevel, logFile, true)
	defer log.Close()

	slog.SetDefault(slog.New(slog.NewJSONHandler(slogWriter(), &slog.HandlerOptions{Level: slog.LevelError})))

	config := util.Configuration{
		SourcePath: flag.Arg(0),
		DebugAST:   debugAST,
		LogLevel:   logLevel,
		LogFile:    logFile,
	}

	if config.SourcePath == "" {
		fmt.Fprintln(os.Stderr, "slug: no source file given")
		printHelp()
		os.Exit(1)
	}

	src, err := os.ReadFile(config.SourcePath)
	if err != nil {
		log.Error("could not read %s: %v", config.SourcePath, err)
		fmt.Fprintf(os.Stderr, "slug: could not read %s: %v\n", config.SourcePath, err)
		os.Exit(1)
	}

	log.Info("starting %s", config.SourcePath)
	os.Exit(run(string(src), config))
}

// run drives the lexer -> parser -> type checker -> interpreter pipeline
// for one source file and returns the process exit code.
func run(src string, config util.Configuration) int {
	sink := diag.NewSink(src)

	toks := lexer.Tokens(src, sink)
	prog := parser.New(toks, src, sink).Parse()

	if config.DebugAST {
		ast.Print(os.Stdout, prog)
	}

	types.Check(prog, sink)

	if !sink.HadError() {
		out := runtime.NewSink(os.Stdout)
		interpreter.New(out, sink).Run(prog)
	}

	if sink.Total() > 0 {
		sink.Render(os.Stderr)
	}

	if sink.HadError() {
		log.Error("exiting with %d error(s)", sink.Total())
		return 1
	}
	log.Info("exiting cleanly")
	return 0
}

func slogWriter() *os.File {
	if logFile == "" {
		return os.Stderr
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return os.Stderr
	}
	fh, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return os.Stderr
	}
	return fh
}

func printVersion() {
	fmt.Printf("slug version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: slug [options] <filename>

Options:
  -debug-ast         Dump the parsed AST before type-checking.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Examples:
  slug myfile.slug              Run the given source file
  slug -debug-ast myfile.slug   Print the AST before running it

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
