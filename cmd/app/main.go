package main

import (
	"context"
	"ember/internal/errs"
	"ember/internal/repl"
	"ember/internal/runner"
	"ember/internal/util"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
)

var (
	// Version is stamped at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configFile string
	rootPath   string
	maxDepth   int
	debugAST   bool
	// modes
	replMode bool
	watch    bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configFile, "config", util.DefaultConfigFile, "Configuration file")
	// evaluator config
	flag.StringVar(&rootPath, "root", ".", "Set the root directory for the program")
	flag.IntVar(&maxDepth, "max-depth", 512, "Maximum call depth")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Print the AST as JSON instead of running")
	// log config
	flag.StringVar(&logLevel, "log-level", "none", "Log level: debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
	// modes
	flag.BoolVar(&replMode, "repl", false, "Start the interactive prompt")
	flag.BoolVar(&watch, "watch", false, "Re-run the file whenever it changes")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if version {
		printVersion()
		return 0
	}
	if help {
		printHelp()
		return 0
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Creates a new Logger that uses a JSONHandler to write to the log writer
	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.LogLevel),
	}
	logWriter := configureLogWriter(config)
	if f, ok := logWriter.(*os.File); ok && f != os.Stderr {
		defer f.Close()
	}
	logger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(logger)

	// the REPL installs its own interrupt handling per entry
	if replMode {
		if err := repl.Start(context.Background(), os.Stdin, os.Stdout, config, logger); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	if flag.NArg() == 0 {
		printHelp()
		return 0
	}
	path := flag.Arg(0)
	if !filepath.IsAbs(path) {
		path = filepath.Join(config.RootPath, path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := runner.New(config, os.Stdout, logger)

	if config.DebugAST {
		js, err := r.DumpAST(path)
		if err != nil {
			reportError(path, err)
			return 1
		}
		fmt.Print(js)
		return 0
	}

	if watch {
		err := r.Watch(ctx, path, func(err error) {
			if err != nil {
				reportError(path, err)
			}
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := r.RunFile(ctx, path); err != nil {
		reportError(path, err)
		return 1
	}
	return 0
}

// loadConfiguration layers the YAML file over the defaults, then any flag
// given explicitly on the command line over both.
func loadConfiguration() (util.Configuration, error) {
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	config, err := util.LoadConfiguration(configFile, set["config"])
	if err != nil {
		return config, err
	}

	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit

	if set["root"] {
		config.RootPath = rootPath
	}
	if set["max-depth"] {
		config.MaxCallDepth = maxDepth
	}
	if set["debug-ast"] {
		config.DebugAST = debugAST
	}
	if set["log-level"] {
		config.LogLevel = strings.ToLower(logLevel)
	}
	if set["log-file"] {
		config.LogFile = logFile
	}
	return config, config.Validate()
}

// reportError prints the rendered error and, when it carries a position,
// the offending source lines.
func reportError(path string, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "error: %s\n", e.Render())
	if e.Line == 0 {
		return
	}
	if src, readErr := runner.ReadSource(path); readErr == nil {
		fmt.Fprint(os.Stderr, util.GetContextLines(src, e.Line, e.Column))
	}
}

func configureLogWriter(config util.Configuration) io.Writer {
	if config.LogFile == "" {
		return os.Stderr
	}
	// Create parent directories if they don't exist
	if err := os.MkdirAll(filepath.Dir(config.LogFile), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", config.LogFile, err)
		return os.Stderr
	}
	logWriter, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", config.LogFile, err)
		return os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("ember version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: ember [options] [filename]

Options:
  -repl              Start the interactive prompt.
  -watch             Run the file, then run it again whenever it changes.
  -config <path>     Read configuration from a YAML file. Default is 'ember.yaml'.
  -root <path>       Resolve the filename against this directory. Default is '.'
  -max-depth <n>     Maximum call depth before a StackError. Default is 512.
  -debug-ast         Print the AST as JSON instead of running.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Examples:
  ember -repl                   Start the interactive prompt
  ember script.em               Execute the provided file
  ember -watch script.em        Re-run the file on every save
  ember -log-level=debug x.em   Execute with debug logging enabled

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

// logLevelFromString maps "none" above every real level so nothing is logged.
func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}
