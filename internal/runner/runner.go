// Package runner performs whole lex, parse and execute passes over source
// files.
package runner

import (
	"context"
	"ember/internal/evaluator"
	"ember/internal/native"
	"ember/internal/parser"
	"ember/internal/util"
	"fmt"
	"io"
	"log/slog"
	"os"
)

type Runner struct {
	cfg    util.Configuration
	out    io.Writer
	logger *slog.Logger
}

func New(cfg util.Configuration, out io.Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{cfg: cfg, out: out, logger: logger}
}

// NewEvaluator builds an evaluator over a fresh registry of the configured
// modules. The caller closes the registry.
func (r *Runner) NewEvaluator(opts ...evaluator.Option) (*evaluator.Evaluator, *native.Registry) {
	reg := native.Standard(r.cfg.Modules)
	opts = append([]evaluator.Option{
		evaluator.WithOutput(r.out),
		evaluator.WithLogger(r.logger),
		evaluator.WithMaxCallDepth(r.cfg.MaxCallDepth),
	}, opts...)
	return evaluator.New(reg, opts...), reg
}

// Run parses all of src before executing any of it.
func (r *Runner) Run(ctx context.Context, name, src string) error {
	program, err := parser.Parse(src)
	if err != nil {
		return err
	}

	ev, reg := r.NewEvaluator(evaluator.WithSource(name, src))
	defer func() {
		if err := reg.Close(); err != nil {
			r.logger.Warn("failed to release native resources", slog.Any("error", err))
		}
	}()

	r.logger.Debug("running", slog.String("source", name))
	return ev.Execute(ctx, program)
}

func (r *Runner) RunFile(ctx context.Context, path string) error {
	src, err := ReadSource(path)
	if err != nil {
		return err
	}
	return r.Run(ctx, path, src)
}

// DumpAST renders the file's AST as indented JSON.
func (r *Runner) DumpAST(path string) (string, error) {
	src, err := ReadSource(path)
	if err != nil {
		return "", err
	}
	program, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	return parser.RenderASTAsJSON(program)
}

func ReadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(data), nil
}
