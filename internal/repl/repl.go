// Package repl is the interactive prompt: line editing and history through
// liner, one persistent evaluator per session.
package repl

import (
	"bufio"
	"context"
	"ember/internal/errs"
	"ember/internal/evaluator"
	"ember/internal/native"
	"ember/internal/object"
	"ember/internal/parser"
	"ember/internal/runner"
	"ember/internal/token"
	"ember/internal/util"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/peterh/liner"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

// AST_COMMAND prints the parse tree of the rest of the line instead of
// running it.
const AST_COMMAND = ":ast"

// Session buffers input lines until they form complete statements and
// executes them against one evaluator.
type Session struct {
	ev      *evaluator.Evaluator
	reg     *native.Registry
	out     io.Writer
	buf     strings.Builder
	entries int
}

func NewSession(cfg util.Configuration, out io.Writer, logger *slog.Logger) *Session {
	ev, reg := runner.New(cfg, out, logger).NewEvaluator()
	return &Session{ev: ev, reg: reg, out: out}
}

func (s *Session) Close() error {
	return s.reg.Close()
}

// Pending reports whether earlier lines are waiting for more input.
func (s *Session) Pending() bool {
	return s.buf.Len() > 0
}

func (s *Session) Reset() {
	s.buf.Reset()
}

// Feed adds one line. It returns the complete entry once brackets and
// strings balance, and false while more input is needed.
func (s *Session) Feed(ctx context.Context, line string) (string, bool) {
	if s.buf.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), AST_COMMAND) {
		s.showAST(strings.TrimPrefix(strings.TrimSpace(line), AST_COMMAND))
		return line, true
	}

	if s.buf.Len() > 0 {
		s.buf.WriteString("\n")
	}
	s.buf.WriteString(line)

	entry := s.buf.String()
	if needsMoreInput(entry) {
		return "", false
	}
	s.buf.Reset()

	if strings.TrimSpace(entry) != "" {
		s.execute(ctx, entry)
	}
	return entry, true
}

// execute runs one entry, echoing a non-null trailing value. Errors are
// printed and leave the session usable.
func (s *Session) execute(ctx context.Context, src string) {
	src = terminate(src)
	program, err := parser.Parse(src)
	if err != nil {
		printError(s.out, err)
		return
	}

	s.entries++
	s.ev.SetSource(fmt.Sprintf("<repl:%d>", s.entries), src)
	val, err := s.ev.Eval(ctx, program)
	if err != nil {
		printError(s.out, err)
		return
	}
	if val != nil && val != object.NULL {
		io.WriteString(s.out, val.Inspect()+"\n")
	}
}

func (s *Session) showAST(src string) {
	if strings.TrimSpace(src) == "" {
		return
	}
	program, err := parser.Parse(terminate(src))
	if err != nil {
		printError(s.out, err)
		return
	}
	io.WriteString(s.out, parser.RenderASTAsText(program, 0)+"\n")
}

// terminate appends the semicolon a one-line entry usually omits.
func terminate(src string) string {
	trimmed := strings.TrimSpace(src)
	if !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}") {
		return trimmed + ";"
	}
	return src
}

// Complete offers keywords and visible names for the word under the cursor.
func (s *Session) Complete(line string) []string {
	start := len(line)
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	prefix, word := line[:start], line[start:]
	if word == "" {
		return nil
	}

	candidates := append(token.Keywords(), s.ev.Names()...)
	seen := map[string]bool{}
	out := []string{}
	for _, c := range candidates {
		if strings.HasPrefix(c, word) && !seen[c] {
			seen[c] = true
			out = append(out, prefix+c)
		}
	}
	sort.Strings(out)
	return out
}

// Start runs the REPL until exit, quit, end of input or ctx is done. A
// terminal stdin gets line editing; any other reader is read line by line.
// An interrupt while an entry runs cancels that entry only.
func Start(ctx context.Context, in io.Reader, out io.Writer, cfg util.Configuration, logger *slog.Logger) error {
	session := NewSession(cfg, out, logger)
	defer session.Close()

	fmt.Fprintf(out, "ember %s\n", cfg.Version)
	fmt.Fprintln(out, "Type 'exit' or Ctrl+D to quit, ':ast <code>' to see how code parses")

	if f, ok := in.(*os.File); ok && f == os.Stdin {
		return startLiner(ctx, out, cfg, session)
	}

	scanner := bufio.NewScanner(in)
	for ctx.Err() == nil {
		prompt := PROMPT
		if session.Pending() {
			prompt = CONTINUATION_PROMPT
		}
		io.WriteString(out, prompt)

		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit(session, scanner.Text()) {
			return nil
		}
		feed(ctx, session, scanner.Text())
	}
	return nil
}

func startLiner(ctx context.Context, out io.Writer, cfg util.Configuration, session *Session) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(session.Complete)

	if f, err := os.Open(cfg.HistoryFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(cfg.HistoryFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	for ctx.Err() == nil {
		prompt := PROMPT
		if session.Pending() {
			prompt = CONTINUATION_PROMPT
		}

		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				session.Reset()
				fmt.Fprintln(out, "^C")
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return fmt.Errorf("error reading input: %w", err)
		}

		if quit(session, input) {
			return nil
		}
		if entry, done := feed(ctx, session, input); done && strings.TrimSpace(entry) != "" {
			line.AppendHistory(entry)
		}
	}
	return nil
}

// feed runs one line with SIGINT cancelling only what that line executes.
func feed(ctx context.Context, session *Session, input string) (string, bool) {
	entryCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return session.Feed(entryCtx, input)
}

func quit(session *Session, input string) bool {
	trimmed := strings.TrimSpace(input)
	return !session.Pending() && (trimmed == "exit" || trimmed == "quit")
}

func printError(out io.Writer, err error) {
	var e *errs.Error
	if errors.As(err, &e) {
		io.WriteString(out, "error: "+e.Render()+"\n")
		return
	}
	io.WriteString(out, "error: "+err.Error()+"\n")
}

// needsMoreInput reports unbalanced brackets or an open string literal.
// Comments are skipped.
func needsMoreInput(src string) bool {
	depth := 0
	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			}
		case '(', '{', '[':
			depth++
		case ')', '}', ']':
			depth--
		}
	}
	return inString || depth > 0
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
