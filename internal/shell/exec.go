package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/friture/friture-cli/internal/commands"
	"github.com/friture/friture-cli/internal/session"
)

// CommandChain represents a sequence of commands connected by &&, ||, or ;
type CommandChain struct {
	Commands []ChainedSegment
}

// ChainedSegment is a command with the operator connecting it to the next one.
type ChainedSegment struct {
	Segment  *Segment
	Operator ChainOperator // operator AFTER this command
}

// Segment is a single command with optional redirection to local files.
type Segment struct {
	Args         []string
	CommandName  string
	InputFile    string // < file
	OutputFile   string // > or >> file
	ErrorFile    string // 2> or 2>> file
	AppendOutput bool   // >> instead of >
	AppendError  bool   // 2>> instead of 2>
	MergeStderr  bool   // 2>&1
}

// ParseCommandChain parses a command line into a CommandChain.
// It returns nil for a blank line.
func ParseCommandChain(line string) (*CommandChain, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}

	tokens, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	chain := &CommandChain{}
	for _, cc := range SplitByChain(tokens) {
		if len(cc.Tokens) == 0 {
			// Empty command before an operator, e.g. "; releases"
			continue
		}
		seg, err := parseSegment(cc.Tokens)
		if err != nil {
			return nil, err
		}
		chain.Commands = append(chain.Commands, ChainedSegment{Segment: seg, Operator: cc.Operator})
	}

	if len(chain.Commands) == 0 {
		return nil, nil
	}
	return chain, nil
}

// parseSegment extracts command, args, and redirections from tokens.
func parseSegment(tokens []Token) (*Segment, error) {
	seg := &Segment{}
	var cmdTokens []Token

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		switch tok.Type {
		case TokenWord:
			cmdTokens = append(cmdTokens, tok)

		case TokenRedirectIn:
			file, err := expectFilename(tokens, i, "<")
			if err != nil {
				return nil, err
			}
			seg.InputFile = file
			i++

		case TokenRedirectOut, TokenRedirectAppend:
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.OutputFile = file
			seg.AppendOutput = tok.Type == TokenRedirectAppend
			i++

		case TokenRedirectErr, TokenRedirectErrAppend:
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.ErrorFile = file
			seg.AppendError = tok.Type == TokenRedirectErrAppend
			i++

		case TokenRedirectAll:
			file, err := expectFilename(tokens, i, tok.Value)
			if err != nil {
				return nil, err
			}
			seg.OutputFile = file
			seg.MergeStderr = true
			i++

		case TokenRedirectErrToOut:
			seg.MergeStderr = true
		}
	}

	if len(cmdTokens) == 0 {
		return nil, fmt.Errorf("syntax error: empty command")
	}

	seg.CommandName = cmdTokens[0].Value
	for _, tok := range cmdTokens[1:] {
		seg.Args = append(seg.Args, tok.Value)
	}
	return seg, nil
}

func expectFilename(tokens []Token, i int, op string) (string, error) {
	if i+1 >= len(tokens) || tokens[i+1].Type != TokenWord {
		return "", fmt.Errorf("syntax error: missing filename after '%s'", op)
	}
	return tokens[i+1].Value, nil
}

// Executor runs parsed command lines against a registry.
type Executor struct {
	Registry *commands.Registry
	Session  *session.Session
	// Env is the default I/O; redirections replace parts of it per command.
	Env commands.ExecutionEnv
}

// NewExecutor returns an executor wired to the process's standard streams.
func NewExecutor(reg *commands.Registry, s *session.Session) *Executor {
	return &Executor{
		Registry: reg,
		Session:  s,
		Env:      commands.ExecutionEnv{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr},
	}
}

// ExecuteLine parses and runs one command line.
func (e *Executor) ExecuteLine(ctx context.Context, line string) error {
	chain, err := ParseCommandChain(line)
	if err != nil {
		return err
	}
	return e.Execute(ctx, chain)
}

// Execute runs the command chain, respecting &&, ||, and ; semantics.
func (e *Executor) Execute(ctx context.Context, c *CommandChain) error {
	if c == nil || len(c.Commands) == 0 {
		return nil
	}

	var lastErr error
	for i, cs := range c.Commands {
		// Determine whether to run this command based on previous result
		shouldRun := true
		if i > 0 {
			switch c.Commands[i-1].Operator {
			case ChainAnd:
				shouldRun = lastErr == nil
			case ChainOr:
				shouldRun = lastErr != nil
			}
		}
		if !shouldRun {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = e.executeSegment(ctx, cs.Segment)
	}

	return lastErr
}

func (e *Executor) executeSegment(ctx context.Context, seg *Segment) error {
	env, closers, err := e.setupRedirection(seg)
	if err != nil {
		return err
	}

	runErr := e.Registry.Execute(ctx, e.Session, env, seg.CommandName, seg.Args)
	closeErr := closeAllWithError(closers)

	// Return command error first, then close error
	if runErr != nil {
		return runErr
	}
	return closeErr
}

// setupRedirection creates an ExecutionEnv with proper I/O redirection.
func (e *Executor) setupRedirection(seg *Segment) (*commands.ExecutionEnv, []io.Closer, error) {
	env := e.Env
	var closers []io.Closer

	if seg.InputFile != "" {
		f, err := os.Open(seg.InputFile)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", seg.InputFile, err)
		}
		closers = append(closers, f)
		env.Stdin = f
	}

	if seg.OutputFile != "" {
		w, err := openOutputWriter(seg.OutputFile, seg.AppendOutput)
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("%s: %w", seg.OutputFile, err)
		}
		closers = append(closers, w)
		env.Stdout = w
	}

	// Handle 2>&1
	if seg.MergeStderr {
		env.Stderr = env.Stdout
	}

	// Stderr redirection (only if not merged)
	if seg.ErrorFile != "" && !seg.MergeStderr {
		w, err := openOutputWriter(seg.ErrorFile, seg.AppendError)
		if err != nil {
			closeAll(closers)
			return nil, nil, fmt.Errorf("%s: %w", seg.ErrorFile, err)
		}
		closers = append(closers, w)
		env.Stderr = w
	}

	return &env, closers, nil
}

func openOutputWriter(path string, append bool) (io.WriteCloser, error) {
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if append {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	return os.OpenFile(path, flag, 0644)
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

// closeAllWithError closes all closers and returns the first error encountered.
func closeAllWithError(closers []io.Closer) error {
	var firstErr error
	for _, c := range closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
