package shell_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/commands"
	"github.com/friture/friture-cli/internal/config"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestExecutor returns an executor with extra mock commands and
// buffered output.
func newTestExecutor() (*shell.Executor, *bytes.Buffer, *bytes.Buffer) {
	reg := commands.NewRegistry()
	reg.Register(&commands.Command{
		Name: "mock-echo",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			fmt.Fprintln(env.Stdout, strings.Join(args, " "))
			return nil
		},
	})
	reg.Register(&commands.Command{
		Name: "mock-fail",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			fmt.Fprintln(env.Stderr, "failing")
			return errors.New("mock failure")
		},
	})
	reg.Register(&commands.Command{
		Name: "mock-cat",
		Run: func(ctx context.Context, s *session.Session, env *commands.ExecutionEnv, args []string) error {
			_, err := io.Copy(env.Stdout, env.Stdin)
			return err
		},
	})

	var stdout, stderr bytes.Buffer
	e := &shell.Executor{
		Registry: reg,
		Session:  session.NewSession(&api.MockReleaseClient{}, config.Default()),
		Env:      commands.ExecutionEnv{Stdin: strings.NewReader(""), Stdout: &stdout, Stderr: &stderr},
	}
	return e, &stdout, &stderr
}

func TestParseCommandChain(t *testing.T) {
	chain, err := shell.ParseCommandChain("download mac -o out > log.txt 2>> err.txt")
	require.NoError(t, err)
	require.Len(t, chain.Commands, 1)

	seg := chain.Commands[0].Segment
	assert.Equal(t, "download", seg.CommandName)
	assert.Equal(t, []string{"mac", "-o", "out"}, seg.Args)
	assert.Equal(t, "log.txt", seg.OutputFile)
	assert.False(t, seg.AppendOutput)
	assert.Equal(t, "err.txt", seg.ErrorFile)
	assert.True(t, seg.AppendError)
}

func TestParseCommandChain_Blank(t *testing.T) {
	chain, err := shell.ParseCommandChain("   ")
	require.NoError(t, err)
	assert.Nil(t, chain)

	chain, err = shell.ParseCommandChain(";")
	require.NoError(t, err)
	assert.Nil(t, chain)
}

func TestParseCommandChain_Errors(t *testing.T) {
	for _, line := range []string{"releases >", "> out.txt", "level <", `iec "-20`} {
		_, err := shell.ParseCommandChain(line)
		assert.Error(t, err, line)
	}
}

func TestExecutor_Chains(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{"mock-echo a && mock-echo b", "a\nb\n", false},
		{"mock-fail && mock-echo b", "", true},
		{"mock-fail || mock-echo b", "b\n", false},
		{"mock-echo a || mock-echo b", "a\n", false},
		{"mock-fail ; mock-echo b", "b\n", false},
		{"mock-echo a ; mock-fail", "a\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			e, stdout, _ := newTestExecutor()
			err := e.ExecuteLine(context.Background(), tt.line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, stdout.String())
		})
	}
}

func TestExecutor_UnknownCommand(t *testing.T) {
	e, _, _ := newTestExecutor()
	err := e.ExecuteLine(context.Background(), "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command not found")
}

func TestExecutor_OutputRedirection(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	e, stdout, _ := newTestExecutor()

	require.NoError(t, e.ExecuteLine(context.Background(), "mock-echo first > "+out))
	require.NoError(t, e.ExecuteLine(context.Background(), "mock-echo second >> "+out))
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	require.NoError(t, e.ExecuteLine(context.Background(), "mock-echo third > "+out))
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(data))
}

func TestExecutor_StderrRedirection(t *testing.T) {
	dir := t.TempDir()
	errFile := filepath.Join(dir, "err.txt")
	e, _, stderr := newTestExecutor()

	assert.Error(t, e.ExecuteLine(context.Background(), "mock-fail 2> "+errFile))
	assert.Empty(t, stderr.String())
	data, err := os.ReadFile(errFile)
	require.NoError(t, err)
	assert.Equal(t, "failing\n", string(data))

	all := filepath.Join(dir, "all.txt")
	assert.Error(t, e.ExecuteLine(context.Background(), "mock-fail &> "+all))
	data, err = os.ReadFile(all)
	require.NoError(t, err)
	assert.Equal(t, "failing\n", string(data))
}

func TestExecutor_MergeStderrIntoStdout(t *testing.T) {
	e, stdout, stderr := newTestExecutor()

	assert.Error(t, e.ExecuteLine(context.Background(), "mock-fail 2>&1"))
	assert.Equal(t, "failing\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestExecutor_InputRedirection(t *testing.T) {
	in := filepath.Join(t.TempDir(), "samples.txt")
	require.NoError(t, os.WriteFile(in, []byte("0.5 -0.5"), 0644))
	e, stdout, _ := newTestExecutor()

	require.NoError(t, e.ExecuteLine(context.Background(), "mock-cat < "+in))
	assert.Equal(t, "0.5 -0.5", stdout.String())

	err := e.ExecuteLine(context.Background(), "mock-cat < "+filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestExecutor_RealCommand(t *testing.T) {
	e, stdout, _ := newTestExecutor()

	require.NoError(t, e.ExecuteLine(context.Background(), "bytes 1024 && iec --raw -20"))
	assert.Equal(t, "1024\t1.0 kB\n0.5\n", stdout.String())
}

func TestExecutor_CancelledContext(t *testing.T) {
	e, stdout, _ := newTestExecutor()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.ExecuteLine(ctx, "mock-echo a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, stdout.String())
}
