package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/commands"
	"github.com/friture/friture-cli/internal/config"
	"github.com/friture/friture-cli/internal/logger"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/ui"
	"go.uber.org/zap"
)

// Shell is the interactive REPL.
type Shell struct {
	Session        *session.Session
	Executor       *Executor
	RL             *readline.Instance
	historyPath    string
	sessionHistory []string // Commands from current session (for !!, !-n)
}

// New creates a new Shell running commands from reg.
func New(s *session.Session, reg *commands.Registry) (*Shell, error) {
	historyPath, _ := config.HistoryPath()
	if historyPath != "" {
		if dir, err := config.ConfigDir(); err == nil {
			_ = os.MkdirAll(dir, 0700)
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "friture> ",
		HistoryFile:       historyPath,
		HistoryLimit:      s.Config.HistorySize,
		HistorySearchFold: true,
		AutoComplete:      NewCompleter(reg, s.Config.Aliases),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
	})
	if err != nil {
		return nil, err
	}

	shell := &Shell{
		Session:     s,
		Executor:    NewExecutor(reg, s),
		RL:          rl,
		historyPath: historyPath,
	}

	// Set history getter on session so commands can access it
	s.HistoryGetter = shell.GetHistory

	return shell, nil
}

// buildPrompt shows the repository and, once fetched, its latest tag.
func (sh *Shell) buildPrompt() string {
	tag := ""
	if rel := sh.Session.CachedRelease(); rel != nil {
		tag = rel.TagName
	}
	return ui.RenderPrompt("friture", sh.Session.Config.Repo, tag)
}

// Run starts the REPL loop. It returns when the user exits.
func (sh *Shell) Run(ctx context.Context) {
	defer sh.RL.Close()

	fmt.Fprintf(sh.RL.Stdout(), "Type %s for a list of commands, %s to leave.\n",
		ui.CommandStyle.Render("help"), ui.CommandStyle.Render("exit"))

	for {
		sh.RL.SetPrompt(sh.buildPrompt())

		line, err := sh.RL.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF or Ctrl+D
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		// Handle history expansion (!n)
		if strings.HasPrefix(line, "!") && len(line) > 1 {
			expanded, err := sh.expandHistory(line)
			if err != nil {
				sh.printError(err)
				continue
			}
			line = expanded
			fmt.Fprintln(sh.RL.Stdout(), line) // Show the expanded command
		}

		if expanded, wasAlias := ExpandAlias(line, sh.Session.Config.Aliases); wasAlias {
			line = expanded
		}

		sh.sessionHistory = append(sh.sessionHistory, line)
		sh.execute(ctx, line)
	}
}

// execute runs one line; Ctrl+C cancels the running command, not the shell.
func (sh *Shell) execute(ctx context.Context, line string) {
	cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	logger.L().Debug("execute", zap.String("line", line))
	if err := sh.Executor.ExecuteLine(cmdCtx, line); err != nil {
		sh.printError(err)
	}
}

func (sh *Shell) printError(err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		msg = "GitHub rejected the token. Check FRITURE_GITHUB_TOKEN or the token in your config."
	case errors.Is(err, context.Canceled):
		msg = "interrupted"
	}
	PrintError(sh.RL.Stderr(), msg)
}

// PrintError writes a command failure the way the shell reports it.
func PrintError(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", ui.ErrorStyle.Render("friture:"), msg)
}

// expandHistory handles !n and !! syntax for history expansion
func (sh *Shell) expandHistory(line string) (string, error) {
	return ExpandHistory(line, sh.sessionHistory, sh.GetHistory())
}

// ExpandHistory resolves a history reference. !! and !-n look at the
// current session; !n and !prefix look at the full history.
func ExpandHistory(line string, sessionHistory, history []string) (string, error) {
	// !! - last command from current session
	if line == "!!" {
		if len(sessionHistory) == 0 {
			return "", fmt.Errorf("!!: event not found")
		}
		return sessionHistory[len(sessionHistory)-1], nil
	}

	// !-n - nth previous command from current session
	if strings.HasPrefix(line, "!-") {
		nStr := line[2:]
		n, err := strconv.Atoi(nStr)
		if err != nil || n < 1 {
			return "", fmt.Errorf("!-%s: event not found", nStr)
		}
		idx := len(sessionHistory) - n
		if idx < 0 {
			return "", fmt.Errorf("!-%s: event not found", nStr)
		}
		return sessionHistory[idx], nil
	}

	if !strings.HasPrefix(line, "!") {
		return line, nil
	}
	if len(history) == 0 {
		return "", fmt.Errorf("no history available")
	}

	nStr := line[1:]
	n, err := strconv.Atoi(nStr)
	if err != nil {
		// !string - search for command starting with string
		for i := len(history) - 1; i >= 0; i-- {
			if strings.HasPrefix(history[i], nStr) {
				return history[i], nil
			}
		}
		return "", fmt.Errorf("!%s: event not found", nStr)
	}
	if n < 1 || n > len(history) {
		return "", fmt.Errorf("!%d: event not found", n)
	}
	return history[n-1], nil
}

// GetHistory returns the full history from the file (readline keeps it up-to-date)
func (sh *Shell) GetHistory() []string {
	if sh.historyPath == "" {
		return sh.sessionHistory
	}
	data, err := os.ReadFile(sh.historyPath)
	if err != nil {
		return sh.sessionHistory // Fallback to session history
	}

	var history []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			history = append(history, line)
		}
	}
	return history
}
