package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/friture/friture-cli/internal/api"
	"github.com/friture/friture-cli/internal/build"
	"github.com/friture/friture-cli/internal/commands"
	"github.com/friture/friture-cli/internal/config"
	"github.com/friture/friture-cli/internal/logger"
	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/shell"
	"github.com/friture/friture-cli/internal/ui"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 1 && (args[0] == "--version" || args[0] == "-v") {
		fmt.Println(build.String())
		return 0
	}

	// Load configuration from file or environment
	cfg, err := config.Load()
	if err != nil {
		shell.PrintError(os.Stderr, fmt.Sprintf("error loading config: %v", err))
		return 1
	}

	if dir, err := config.LogDir(); err == nil {
		cleanup, err := logger.Setup(logger.Config{Dir: dir, Level: cfg.LogLevel})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		} else {
			defer cleanup()
		}
	}
	logger.L().Info("starting", zap.String("version", build.Version), zap.String("repo", cfg.Repo))

	theme, err := ui.ParseTheme(cfg.Theme)
	if err != nil {
		shell.PrintError(os.Stderr, err.Error())
		return 1
	}
	ui.SetTheme(theme)

	// Composition root: everything below receives its dependencies explicitly
	client := api.NewHTTPClient(cfg.APIURL, cfg.Token)
	sess := session.NewSession(client, cfg)
	registry := commands.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// One-shot mode: friture <command> [args...]
	if len(args) > 0 {
		env := &commands.ExecutionEnv{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
		line := args[0]
		if expanded, ok := shell.ExpandAlias(line, cfg.Aliases); ok {
			name, extra := commands.Parse(expanded)
			args = append(append([]string{name}, extra...), args[1:]...)
		}
		if err := registry.Execute(ctx, sess, env, args[0], args[1:]); err != nil {
			reportError(err)
			return 1
		}
		return 0
	}

	// Script mode: commands piped on stdin, one per line
	if !ui.IsTerminal(os.Stdin) {
		return runScript(ctx, shell.NewExecutor(registry, sess))
	}

	// Stop intercepting Ctrl+C; the shell handles it per command
	stop()

	sh, err := shell.New(sess, registry)
	if err != nil {
		shell.PrintError(os.Stderr, fmt.Sprintf("failed to start shell: %v", err))
		return 1
	}
	sh.Run(context.Background())
	return 0
}

func runScript(ctx context.Context, exec *shell.Executor) int {
	status := 0
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if expanded, ok := shell.ExpandAlias(line, exec.Session.Config.Aliases); ok {
			line = expanded
		}
		if err := exec.ExecuteLine(ctx, line); err != nil {
			reportError(err)
			status = 1
			if ctx.Err() != nil {
				break
			}
		}
	}
	return status
}

func reportError(err error) {
	logger.L().Error("command failed", zap.Error(err))
	if errors.Is(err, api.ErrUnauthorized) {
		shell.PrintError(os.Stderr, "GitHub rejected the token. Check FRITURE_GITHUB_TOKEN or the token in your config.")
		return
	}
	shell.PrintError(os.Stderr, err.Error())
}
