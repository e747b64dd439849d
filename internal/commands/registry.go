package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/friture/friture-cli/internal/session"
	"github.com/friture/friture-cli/internal/ui"
	"github.com/spf13/pflag"
)

type ExecutionEnv struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type Command struct {
	Run         func(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error
	Name        string
	Description string
	Usage       string // Detailed usage info shown by "help <command>"
}

// Registry maps command names to commands. Build one with NewRegistry.
type Registry struct {
	cmds map[string]*Command
}

// NewRegistry returns a registry holding every built-in command.
func NewRegistry() *Registry {
	r := &Registry{cmds: make(map[string]*Command)}

	r.Register(&Command{
		Name:        "help",
		Description: "Show available commands or help for a specific command",
		Usage:       "help [command]\n\nExamples:\n  help           List all commands\n  help download  Show detailed help for download",
		Run:         r.help,
	})
	r.Register(&Command{
		Name:        "clear",
		Description: "Clear the screen",
		Usage:       "clear\n\nClears the terminal screen and scrollback buffer.",
		Run:         clear,
	})
	r.Register(&Command{
		Name:        "history",
		Description: "Show command history",
		Usage:       "history\n\nDisplays numbered list of previously executed commands.",
		Run:         history,
	})
	r.Register(versionCommand())
	r.Register(releasesCommand())
	r.Register(urlCommand())
	r.Register(downloadCommand())
	r.Register(checkCommand())
	r.Register(bytesCommand())
	r.Register(iecCommand())
	r.Register(meterCommand())
	r.Register(levelCommand())
	r.Register(peakCommand())

	return r
}

func (r *Registry) Register(cmd *Command) {
	r.cmds[cmd.Name] = cmd
}

func (r *Registry) Get(name string) (*Command, bool) {
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one command line (already split into fields).
func (r *Registry) Execute(ctx context.Context, s *session.Session, env *ExecutionEnv, name string, args []string) error {
	cmd, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%s: command not found (try 'help')", name)
	}
	if HasHelpFlag(args) {
		PrintUsage(cmd, env.Stdout)
		return nil
	}
	return cmd.Run(ctx, s, env, args)
}

// ReorderArgsForFlags reorders arguments so flags come before positional args.
// This allows Unix-style interspersed flags like "cmd file.txt -f" to work
// the same as "cmd -f file.txt". Negative numbers are positional.
func ReorderArgsForFlags(fs *pflag.FlagSet, args []string) []string {
	var flags []string
	var positional []string

	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			// Everything after -- is positional
			positional = append(positional, args[i+1:]...)
			break
		}
		if strings.HasPrefix(arg, "-") && arg != "-" && !isNumber(arg) {
			flags = append(flags, arg)
			name := strings.TrimLeft(arg, "-")
			if idx := strings.Index(name, "="); idx >= 0 {
				// Flag with = doesn't consume next arg
				i++
				continue
			}
			f := fs.Lookup(name)
			if f == nil && len(name) == 1 {
				f = fs.ShorthandLookup(name)
			}
			if f != nil {
				if f.Value.Type() == "bool" {
					i++
					continue
				}
				// Non-bool flag, consume next arg as value
				if i+1 < len(args) && (!strings.HasPrefix(args[i+1], "-") || isNumber(args[i+1])) {
					i++
					flags = append(flags, args[i])
				}
			}
		} else {
			positional = append(positional, arg)
		}
		i++
	}

	if len(positional) == 0 {
		return flags
	}
	return append(append(flags, "--"), positional...)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// HasHelpFlag checks if args contain -h or --help
func HasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "-h" || arg == "--help" {
			return true
		}
	}
	return false
}

// PrintUsage prints usage information for a command to the given writer
func PrintUsage(cmd *Command, w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n", ui.CommandStyle.Render(cmd.Name), cmd.Description)
	if cmd.Usage != "" {
		fmt.Fprintf(w, "\nUsage: %s\n", cmd.Usage)
	}
}

// Parse parses a command line into command name AND args
func Parse(line string) (string, []string) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func (r *Registry) help(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if len(args) > 0 {
		cmd, ok := r.Get(args[0])
		if !ok {
			return fmt.Errorf("help: unknown command '%s'", args[0])
		}
		PrintUsage(cmd, env.Stdout)
		return nil
	}

	fmt.Fprintln(env.Stdout, ui.HeaderStyle.Render("Available commands:"))
	fmt.Fprintln(env.Stdout)
	for _, name := range r.Names() {
		cmd := r.cmds[name]
		fmt.Fprintf(env.Stdout, "  %s %s\n",
			ui.CommandStyle.Render(fmt.Sprintf("%-12s", cmd.Name)),
			ui.MutedStyle.Render(cmd.Description))
	}
	fmt.Fprintln(env.Stdout)
	return nil
}

func clear(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	// ANSI escape sequence: move to top-left, clear entire screen, clear scrollback
	fmt.Fprint(env.Stdout, "\033[H\033[2J\033[3J")
	return nil
}

func history(ctx context.Context, s *session.Session, env *ExecutionEnv, args []string) error {
	if s.HistoryGetter == nil {
		return fmt.Errorf("history not available")
	}

	hist := s.HistoryGetter()
	if len(hist) == 0 {
		fmt.Fprintln(env.Stdout, "No history.")
		return nil
	}

	for i, cmd := range hist {
		num := ui.MutedStyle.Render(fmt.Sprintf("%4d", i+1))
		fmt.Fprintf(env.Stdout, "  %s  %s\n", num, cmd)
	}
	return nil
}
