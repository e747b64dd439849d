package shell

import (
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/friture/friture-cli/internal/commands"
	"github.com/friture/friture-cli/internal/release"
)

// Completer provides tab completion for the shell
type Completer struct {
	Registry *commands.Registry
	Aliases  map[string]string
}

// Do implements readline.AutoCompleter
func (c *Completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	lineStr := string(line[:pos])

	// Complete only the last command of a chain
	if i := strings.LastIndexAny(lineStr, ";&|"); i >= 0 {
		lineStr = strings.TrimLeft(lineStr[i+1:], " ")
	}

	words := strings.Fields(lineStr)

	// If empty or first word (command completion)
	if len(words) == 0 || (len(words) == 1 && !strings.HasSuffix(lineStr, " ")) {
		prefix := ""
		if len(words) == 1 {
			prefix = words[0]
		}
		return complete(c.commandNames(), prefix)
	}

	partial := ""
	if !strings.HasSuffix(lineStr, " ") {
		partial = words[len(words)-1]
	}
	if strings.HasPrefix(partial, "-") {
		return nil, 0
	}

	switch words[0] {
	case "url", "download":
		return complete(platformNames(), partial)
	case "help":
		return complete(c.Registry.Names(), partial)
	}
	return nil, 0
}

func (c *Completer) commandNames() []string {
	names := c.Registry.Names()
	for alias := range c.Aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}

func platformNames() []string {
	names := make([]string, len(release.All))
	for i, p := range release.All {
		names[i] = string(p)
	}
	return names
}

// complete returns the candidates starting with prefix, as readline
// suffixes followed by a space.
func complete(candidates []string, prefix string) ([][]rune, int) {
	var result [][]rune
	for _, m := range candidates {
		if strings.HasPrefix(m, prefix) {
			result = append(result, []rune(m[len(prefix):]+" "))
		}
	}
	return result, len(prefix)
}

// NewCompleter creates a completer for the registry's commands.
func NewCompleter(reg *commands.Registry, aliases map[string]string) readline.AutoCompleter {
	return &Completer{Registry: reg, Aliases: aliases}
}
