package shell

import (
	"strings"
	"unicode"
)

// ExpandAlias replaces the first word of line when it names an alias from
// the config file. Arguments are kept after the expansion. Expansion happens
// once, so an alias may refer to the command it shadows.
func ExpandAlias(line string, aliases map[string]string) (string, bool) {
	line = strings.TrimSpace(line)
	if len(aliases) == 0 || line == "" {
		return line, false
	}

	name, rest := line, ""
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		name, rest = line[:i], line[i:]
	}

	expansion, ok := aliases[name]
	if !ok || strings.TrimSpace(expansion) == "" {
		return line, false
	}
	return strings.TrimSpace(expansion) + rest, true
}
