package ui

import (
	"bytes"
	"encoding/json"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// syntaxStyle picks the chroma style matching the active palette.
func syntaxStyle() *chroma.Style {
	name := "github"
	if currentTheme == mochaPalette {
		name = "dracula"
	}
	if style := styles.Get(name); style != nil {
		return style
	}
	return styles.Fallback
}

// PrettyJSON indents raw JSON and, when color is set, highlights it for a
// 256-color terminal. Highlighting failures fall back to the plain text.
func PrettyJSON(raw []byte, color bool) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "", err
	}
	buf.WriteByte('\n')
	plain := buf.String()
	if !color {
		return plain, nil
	}

	iterator, err := chroma.Coalesce(lexers.Get("json")).Tokenise(nil, plain)
	if err != nil {
		return plain, nil
	}
	var out bytes.Buffer
	if err := formatters.TTY256.Format(&out, syntaxStyle(), iterator); err != nil {
		return plain, nil
	}
	return out.String(), nil
}
