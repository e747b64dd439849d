package shell

import (
	"errors"
	"strings"
	"unicode"
)

// Token is one word or operator of a command line.
type Token struct {
	Value  string
	Type   TokenType
	Quoted bool
}

type TokenType int

const (
	TokenWord              TokenType = iota
	TokenRedirectOut                 // >
	TokenRedirectAppend              // >>
	TokenRedirectIn                  // <
	TokenRedirectErr                 // 2>
	TokenRedirectErrAppend           // 2>>
	TokenRedirectAll                 // &> or >&
	TokenRedirectErrToOut            // 2>&1
	TokenAnd                         // &&
	TokenOr                          // ||
	TokenSemicolon                   // ;
)

var (
	errUnclosedSingle = errors.New("syntax error: unclosed single quote")
	errUnclosedDouble = errors.New("syntax error: unclosed double quote")
	errTrailingEscape = errors.New("syntax error: trailing backslash")
)

type operator struct {
	text       string
	typ        TokenType
	fdPrefixed bool
}

// operators is checked in order, so longer spellings come first.
// fdPrefixed operators only apply at the start of a word: "12>x" is "12" then ">".
var operators = []operator{
	{"2>&1", TokenRedirectErrToOut, true},
	{"2>>", TokenRedirectErrAppend, true},
	{"2>", TokenRedirectErr, true},
	{"&&", TokenAnd, false},
	{"||", TokenOr, false},
	{"&>", TokenRedirectAll, false},
	{">&", TokenRedirectAll, false},
	{">>", TokenRedirectAppend, false},
	{">", TokenRedirectOut, false},
	{"<", TokenRedirectIn, false},
	{";", TokenSemicolon, false},
}

// Tokenize splits a command line into words and operators. Quotes keep glob
// characters literal, as in releases --match '*.dmg'.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	var word strings.Builder
	quoted, inWord := false, false

	flush := func() {
		if inWord {
			tokens = append(tokens, Token{Value: word.String(), Type: TokenWord, Quoted: quoted})
		}
		word.Reset()
		quoted, inWord = false, false
	}

	for i := 0; i < len(line); {
		if op, ok := operatorAt(line[i:], !inWord); ok {
			flush()
			tokens = append(tokens, Token{Value: op.text, Type: op.typ})
			i += len(op.text)
			continue
		}

		switch c := line[i]; {
		case c == '\'':
			end := strings.IndexByte(line[i+1:], '\'')
			if end < 0 {
				return nil, errUnclosedSingle
			}
			word.WriteString(line[i+1 : i+1+end])
			quoted, inWord = true, true
			i += end + 2
		case c == '"':
			n, err := readDoubleQuoted(line[i+1:], &word)
			if err != nil {
				return nil, err
			}
			quoted, inWord = true, true
			i += n + 2
		case c == '\\':
			if i+1 >= len(line) {
				return nil, errTrailingEscape
			}
			word.WriteByte(line[i+1])
			inWord = true
			i += 2
		case unicode.IsSpace(rune(c)):
			flush()
			i++
		default:
			word.WriteByte(c)
			inWord = true
			i++
		}
	}
	flush()
	return tokens, nil
}

func operatorAt(s string, wordStart bool) (operator, bool) {
	for _, op := range operators {
		if op.fdPrefixed && !wordStart {
			continue
		}
		if strings.HasPrefix(s, op.text) {
			return op, true
		}
	}
	return operator{}, false
}

// readDoubleQuoted copies the body of a double-quoted string into w and
// returns its length, not counting the closing quote. Only \" and \\ are
// escapes inside double quotes.
func readDoubleQuoted(s string, w *strings.Builder) (int, error) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			return i, nil
		case '\\':
			if i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
				i++
			}
		}
		w.WriteByte(s[i])
	}
	return 0, errUnclosedDouble
}

// ChainOperator joins two commands of a line.
type ChainOperator int

const (
	ChainNone ChainOperator = iota
	ChainAnd                // &&
	ChainOr                 // ||
	ChainSeq                // ;
)

var chainOperators = map[TokenType]ChainOperator{
	TokenAnd:       ChainAnd,
	TokenOr:        ChainOr,
	TokenSemicolon: ChainSeq,
}

// ChainedCommand is one command with the operator that follows it.
type ChainedCommand struct {
	Tokens   []Token
	Operator ChainOperator
}

// SplitByChain cuts tokens at &&, || and ;. A line ending in an operator
// yields a trailing command with no tokens.
func SplitByChain(tokens []Token) []ChainedCommand {
	var out []ChainedCommand
	start := 0
	for i, tok := range tokens {
		if op, ok := chainOperators[tok.Type]; ok {
			out = append(out, ChainedCommand{Tokens: tokens[start:i:i], Operator: op})
			start = i + 1
		}
	}
	if rest := tokens[start:]; len(rest) > 0 || len(out) > 0 {
		out = append(out, ChainedCommand{Tokens: rest, Operator: ChainNone})
	}
	return out
}
