package lexer

import (
	"testing"

	"github.com/cuemby/graphd/pkg/cypher/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typesOf(t *testing.T, src string) []token.Type {
	t.Helper()
	toks, err := Tokenize(src)
	require.NoError(t, err)
	out := make([]token.Type, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestTokenizeSimpleMatch(t *testing.T) {
	types := typesOf(t, "MATCH (n:Person)-[:KNOWS]->(m) RETURN n, m")
	assert.Equal(t, []token.Type{
		token.MATCH, token.LPAREN, token.IDENT, token.COLON, token.IDENT, token.RPAREN,
		token.DASH, token.LBRACKET, token.COLON, token.IDENT, token.RBRACKET, token.ARROW_RIGHT,
		token.LPAREN, token.IDENT, token.RPAREN,
		token.RETURN, token.IDENT, token.COMMA, token.IDENT,
		token.EOF,
	}, types)
}

func TestTokenizeKeywordsCaseInsensitive(t *testing.T) {
	toks, err := Tokenize("match (n) where n.age > 21 return n")
	require.NoError(t, err)
	assert.Equal(t, token.MATCH, toks[0].Type)
	assert.Equal(t, token.WHERE, toks[4].Type)
	assert.Equal(t, token.RETURN, toks[len(toks)-3].Type)
}

func TestTokenizeStringLiteralsBothQuotes(t *testing.T) {
	toks, err := Tokenize(`RETURN 'single', "double"`)
	require.NoError(t, err)
	assert.Equal(t, token.STRING, toks[1].Type)
	assert.Equal(t, "single", toks[1].Literal)
	assert.Equal(t, token.STRING, toks[3].Type)
	assert.Equal(t, "double", toks[3].Literal)
}

func TestTokenizeEscapeSequences(t *testing.T) {
	toks, err := Tokenize(`RETURN 'line\nbreak'`)
	require.NoError(t, err)
	assert.Equal(t, "line\nbreak", toks[1].Literal)
}

func TestTokenizeNumbers(t *testing.T) {
	toks, err := Tokenize("RETURN 42, 3.14, 1.5e10, 2e-3")
	require.NoError(t, err)
	assert.Equal(t, token.INT, toks[1].Type)
	assert.Equal(t, "42", toks[1].Literal)
	assert.Equal(t, token.FLOAT, toks[3].Type)
	assert.Equal(t, "3.14", toks[3].Literal)
	assert.Equal(t, token.FLOAT, toks[5].Type)
	assert.Equal(t, "1.5e10", toks[5].Literal)
	assert.Equal(t, token.FLOAT, toks[7].Type)
	assert.Equal(t, "2e-3", toks[7].Literal)
}

func TestTokenizeParameter(t *testing.T) {
	toks, err := Tokenize("WHERE n.id = $userId")
	require.NoError(t, err)
	last := toks[len(toks)-2]
	assert.Equal(t, token.PARAM, last.Type)
	assert.Equal(t, "userId", last.Literal)
}

func TestTokenizeOperators(t *testing.T) {
	types := typesOf(t, "<> <= >= -> <- =~ .. .")
	assert.Equal(t, []token.Type{
		token.NEQ, token.LTE, token.GTE, token.ARROW_RIGHT, token.ARROW_LEFT,
		token.REGEX, token.DOTDOT, token.DOT, token.EOF,
	}, types)
}

func TestTokenizeLineComment(t *testing.T) {
	types := typesOf(t, "MATCH (n) // trailing comment\nRETURN n")
	assert.Equal(t, []token.Type{
		token.MATCH, token.LPAREN, token.IDENT, token.RPAREN, token.RETURN, token.IDENT, token.EOF,
	}, types)
}

func TestTokenizeBlockComment(t *testing.T) {
	types := typesOf(t, "MATCH /* skip me */ (n) RETURN n")
	assert.Equal(t, []token.Type{
		token.MATCH, token.LPAREN, token.IDENT, token.RPAREN, token.RETURN, token.IDENT, token.EOF,
	}, types)
}

func TestTokenizeBacktickIdentifier(t *testing.T) {
	toks, err := Tokenize("MATCH (`weird name`:Person)")
	require.NoError(t, err)
	assert.Equal(t, token.IDENT, toks[2].Type)
	assert.Equal(t, "weird name", toks[2].Literal)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := Tokenize("RETURN 'oops")
	require.Error(t, err)
}

func TestTokenizeUnexpectedCharacterErrors(t *testing.T) {
	_, err := Tokenize("RETURN #")
	require.Error(t, err)
}

func TestTokenPositionsTrackLineAndColumn(t *testing.T) {
	toks, err := Tokenize("MATCH (n)\nRETURN n")
	require.NoError(t, err)
	var ret token.Token
	for _, tok := range toks {
		if tok.Type == token.RETURN {
			ret = tok
			break
		}
	}
	assert.Equal(t, 2, ret.Line)
	assert.Equal(t, 1, ret.Column)
}
