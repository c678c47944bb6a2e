package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	tok := Token{Kind: KindIdent, Text: "foo", Position: Position{Filename: "test.toy", Line: 1, Column: 1}}
	require.Equal(t, "IDENT(foo) at test.toy:1:1", tok.String())
}

func TestLookupKeyword(t *testing.T) {
	cases := map[string]Kind{
		"let":      KindLet,
		"fn":       KindFn,
		"struct":   KindStruct,
		"for":      KindFor,
		"this":     KindThis,
		"extern":   KindExtern,
		"int":      KindTypeInt,
		"float":    KindTypeFloat,
		"bool":     KindTypeBool,
		"str":      KindTypeStr,
		"void":     KindTypeVoid,
		"true":     KindTrue,
		"false":    KindFalse,
		"notakeyword": KindIdent,
	}
	for text, want := range cases {
		require.Equal(t, want, LookupKeyword(text), text)
	}
}

func TestTokenIsType(t *testing.T) {
	require.True(t, Token{Kind: KindTypeInt}.IsType())
	require.True(t, Token{Kind: KindTypeVoid}.IsType())
	require.False(t, Token{Kind: KindIdent}.IsType())
}
