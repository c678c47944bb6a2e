package astgen

import (
	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
)

// binOpLevel reports the precedence level of a binary operator token, lower
// numbers binding more weakly (evaluated last). Tokens with no entry are not
// binary operators.
func binOpLevel(k lexer.Kind) (int, bool) {
	switch k {
	case lexer.KindOr:
		return 1, true
	case lexer.KindAnd:
		return 2, true
	case lexer.KindEqual, lexer.KindNotEqual:
		return 3, true
	case lexer.KindLess, lexer.KindGreater, lexer.KindLessEqual, lexer.KindGreaterEqual:
		return 4, true
	case lexer.KindPlus, lexer.KindMinus:
		return 5, true
	case lexer.KindStar, lexer.KindSlash, lexer.KindPercent:
		return 6, true
	default:
		return 0, false
	}
}

// isOperandEnd reports whether k is a token kind that can end a completed
// operand, used to tell a unary minus (no preceding operand) apart from a
// binary minus.
func isOperandEnd(k lexer.Kind) bool {
	switch k {
	case lexer.KindInt, lexer.KindFloat, lexer.KindStr, lexer.KindTrue, lexer.KindFalse,
		lexer.KindIdent, lexer.KindThis, lexer.KindRParen, lexer.KindRBracket:
		return true
	default:
		return false
	}
}

// topLevelSplit scans toks for the binary operator with the globally lowest
// precedence at bracket depth zero, breaking ties toward the last occurrence
// so that same-precedence chains split left-associatively (a - b - c splits
// at the second '-', giving (a - b) - c once both sides recurse).
func topLevelSplit(toks []lexer.Token) (int, lexer.Token, bool) {
	depth := 0
	bestIdx := -1
	bestLevel := int(^uint(0) >> 1)
	for i, t := range toks {
		switch t.Kind {
		case lexer.KindLParen, lexer.KindLBracket, lexer.KindLBrace:
			depth++
			continue
		case lexer.KindRParen, lexer.KindRBracket, lexer.KindRBrace:
			depth--
			continue
		}
		if depth != 0 {
			continue
		}
		level, ok := binOpLevel(t.Kind)
		if !ok {
			continue
		}
		if t.Kind == lexer.KindMinus && (i == 0 || !isOperandEnd(toks[i-1].Kind)) {
			continue // unary minus, not a split candidate
		}
		if level <= bestLevel {
			bestLevel = level
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return 0, lexer.Token{}, false
	}
	return bestIdx, toks[bestIdx], true
}

// wrapsFully reports whether toks is entirely one parenthesized group, i.e.
// the leading '(' is only closed by the trailing ')'.
func wrapsFully(toks []lexer.Token) bool {
	if len(toks) < 2 || toks[0].Kind != lexer.KindLParen || toks[len(toks)-1].Kind != lexer.KindRParen {
		return false
	}
	depth := 0
	for i, t := range toks {
		switch t.Kind {
		case lexer.KindLParen:
			depth++
		case lexer.KindRParen:
			depth--
			if depth == 0 && i != len(toks)-1 {
				return false
			}
		}
	}
	return true
}

// splitTopLevelCommas splits toks on commas at bracket depth zero, used for
// call arguments, array literal elements, and struct literal fields.
func splitTopLevelCommas(toks []lexer.Token) [][]lexer.Token {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]lexer.Token
	depth := 0
	start := 0
	for i, t := range toks {
		switch t.Kind {
		case lexer.KindLParen, lexer.KindLBracket, lexer.KindLBrace:
			depth++
		case lexer.KindRParen, lexer.KindRBracket, lexer.KindRBrace:
			depth--
		case lexer.KindComma:
			if depth == 0 {
				groups = append(groups, toks[start:i])
				start = i + 1
			}
		}
	}
	groups = append(groups, toks[start:])
	return groups
}

// findMatchingBracket returns the index of the ']' that closes the '[' at
// openIdx.
func findMatchingBracket(toks []lexer.Token, openIdx int) (int, error) {
	depth := 0
	for j := openIdx; j < len(toks); j++ {
		switch toks[j].Kind {
		case lexer.KindLBracket:
			depth++
		case lexer.KindRBracket:
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return -1, diag.New(diag.KindUnclosedDelimiter, toks[openIdx].Position, "unclosed '['")
}
