package cpu

import "strings"

// isCodeChar and isCommentChar implement the character-class rules of
// §4.1, grounded on decomment() in
// original_source/sources/libqasm/compiler.cpp.
func isCodeChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == ' ' || c == '-' || c == '+' || c == '.' || c == '_' || c == '@':
		return true
	default:
		return false
	}
}

func isCommentChar(c byte) bool {
	if isCodeChar(c) {
		return true
	}
	switch c {
	case '*', '/', ',', '(', ')', '<', '>', '=', '?', '!', ':', ';', '#':
		return true
	default:
		return false
	}
}

// decomment strips everything from the first '#' onward, validates every
// remaining code character, and collapses/tabs/trims whitespace. It
// returns the normalized code (possibly empty, meaning a blank or
// comment-only line) or ErrInvalidCharacter on the first offending
// character.
func decomment(line string) (string, error) {
	line = strings.ReplaceAll(line, "\t", " ")

	code := line
	if i := strings.IndexByte(line, '#'); i >= 0 {
		code = line[:i]
		comment := line[i+1:]
		for j := 0; j < len(comment); j++ {
			if !isCommentChar(comment[j]) {
				return "", ErrInvalidCharacter
			}
		}
	}

	for i := 0; i < len(code); i++ {
		if !isCodeChar(code[i]) {
			return "", ErrInvalidCharacter
		}
	}

	for strings.Contains(code, "  ") {
		code = strings.ReplaceAll(code, "  ", " ")
	}

	return strings.TrimSpace(code), nil
}
