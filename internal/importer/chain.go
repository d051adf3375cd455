package importer

import "strings"

// callArgs reads a parenthesised argument list starting at s[0] == '('.
// It returns the text between the parentheses and the remainder after the
// closing one. Parentheses inside string and char literals are ignored.
func callArgs(s string) (args, rest string, ok bool) {
	if !strings.HasPrefix(s, "(") {
		return "", s, false
	}
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], true
			}
		}
	}
	return "", s, false
}

// link is one ".method(args)" call of a chain.
type link struct {
	method string
	args   string
}

// parseChain splits ".a(x).b().c(y, z)" into links. It stops at the first
// text that is not a call and returns what remains.
func parseChain(s string) ([]link, string) {
	var out []link
	for strings.HasPrefix(s, ".") {
		name := s[1:]
		end := strings.IndexByte(name, '(')
		if end <= 0 || !isIdent(name[:end]) {
			break
		}
		args, rest, ok := callArgs(name[end:])
		if !ok {
			break
		}
		out = append(out, link{method: name[:end], args: args})
		s = rest
	}
	return out, s
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		digit := r >= '0' && r <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}
