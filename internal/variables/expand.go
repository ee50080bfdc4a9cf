package variables

import (
	"os"
	"strings"

	"github.com/emichael72/auto-forge/internal/forgeerr"
)

// Expand substitutes $NAME, ${NAME}, and a leading ~ in input using the
// Store's registered variables. $(...) shell command substitution is
// passed through byte-for-byte. An undefined reference yields
// forgeerr.ErrUnresolvedVariable.
//
// A variable's stored value is substituted as stored: $ references inside
// a stored value are not expanded further. Expand(Expand(x)) == Expand(x)
// therefore holds as long as no substituted value itself contains a $
// reference or a leading ~; $(...) spans are copied unchanged both times.
func (s *Store) Expand(input string) (string, error) {
	var out strings.Builder
	i := 0
	n := len(input)

	if strings.HasPrefix(input, "~") && (n == 1 || input[1] == '/') {
		home, ok := s.Get("HOME")
		if !ok {
			home = Field{Value: homeFallback()}
		}
		out.WriteString(home.Value)
		i = 1
	}

	for i < n {
		c := input[i]

		if c == '$' && i+1 < n && input[i+1] == '(' {
			depth := 1
			j := i + 2
			for j < n && depth > 0 {
				switch input[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			out.WriteString(input[i:j])
			i = j
			continue
		}

		if c == '$' && i+1 < n && input[i+1] == '{' {
			end := strings.IndexByte(input[i+2:], '}')
			if end < 0 {
				out.WriteByte(c)
				i++
				continue
			}
			name := input[i+2 : i+2+end]
			val, err := s.resolveName(name)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = i + 2 + end + 1
			continue
		}

		if c == '$' && i+1 < n && isNameStart(input[i+1]) {
			j := i + 1
			for j < n && isNameChar(input[j]) {
				j++
			}
			name := input[i+1 : j]
			val, err := s.resolveName(name)
			if err != nil {
				return "", err
			}
			out.WriteString(val)
			i = j
			continue
		}

		out.WriteByte(c)
		i++
	}

	return out.String(), nil
}

func (s *Store) resolveName(name string) (string, error) {
	f, ok := s.Get(name)
	if !ok {
		return "", forgeerr.Wrap(forgeerr.ErrUnresolvedVariable, "undefined variable %q", name)
	}
	return f.Value, nil
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// ExpandAny walks a nested structure of maps, slices, and strings (as
// decoded by encoding/json into any), expanding every string leaf while
// leaving other scalar types untouched.
func (s *Store) ExpandAny(data any) (any, error) {
	switch v := data.(type) {
	case string:
		return s.Expand(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			expanded, err := s.ExpandAny(val)
			if err != nil {
				return nil, err
			}
			out[k] = expanded
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for idx, val := range v {
			expanded, err := s.ExpandAny(val)
			if err != nil {
				return nil, err
			}
			out[idx] = expanded
		}
		return out, nil
	default:
		return v, nil
	}
}

func homeFallback() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return ""
}
