package parser

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/marcuscaisey/lazyinclude/include/token"
)

// Unquote returns the value of a string literal lexeme, which is either a quoted string such as "a\tb" or a raw
// string such as r#"a"b"#.
func Unquote(lexeme string) (string, error) {
	if strings.HasPrefix(lexeme, "r") {
		body := strings.TrimPrefix(lexeme, "r")
		hashes := len(body) - len(strings.TrimLeft(body, "#"))
		if len(body) < 2*hashes+2 {
			return "", errors.New("malformed raw string literal")
		}
		body = body[hashes+1 : len(body)-hashes-1]
		if strings.Contains(strings.ReplaceAll(body, "\r\n", "\n"), "\r") {
			return "", errors.New("bare CR not allowed in raw string")
		}
		return strings.ReplaceAll(body, "\r\n", "\n"), nil
	}
	if len(lexeme) < 2 || lexeme[0] != '"' || lexeme[len(lexeme)-1] != '"' {
		return "", errors.New("malformed string literal")
	}
	return unescape(lexeme[1:len(lexeme)-1], '"')
}

// UnquoteChar returns the value of a character literal lexeme such as 'a' or '\u{1F600}'.
func UnquoteChar(lexeme string) (rune, error) {
	if len(lexeme) < 2 || lexeme[0] != '\'' || lexeme[len(lexeme)-1] != '\'' {
		return 0, errors.New("malformed character literal")
	}
	body := lexeme[1 : len(lexeme)-1]
	if body == "" {
		return 0, errors.New("empty character literal")
	}
	if r, _ := utf8.DecodeRuneInString(body); r == '\n' || r == '\r' || r == '\t' {
		return 0, errors.New("character constant must be escaped")
	}
	s, err := unescape(body, '\'')
	if err != nil {
		return 0, err
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, errors.New("character literal may only contain one codepoint")
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// unescape replaces the escape sequences in the body of a string or character literal with the characters that they
// represent.
func unescape(s string, quote byte) (string, error) {
	if !strings.ContainsAny(s, "\\\r") {
		return s, nil
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c == '\r' {
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
				continue
			}
			return "", errors.New("bare CR not allowed in string")
		}
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 == len(s) {
			return "", errors.New("incomplete escape sequence")
		}
		esc := s[i+1]
		i += 2
		switch esc {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '\\':
			b.WriteByte('\\')
		case '0':
			b.WriteByte(0)
		case '\'', '"':
			b.WriteByte(esc)
		case 'x':
			if i+2 > len(s) {
				return "", errors.New("numeric character escape is too short")
			}
			hi, lo := digitValue(rune(s[i])), digitValue(rune(s[i+1]))
			if hi >= 16 || lo >= 16 {
				return "", fmt.Errorf("invalid character in numeric character escape: %q", s[i:i+2])
			}
			v := hi<<4 | lo
			if v > 0x7f {
				return "", fmt.Errorf("out of range hex escape \\x%s: must be a character in the range [\\x00-\\x7f]", s[i:i+2])
			}
			b.WriteByte(byte(v))
			i += 2
		case 'u':
			r, n, err := unicodeEscape(s[i:])
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
			i += n
		case '\n', '\r':
			if quote != '"' {
				return "", errors.New("unknown character escape: line continuation")
			}
			for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
				i++
			}
		default:
			r, _ := utf8.DecodeRuneInString(s[i-1:])
			return "", fmt.Errorf("unknown character escape: \\%c", r)
		}
	}
	return b.String(), nil
}

// unicodeEscape parses the {...} part of a \u{...} escape from the start of s and returns the escaped rune and the
// number of bytes consumed.
func unicodeEscape(s string) (rune, int, error) {
	if !strings.HasPrefix(s, "{") {
		return 0, 0, errors.New("incorrect unicode escape sequence: expected '{'")
	}
	end := strings.IndexByte(s, '}')
	if end < 0 {
		return 0, 0, errors.New("unterminated unicode escape: missing '}'")
	}
	digits := s[1:end]
	if strings.HasPrefix(digits, "_") {
		return 0, 0, errors.New("invalid start of unicode escape: '_'")
	}
	var v rune
	count := 0
	for _, r := range digits {
		if r == '_' {
			continue
		}
		d := digitValue(r)
		if d >= 16 {
			return 0, 0, fmt.Errorf("invalid character in unicode escape: %q", r)
		}
		count++
		if count > 6 {
			return 0, 0, errors.New("overlong unicode escape: must have at most 6 hex digits")
		}
		v = v<<4 | rune(d)
	}
	if count == 0 {
		return 0, 0, errors.New("empty unicode escape: must have at least 1 hex digit")
	}
	if v > utf8.MaxRune || (0xd800 <= v && v <= 0xdfff) {
		return 0, 0, fmt.Errorf("invalid unicode character escape: \\u{%X}", v)
	}
	return v, end + 1, nil
}

// IntValue returns the value of an integer literal token, ignoring its sign and type suffix.
func IntValue(tok token.Token) (*big.Int, error) {
	body := strings.ReplaceAll(tok.Body(), "_", "")
	base := 10
	if len(body) > 1 && body[0] == '0' {
		switch body[1] {
		case 'x':
			base = 16
		case 'o':
			base = 8
		case 'b':
			base = 2
		}
		if base != 10 {
			body = body[2:]
		}
	}
	n, ok := new(big.Int).SetString(body, base)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal %q", tok.Lexeme)
	}
	return n, nil
}

// FloatText returns the text of a float literal token, or of an integer literal token with a float suffix, in a form
// accepted by [strconv.ParseFloat].
func FloatText(tok token.Token) string {
	return strings.ReplaceAll(tok.Body(), "_", "")
}
