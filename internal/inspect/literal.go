package inspect

import (
	"fmt"
	"strings"
	"unicode"
)

type literalKind int

const (
	strLiteral literalKind = iota
	bytesLiteral
	formatLiteral
)

// literal is a decoded Python string literal. For bytes literals each rune of
// value is a single byte.
type literal struct {
	kind  literalKind
	value string
}

// splitLiteral separates the source text of one string literal into its
// kind and undecoded body.
func splitLiteral(text string) (body string, kind literalKind, raw bool, ok bool) {
	i := 0
	for i < len(text) && text[i] != '\'' && text[i] != '"' {
		i++
	}
	if i == len(text) {
		return "", 0, false, false
	}
	prefix := strings.ToLower(text[:i])
	rest := text[i:]

	for _, c := range prefix {
		switch c {
		case 'r':
			raw = true
		case 'b':
			kind = bytesLiteral
		case 'f':
			kind = formatLiteral
		case 'u':
		default:
			return "", 0, false, false
		}
	}

	quote := rest[:1]
	if strings.HasPrefix(rest, `"""`) || strings.HasPrefix(rest, `'''`) {
		quote = rest[:3]
	}
	if len(rest) < 2*len(quote) || !strings.HasSuffix(rest, quote) {
		return "", 0, false, false
	}
	return rest[len(quote) : len(rest)-len(quote)], kind, raw, true
}

// decodeLiteral decodes the source text of one string literal, including its
// prefix and quotes. A \N{...} escape naming a character outside
// unicodeNames makes it fail.
func decodeLiteral(text string) (literal, bool) {
	body, kind, raw, ok := splitLiteral(text)
	if !ok {
		return literal{}, false
	}
	lit := literal{kind: kind}
	if kind == formatLiteral || raw {
		lit.value = body
		return lit, true
	}

	decoded, ok := decodeEscapes(body, kind == bytesLiteral)
	if !ok {
		return literal{}, false
	}
	lit.value = decoded
	return lit, true
}

func decodeEscapes(body string, isBytes bool) (string, bool) {
	if !strings.Contains(body, `\`) {
		return body, true
	}
	var b strings.Builder
	rs := []rune(body)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if r != '\\' || i+1 >= len(rs) {
			b.WriteRune(r)
			continue
		}
		i++
		switch c := rs[i]; c {
		case '\n':
		case '\\', '\'', '"':
			b.WriteRune(c)
		case 'a':
			b.WriteRune('\a')
		case 'b':
			b.WriteRune('\b')
		case 'f':
			b.WriteRune('\f')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 't':
			b.WriteRune('\t')
		case 'v':
			b.WriteRune('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := 0
			n := 0
			for n < 3 && i < len(rs) && rs[i] >= '0' && rs[i] <= '7' {
				v = v*8 + int(rs[i]-'0')
				i++
				n++
			}
			i--
			if isBytes {
				v &= 0xff
			}
			b.WriteRune(rune(v))
		case 'x':
			v, ok := hexValue(rs, i+1, 2)
			if !ok {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u', 'U':
			if isBytes {
				b.WriteRune('\\')
				b.WriteRune(c)
				continue
			}
			width := 4
			if c == 'U' {
				width = 8
			}
			v, ok := hexValue(rs, i+1, width)
			if !ok || v > unicode.MaxRune {
				return "", false
			}
			b.WriteRune(rune(v))
			i += width
		case 'N':
			if isBytes {
				b.WriteString(`\N`)
				continue
			}
			end := i + 1
			for end < len(rs) && rs[end] != '}' {
				end++
			}
			if i+1 >= len(rs) || rs[i+1] != '{' || end == len(rs) {
				return "", false
			}
			named, ok := unicodeNames[strings.ToUpper(string(rs[i+2:end]))]
			if !ok {
				return "", false
			}
			b.WriteRune(named)
			i = end
		default:
			b.WriteRune('\\')
			b.WriteRune(c)
		}
	}
	return b.String(), true
}

// unicodeNames resolves the \N{...} escapes seen in docstrings and
// constants. Python accepts any name in the Unicode database.
var unicodeNames = map[string]rune{
	"BULLET":              0x2022,
	"CHECK MARK":          0x2713,
	"COPYRIGHT SIGN":      0x00A9,
	"DEGREE SIGN":         0x00B0,
	"EM DASH":             0x2014,
	"EN DASH":             0x2013,
	"EURO SIGN":           0x20AC,
	"HORIZONTAL ELLIPSIS": 0x2026,
	"MICRO SIGN":          0x00B5,
	"MIDDLE DOT":          0x00B7,
	"MULTIPLICATION SIGN": 0x00D7,
	"NO-BREAK SPACE":      0x00A0,
	"PILCROW SIGN":        0x00B6,
	"PLUS-MINUS SIGN":     0x00B1,
	"REGISTERED SIGN":     0x00AE,
	"RIGHTWARDS ARROW":    0x2192,
	"SECTION SIGN":        0x00A7,
	"ZERO WIDTH SPACE":    0x200B,
}

func hexValue(rs []rune, start, width int) (int, bool) {
	if start+width > len(rs) {
		return 0, false
	}
	v := 0
	for _, r := range rs[start : start+width] {
		var d int
		switch {
		case r >= '0' && r <= '9':
			d = int(r - '0')
		case r >= 'a' && r <= 'f':
			d = int(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = int(r-'A') + 10
		default:
			return 0, false
		}
		v = v*16 + d
	}
	return v, true
}

// pickQuote follows Python repr: single quotes unless the text contains a
// single quote and no double quote.
func pickQuote(s string) rune {
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		return '"'
	}
	return '\''
}

// reprString renders s the way Python's repr renders a str.
func reprString(s string) string {
	q := pickQuote(s)
	var b strings.Builder
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x7f:
			b.WriteRune(r)
		case unicode.IsPrint(r):
			b.WriteRune(r)
		case r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r <= 0xffff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteRune(q)
	return b.String()
}

// reprBytes renders a decoded bytes literal the way Python's repr does.
func reprBytes(s string) string {
	q := pickQuote(s)
	var b strings.Builder
	b.WriteRune('b')
	b.WriteRune(q)
	for _, r := range s {
		switch {
		case r == q || r == '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < ' ' || r >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r&0xff)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune(q)
	return b.String()
}

// cleanDoc normalizes docstring indentation like Python's inspect.cleandoc.
func cleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := strings.TrimLeftFunc(line, unicode.IsSpace)
		if content == "" {
			continue
		}
		indent := len(line) - len(content)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeftFunc(lines[0], unicode.IsSpace)
	if margin > 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

func expandTabs(s string, size int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := size - col%size
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
