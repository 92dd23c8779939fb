package pdftext

import "strings"

// decodeContent pulls literal text strings out of a decoded PDF content
// stream. It walks the stream once, collecting parenthesized strings fed
// to the Tj/TJ/'/" text-showing operators and inserting line breaks on
// text-positioning operators (Td, TD, T*). Hex strings and CID-encoded
// fonts are skipped; pages relying on them extract as empty and lower the
// overall confidence instead of producing garbage.
func decodeContent(stream []byte) string {
	var sb strings.Builder
	inText := false

	for i := 0; i < len(stream); i++ {
		c := stream[i]

		switch {
		case c == 'B' && hasOperator(stream, i, "BT"):
			inText = true
			i++
		case c == 'E' && hasOperator(stream, i, "ET"):
			inText = false
			i++
		case !inText:
			continue
		case c == '(':
			s, next := readLiteral(stream, i)
			sb.WriteString(s)
			i = next
		case c == 'T' && i+1 < len(stream) && (stream[i+1] == 'd' || stream[i+1] == 'D' || stream[i+1] == '*'):
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
			i++
		case c == 'T' && i+1 < len(stream) && stream[i+1] == 'j':
			sb.WriteByte(' ')
			i++
		}
	}

	return normalize(sb.String())
}

// hasOperator reports whether stream[i:] starts the given operator token
// bounded by whitespace or delimiters on both sides.
func hasOperator(stream []byte, i int, op string) bool {
	if i+len(op) > len(stream) {
		return false
	}
	if string(stream[i:i+len(op)]) != op {
		return false
	}
	if i > 0 && !isDelimiter(stream[i-1]) {
		return false
	}
	return i+len(op) == len(stream) || isDelimiter(stream[i+len(op)])
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '[', ']', '<', '>', '/':
		return true
	}
	return false
}

// readLiteral consumes a parenthesized PDF string starting at the opening
// paren and returns its unescaped content plus the index of the closing
// paren. Nested balanced parens and backslash escapes follow the PDF
// string grammar.
func readLiteral(stream []byte, start int) (string, int) {
	var sb strings.Builder
	depth := 0

	i := start
	for ; i < len(stream); i++ {
		c := stream[i]
		switch c {
		case '\\':
			if i+1 >= len(stream) {
				return sb.String(), i
			}
			i++
			switch e := stream[i]; e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r', 'f', 'b':
				sb.WriteByte(' ')
			case '(', ')', '\\':
				sb.WriteByte(e)
			default:
				if e >= '0' && e <= '7' {
					v, next := readOctal(stream, i)
					if v >= 0x20 && v < 0x7f {
						sb.WriteByte(byte(v))
					}
					i = next
				}
			}
		case '(':
			if depth > 0 {
				sb.WriteByte(c)
			}
			depth++
		case ')':
			depth--
			if depth == 0 {
				return sb.String(), i
			}
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), i
}

// readOctal consumes up to three octal digits starting at i, returning
// the value and the index of the last digit consumed.
func readOctal(stream []byte, i int) (int, int) {
	v := 0
	n := 0
	for ; i < len(stream) && n < 3; i, n = i+1, n+1 {
		c := stream[i]
		if c < '0' || c > '7' {
			break
		}
		v = v*8 + int(c-'0')
	}
	return v, i - 1
}

// normalize collapses runs of spaces and blank lines left over from
// positioning operators.
func normalize(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
