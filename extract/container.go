package extract

import "regexp"

var containerShape = regexp.MustCompile(`\b([A-Z]{4}\d{7})\b`)

// letterValues maps ISO 6346 owner-code letters to their numeric values.
// The sequence skips multiples of 11.
var letterValues = map[byte]int{
	'A': 10, 'B': 12, 'C': 13, 'D': 14, 'E': 15, 'F': 16, 'G': 17,
	'H': 18, 'I': 19, 'J': 20, 'K': 21, 'L': 23, 'M': 24, 'N': 25,
	'O': 26, 'P': 27, 'Q': 28, 'R': 29, 'S': 30, 'T': 31, 'U': 32,
	'V': 34, 'W': 35, 'X': 36, 'Y': 37, 'Z': 38,
}

// ExtractContainerNumbers returns container numbers that match the
// ISO 6346 shape AND its mod-11 check digit. Syntactic matches with an
// invalid check digit are discarded.
func ExtractContainerNumbers(text string) []Entity {
	var out []Entity
	for _, m := range containerShape.FindAllStringSubmatch(text, -1) {
		if !ValidContainerNumber(m[1]) {
			continue
		}
		out = append(out, Entity{
			Type:       EntityContainerNumber,
			Value:      m[1],
			Confidence: 95,
		})
	}
	return out
}

// ValidContainerNumber verifies the ISO 6346 check digit of an 11-character
// container number (4 letters, 6 serial digits, 1 check digit).
func ValidContainerNumber(number string) bool {
	if len(number) != 11 {
		return false
	}

	sum := 0
	for i := range 10 {
		var v int
		c := number[i]
		switch {
		case c >= 'A' && c <= 'Z':
			v = letterValues[c]
		case c >= '0' && c <= '9':
			v = int(c - '0')
		default:
			return false
		}
		sum += v << i
	}

	check := sum % 11 % 10
	return int(number[10]-'0') == check
}
