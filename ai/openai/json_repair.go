package openai

import "strings"

// repairJSON fixes the formatting slips small models commonly make in JSON
// replies: prose around the object, unquoted keys and trailing commas.
func repairJSON(s string) string {
	s = extractObject(s)
	s = quoteKeys(s)
	return dropTrailingCommas(s)
}

// extractObject trims anything before the first '{' and after the last '}'.
func extractObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// quoteKeys adds the missing opening quote in keys such as `, type":`.
func quoteKeys(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		out = append(out, ch)

		if ch == '"' && (i == 0 || in[i-1] != '\\') {
			inString = !inString
			continue
		}
		if inString || (ch != '{' && ch != ',') {
			continue
		}

		j := i + 1
		for j < len(in) && isSpace(in[j]) {
			j++
		}
		if j >= len(in) || !isLetter(in[j]) {
			continue
		}
		k := j
		for k < len(in) && (isLetter(in[k]) || in[k] == '_') {
			k++
		}
		if k+1 < len(in) && in[k] == '"' && in[k+1] == ':' {
			out = append(out, in[i+1:j]...)
			out = append(out, '"')
			out = append(out, in[j:k]...)
			out = append(out, '"')
			i = k
		}
	}
	return string(out)
}

// dropTrailingCommas removes commas directly followed by '}' or ']'.
func dropTrailingCommas(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in))
	inString := false

	for i := 0; i < len(in); i++ {
		ch := in[i]
		if ch == '"' && (i == 0 || in[i-1] != '\\') {
			inString = !inString
		}
		if ch == ',' && !inString {
			j := i + 1
			for j < len(in) && isSpace(in[j]) {
				j++
			}
			if j < len(in) && (in[j] == '}' || in[j] == ']') {
				continue
			}
		}
		out = append(out, ch)
	}
	return string(out)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
