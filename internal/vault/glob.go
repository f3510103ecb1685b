package vault

import (
	"regexp"
	"strings"
)

// globRegexp translates a shell-style glob into a regular expression.
// '*' matches any run of characters including path separators, '?'
// matches one character, '[seq]' matches a character class, negated by
// a leading '!' or '^'. An unterminated class is treated literally.
func globRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?s)^`)

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '[':
			end := i + 1
			if end < len(runes) && (runes[end] == '!' || runes[end] == '^') {
				end++
			}
			if end < len(runes) && runes[end] == ']' {
				end++
			}
			for end < len(runes) && runes[end] != ']' {
				end++
			}
			if end >= len(runes) {
				b.WriteString(`\[`)
				continue
			}
			class := string(runes[i+1 : end])
			negate := false
			if strings.HasPrefix(class, "!") || strings.HasPrefix(class, "^") {
				negate = true
				class = class[1:]
			}
			class = strings.ReplaceAll(class, `\`, `\\`)
			// A leading ']' was consumed as a class member; RE2 needs
			// it escaped, unlike POSIX classes.
			class = strings.ReplaceAll(class, `]`, `\]`)
			if negate {
				class = "^" + class
			}
			b.WriteString("[" + class + "]")
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}

	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

// matchGlob reports whether name matches the glob pattern. A pattern
// that fails to compile matches nothing.
func matchGlob(pattern, name string) bool {
	re, err := globRegexp(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(name)
}
