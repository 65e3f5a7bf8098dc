package descriptor

import "strings"

// PascalToSnake converts a PascalCase identifier to snake_case by inserting
// an underscore before each uppercase letter other than the first, then
// lowercasing the result. It does not attempt to split consecutive
// uppercase letters into separate words.
func PascalToSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// SnakeToPascal converts a snake_case identifier to PascalCase by splitting
// on underscores and capitalizing the first letter of each segment.
func SnakeToPascal(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
