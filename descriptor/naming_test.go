package descriptor

import "testing"

func TestPascalToSnake(t *testing.T) {
	cases := map[string]string{
		"GetUser":     "get_user",
		"ListWidgets": "list_widgets",
		"Echo":        "echo",
		"A":           "a",
	}
	for in, want := range cases {
		if got := PascalToSnake(in); got != want {
			t.Errorf("PascalToSnake(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSnakeToPascal(t *testing.T) {
	cases := map[string]string{
		"get_user":     "GetUser",
		"list_widgets": "ListWidgets",
		"echo":         "Echo",
		"a":            "A",
	}
	for in, want := range cases {
		if got := SnakeToPascal(in); got != want {
			t.Errorf("SnakeToPascal(%q) = %q, want %q", in, got, want)
		}
	}
}

// TestSnakeIdempotence covers the "snake(pascal(s)) == s" testable
// property for snake-case identifiers without leading/consecutive
// underscores.
func TestSnakeIdempotence(t *testing.T) {
	for _, s := range []string{"get_user", "list_widgets", "echo", "a", "get_user_by_id"} {
		if got := PascalToSnake(SnakeToPascal(s)); got != s {
			t.Errorf("PascalToSnake(SnakeToPascal(%q)) = %q, want %q", s, got, s)
		}
	}
}

// TestPascalIdempotence covers the "pascal(snake(p)) == p" property for
// PascalCase identifiers without consecutive uppercase letters, the
// documented limitation of this transform pair.
func TestPascalIdempotence(t *testing.T) {
	for _, p := range []string{"GetUser", "ListWidgets", "Echo", "A", "GetUserById"} {
		if got := SnakeToPascal(PascalToSnake(p)); got != p {
			t.Errorf("SnakeToPascal(PascalToSnake(%q)) = %q, want %q", p, got, p)
		}
	}
}
