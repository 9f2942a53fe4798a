package util

import "strings"

func Ident(s string) string {
	s = strings.TrimSpace(s)

	if s == "" || strings.Contains(s, "`") {
		return s
	}

	return "`" + s + "`"
}

func IdentAll(s []string) []string {
	result := make([]string, 0, len(s))

	for _, v := range s {
		result = append(result, Ident(v))
	}

	return result
}

// SplitCols splits a comma-separated column list, dropping blanks.
func SplitCols(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// Unquote strips identifier backticks, so `id` and id compare equal.
func Unquote(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`")
}
