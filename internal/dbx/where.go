package dbx

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	forbiddenKeywords = regexp.MustCompile(
		`(?i)\b(DROP|DELETE|UPDATE|INSERT|TRUNCATE|ALTER|CREATE|RENAME|GRANT|REVOKE|SLEEP|BENCHMARK|LOAD_FILE)\b`,
	)
	forbiddenInto = regexp.MustCompile(`(?i)\bINTO\s+(OUT|DUMP)FILE\b`)
)

// ValidateWhereClause rejects filters that could do more than filter rows.
// It is a guard against mistakes, not a SQL parser.
func ValidateWhereClause(where string) error {
	where = strings.TrimSpace(where)
	if where == "" {
		return nil
	}

	for _, tok := range []string{";", "--", "/*", "*/"} {
		if strings.Contains(where, tok) {
			return fmt.Errorf("forbidden token %q", tok)
		}
	}

	if m := forbiddenKeywords.FindString(where); m != "" {
		return fmt.Errorf("forbidden keyword %q", strings.ToUpper(m))
	}

	if m := forbiddenInto.FindString(where); m != "" {
		return fmt.Errorf("forbidden clause %q", strings.ToUpper(m))
	}

	return nil
}
