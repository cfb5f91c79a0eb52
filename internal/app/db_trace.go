package app

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	maxTracedQueryLength = 512
	// Column lists longer than this are shown as a count.
	maxTracedColumns = 3
)

var (
	queryWhitespaceRegex = regexp.MustCompile(`\s+`)
	selectColumnsRegex   = regexp.MustCompile(`(?i)^SELECT (.+?) FROM `)
	returningRegex       = regexp.MustCompile(`(?i) RETURNING ([a-z_, ]+)$`)
	valuesRegex          = regexp.MustCompile(`VALUES \(\$\d+(?:, \$\d+)*\)`)
)

// formatDBQueryForTrace renders a statement as a one-line span attribute.
// Wide SELECT and RETURNING lists become "<n columns>" and placeholder
// tuples become "VALUES (...)", so spans stay readable.
func formatDBQueryForTrace(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	normalized := queryWhitespaceRegex.ReplaceAllString(query, " ")
	normalized = replaceColumnList(selectColumnsRegex, normalized, "SELECT ", " FROM ")
	normalized = replaceColumnList(returningRegex, normalized, " RETURNING ", "")
	normalized = valuesRegex.ReplaceAllString(normalized, "VALUES (...)")
	if len(normalized) <= maxTracedQueryLength {
		return normalized
	}

	return normalized[:maxTracedQueryLength] + "..."
}

func replaceColumnList(re *regexp.Regexp, query, prefix, suffix string) string {
	loc := re.FindStringSubmatchIndex(query)
	if loc == nil {
		return query
	}
	columns := strings.Count(query[loc[2]:loc[3]], ",") + 1
	if columns <= maxTracedColumns {
		return query
	}
	return query[:loc[0]] + prefix + "<" + strconv.Itoa(columns) + " columns>" + suffix + query[loc[1]:]
}
