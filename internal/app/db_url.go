package app

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"
)

// postgresDSN prepares DB_URL for lib/pq. Both the URL and the keyword=value
// forms are accepted. Parameters already present in raw win over the ones
// added here.
func postgresDSN(raw, applicationName string, disablePreparedBinaryResult bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("postgres dsn is empty")
	}

	params := make(map[string]string, 2)
	if name := strings.TrimSpace(applicationName); name != "" {
		params["application_name"] = name
	}
	if disablePreparedBinaryResult {
		params["disable_prepared_binary_result"] = "yes"
	}

	if !strings.Contains(raw, "://") {
		return appendKeywordParams(raw, params), nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported postgres url scheme %q", parsed.Scheme)
	}
	if len(params) == 0 {
		return raw, nil
	}

	query := parsed.Query()
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if query.Get(key) == "" {
			query.Set(key, params[key])
		}
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func appendKeywordParams(raw string, params map[string]string) string {
	present := make(map[string]bool)
	for _, token := range strings.Fields(raw) {
		if key, _, ok := strings.Cut(token, "="); ok {
			present[key] = true
		}
	}

	var buf strings.Builder
	buf.WriteString(raw)
	for _, key := range slices.Sorted(maps.Keys(params)) {
		if present[key] {
			continue
		}
		buf.WriteString(" ")
		buf.WriteString(key)
		buf.WriteString("=")
		buf.WriteString(quoteKeywordValue(params[key]))
	}
	return buf.String()
}

func quoteKeywordValue(value string) string {
	if value != "" && !strings.ContainsAny(value, ` '\`) {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return "'" + escaped + "'"
}

// postgresDBName reports the database a DSN points at, for span attributes
// and startup logs.
func postgresDBName(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		if name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/")); name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		value, ok := strings.CutPrefix(token, "dbname=")
		if !ok {
			continue
		}
		if name := strings.Trim(strings.TrimSpace(value), `"'`); name != "" {
			return name
		}
	}
	return ""
}
