package schema

import (
	"strings"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Common initialisms kept upper-case in Go identifiers.
var initialisms = map[string]string{
	"api":  "API",
	"db":   "DB",
	"html": "HTML",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"uid":  "UID",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// TableName derives a table name from a Go type name, pluralized and
// snake-cased the way migrations name tables: "UserProfile" becomes
// "user_profiles".
func TableName(goName string) string {
	return inflect.Tableize(goName)
}

// Label returns a human-readable form of a column name for messages:
// "created_at" becomes "Created At".
func Label(column string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(column, "_", " "))
}

// GoName converts a snake_case column name to an exported Go identifier:
// "user_id" becomes "UserID".
func GoName(column string) string {
	parts := strings.Split(column, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if u, ok := initialisms[strings.ToLower(p)]; ok {
			sb.WriteString(u)
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(strings.ToLower(p[1:]))
	}
	return sb.String()
}
