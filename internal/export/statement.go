package export

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"custid/internal/services"
	"custid/internal/services/sqlsource"
)

// Statement is a query plus its bind arguments.
type Statement struct {
	Name string
	SQL  string
	Args []any
}

var (
	quotedLiteral  = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"`)
	lineComment    = regexp.MustCompile(`--[^\n]*`)
	blockComment   = regexp.MustCompile(`(?s)/\*.*?\*/`)
	forbiddenWords = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|MERGE|GRANT|REVOKE|CALL|LOCK|INTO|SET)\b`)
	leadingWord    = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)
)

// ValidateReadOnly rejects anything but a single SELECT (or WITH ... SELECT)
// statement. Errors wrap services.ErrValidation.
func ValidateReadOnly(sql string) error {
	stripped := blockComment.ReplaceAllString(sql, " ")
	stripped = lineComment.ReplaceAllString(stripped, " ")
	stripped = quotedLiteral.ReplaceAllString(stripped, "''")
	stripped = strings.TrimSpace(stripped)

	if stripped == "" {
		return services.Wrap(services.ErrValidation, "export", "validate", "statement is empty", nil)
	}
	if !leadingWord.MatchString(stripped) {
		return services.Wrap(services.ErrValidation, "export", "validate", "only SELECT statements are allowed", nil)
	}
	body := strings.TrimRight(stripped, "; \t\n")
	if strings.Contains(body, ";") {
		return services.Wrap(services.ErrValidation, "export", "validate", "multiple statements are not allowed", nil)
	}
	if word := forbiddenWords.FindString(body); word != "" {
		return services.Wrap(services.ErrValidation, "export", "validate",
			fmt.Sprintf("statement contains %q; data changing queries are not allowed", strings.ToUpper(word)), nil)
	}
	return nil
}

// Custom wraps an operator statement after validating it.
func Custom(sql string) (Statement, error) {
	if err := ValidateReadOnly(sql); err != nil {
		return Statement{}, err
	}
	return Statement{Name: "custom", SQL: strings.TrimRight(strings.TrimSpace(sql), ";")}, nil
}

const officeJoin = `FROM navis_offices o
LEFT JOIN address_book_masters abm ON o.id = abm.navis_office_id`

type preset struct {
	description string
	build       func(now time.Time, term string) Statement
}

var presets = map[string]preset{
	"customers": {
		description: "newest 100 offices",
		build: func(time.Time, string) Statement {
			return Statement{SQL: `SELECT o.id AS office_id, o.tenant_uid, o.name AS company_name,
	o.identification_code, abm.corporate_number, o.created_at
` + officeJoin + `
ORDER BY o.created_at DESC
LIMIT 100`}
		},
	},
	"recent": {
		description: "offices updated in the last 7 days",
		build: func(now time.Time, _ string) Statement {
			return Statement{
				SQL: `SELECT o.id AS office_id, o.tenant_uid, o.name AS company_name,
	abm.corporate_number, o.updated_at AS last_updated
` + officeJoin + `
WHERE o.updated_at >= ?
ORDER BY o.updated_at DESC`,
				Args: []any{now.AddDate(0, 0, -7).Format("2006-01-02 15:04:05")},
			}
		},
	},
	"stats": {
		description: "office, tenant and corporate number counts",
		build: func(time.Time, string) Statement {
			return Statement{SQL: `SELECT COUNT(DISTINCT o.id) AS total_offices,
	COUNT(DISTINCT o.tenant_uid) AS total_tenant_uids,
	COUNT(DISTINCT abm.corporate_number) AS total_corporate_numbers,
	MIN(o.created_at) AS oldest_office,
	MAX(o.created_at) AS newest_office
` + officeJoin}
		},
	},
	"search": {
		description: "offices whose name contains --term",
		build: func(_ time.Time, term string) Statement {
			return Statement{
				SQL: `SELECT o.id AS office_id, o.tenant_uid, o.name AS company_name,
	o.identification_code, abm.corporate_number
` + officeJoin + `
WHERE o.name LIKE ? ESCAPE '!'
ORDER BY o.created_at DESC`,
				Args: []any{"%" + sqlsource.EscapeLike(term) + "%"},
			}
		},
	},
}

// Preset returns the named predefined statement. The search preset requires
// a non-empty term.
func Preset(name string, now time.Time, term string) (Statement, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := presets[name]
	if !ok {
		return Statement{}, services.Wrap(services.ErrValidation, "export", "preset",
			fmt.Sprintf("unknown preset %q (available: %s)", name, strings.Join(PresetNames(), ", ")), nil)
	}
	if name == "search" && strings.TrimSpace(term) == "" {
		return Statement{}, services.Wrap(services.ErrValidation, "export", "preset", "search preset requires a term", nil)
	}
	stmt := p.build(now, strings.TrimSpace(term))
	stmt.Name = name
	return stmt, nil
}

// PresetNames lists available presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetDescription returns the one-line summary for a preset.
func PresetDescription(name string) string {
	return presets[name].description
}
