// Package sqlguard decides whether a candidate statement may run and which
// logical database must receive it. The checks are layered heuristics
// (pattern matching, not a SQL parser): they can over-reject unusual but
// benign statements, and a parser-based allow-list remains a possible
// future hardening step.
package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

// forbiddenKeywordRe matches schema/data-definition and privilege statements
// plus stored-routine execution, on word boundaries.
var forbiddenKeywordRe = regexp.MustCompile(`(?i)\b(drop|truncate|alter|create|grant|revoke|execute|exec)\b`)

// forbiddenFragments are matched as plain substrings: routine prefixes and
// comment delimiters used to smuggle trailing content.
var forbiddenFragments = []string{"sp_", "xp_", "--", "/*", "*/"}

// unionInjectionRe is a heuristic defense against injected column
// exfiltration: a closing parenthesis or a bare FROM immediately followed by
// a combining UNION SELECT.
var unionInjectionRe = regexp.MustCompile(`(?i)\)\s*union\s+select|union\s+select\s+[^(]*from`)

// dangerousClauses cover file/dump output and external program execution.
var dangerousClauses = []string{"into outfile", "into dumpfile", "load_file", "exec(", "execute("}

// systemFunctionRe matches privileged introspection and file-access
// functions of the backend.
var systemFunctionRe = regexp.MustCompile(`(?i)\b(pg_read_file|pg_ls_dir|pg_stat_file|copy)\b`)

var mutationShapeRe = regexp.MustCompile(`(?i)^(insert|update|delete)\b`)

// sensitiveTables maps designated tables to the roles explicitly allowed to
// touch them. Everyone else is rejected regardless of statement shape.
var sensitiveTables = map[string][]string{
	"auth.sys_usuarios":     {"Admin"},
	"auth.audit_logs":       {"Admin", "Podologo"},
	"finance.transacciones": {"Admin"},
}

// Validate runs the layered safety checks over an already sanitized
// statement and returns every reason it fails. An empty slice means the
// statement may run. It never panics and never returns an error: a rejection
// is an ordinary outcome, not a failure of the validator.
func Validate(sql, role string, mutationAuthorized bool) []string {
	var reasons []string
	upper := strings.ToUpper(strings.TrimSpace(sql))
	lower := strings.ToLower(sql)

	if strings.TrimSpace(sql) == "" {
		return []string{"empty statement"}
	}

	if m := forbiddenKeywordRe.FindString(sql); m != "" {
		reasons = append(reasons, fmt.Sprintf("operación no permitida: %s", strings.ToUpper(m)))
	}
	for _, frag := range forbiddenFragments {
		if strings.Contains(lower, frag) {
			reasons = append(reasons, fmt.Sprintf("operación no permitida: %s", frag))
		}
	}

	if !strings.HasPrefix(upper, "SELECT") {
		if !(mutationAuthorized && mutationShapeRe.MatchString(sql)) {
			reasons = append(reasons, "solo se permiten consultas de lectura (SELECT)")
		}
	}

	// Statement stacking: after removing quoted literals no separator may
	// remain.
	if strings.Contains(stripQuotedLiterals(sql), ";") {
		reasons = append(reasons, "no se permiten múltiples statements SQL")
	}

	if strings.Contains(lower, "union") && unionInjectionRe.MatchString(sql) {
		reasons = append(reasons, "patrón sospechoso de SQL injection detectado (UNION)")
	}

	for table, allowed := range sensitiveTables {
		if !referencesTable(lower, table) {
			continue
		}
		if !roleAllowed(role, allowed) {
			reasons = append(reasons, fmt.Sprintf("sin permisos para acceder a %s", table))
		}
	}

	for _, clause := range dangerousClauses {
		if strings.Contains(lower, clause) {
			reasons = append(reasons, fmt.Sprintf("cláusula no permitida: %s", clause))
		}
	}
	if m := systemFunctionRe.FindString(sql); m != "" {
		reasons = append(reasons, fmt.Sprintf("función de sistema no permitida: %s", strings.ToLower(m)))
	}

	return reasons
}

// SensitiveTableRoles exposes the allow-list for a table so the permission
// source can gate on extracted entities before any SQL exists. The second
// return is false for tables that are not designated sensitive.
func SensitiveTableRoles(table string) ([]string, bool) {
	table = strings.ToLower(strings.TrimSpace(table))
	if roles, ok := sensitiveTables[table]; ok {
		return roles, true
	}
	for qualified, roles := range sensitiveTables {
		if bareTable(qualified) == table {
			return roles, true
		}
	}
	return nil, false
}

// CheckQuery is the convenience wrapper the orchestrator uses: sanitize,
// validate, resolve the target and inject the row limit in one pass. The
// query is updated in place when it passes.
func CheckQuery(q *model.SQLQuery, role string, mutationAuthorized bool, maxResults int) []string {
	clean := Sanitize(q.Query)
	reasons := Validate(clean, role, mutationAuthorized)

	target := ResolveTarget(clean, q.Tables)
	if target == model.TargetMultiple {
		reasons = append(reasons, "la consulta requiere varias bases de datos; no se admiten joins entre bases")
	}

	if len(reasons) > 0 {
		return reasons
	}

	q.Query = EnsureLimit(clean, maxResults)
	q.TargetDB = target
	return nil
}

func referencesTable(lowerSQL, qualified string) bool {
	if strings.Contains(lowerSQL, qualified) {
		return true
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(bareTable(qualified)) + `\b`)
	return re.MatchString(lowerSQL)
}

func bareTable(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[i+1:]
	}
	return qualified
}

func roleAllowed(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
