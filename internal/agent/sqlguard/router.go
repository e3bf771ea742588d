package sqlguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

// schemaToDB resolves an explicit schema qualifier to its logical database.
// Finance lives in the operations database.
var schemaToDB = map[string]model.DatabaseTarget{
	"auth":    model.TargetAuth,
	"clinic":  model.TargetCore,
	"ops":     model.TargetOps,
	"finance": model.TargetOps,
}

// tableToDB is the static table-name lookup used when no schema qualifier is
// present.
var tableToDB = map[string]model.DatabaseTarget{
	// auth
	"sys_usuarios": model.TargetAuth,
	"clinicas":     model.TargetAuth,
	"audit_logs":   model.TargetAuth,
	// core
	"pacientes":    model.TargetCore,
	"tratamientos": model.TargetCore,
	"evoluciones":  model.TargetCore,
	"evidencias":   model.TargetCore,
	// ops
	"podologos":          model.TargetOps,
	"citas":              model.TargetOps,
	"catalogo_servicios": model.TargetOps,
	"prospectos":         model.TargetOps,
	"pagos":              model.TargetOps,
	"transacciones":      model.TargetOps,
	"gastos":             model.TargetOps,
}

var limitRe = regexp.MustCompile(`(?i)\blimit\b`)

// ResolveTarget decides which logical database a statement must run against.
// Precedence: explicit schema qualifier, then the static table lookup, then
// the clinical store as default. When the referenced tables span more than
// one database the result is TargetMultiple, which the validator treats as a
// failure (cross-database joins are not supported).
func ResolveTarget(sql string, tables []string) model.DatabaseTarget {
	lower := strings.ToLower(sql)

	targets := map[model.DatabaseTarget]bool{}
	for schema, db := range schemaToDB {
		if strings.Contains(lower, schema+".") {
			targets[db] = true
		}
	}
	if len(targets) == 1 {
		return firstTarget(targets)
	}
	if len(targets) > 1 {
		return model.TargetMultiple
	}

	for _, t := range tables {
		if db, ok := tableToDB[strings.ToLower(strings.TrimSpace(t))]; ok {
			targets[db] = true
		}
	}
	if len(targets) == 0 {
		for table, db := range tableToDB {
			if regexp.MustCompile(`\b` + table + `\b`).MatchString(lower) {
				targets[db] = true
			}
		}
	}

	switch len(targets) {
	case 0:
		return model.TargetCore
	case 1:
		return firstTarget(targets)
	default:
		return model.TargetMultiple
	}
}

// EnsureLimit appends a row ceiling to any statement lacking one.
func EnsureLimit(sql string, maxResults int) string {
	if limitRe.MatchString(sql) {
		return sql
	}
	return fmt.Sprintf("%s LIMIT %d", sql, maxResults)
}

func firstTarget(set map[model.DatabaseTarget]bool) model.DatabaseTarget {
	for t := range set {
		return t
	}
	return model.TargetCore
}
