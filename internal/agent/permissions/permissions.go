// Package permissions implements the static RBAC matrix for the query
// pipeline. It gates on intent and extracted entities before any SQL is
// generated, so a denied request never reaches the translator.
package permissions

import (
	"fmt"
	"strings"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/sqlguard"
	logx "github.com/SalvadorCordova96/ProJect-Medical/pkg/logger"
)

// Known staff and patient roles.
const (
	RoleAdmin     = "Admin"
	RolePodologo  = "Podologo"
	RoleRecepcion = "Recepcion"
	RolePaciente  = "Paciente"
)

// roleIntents lists the intents each role may pursue. Mutations are
// Admin-only; patients get plain reads.
var roleIntents = map[string][]model.IntentType{
	RoleAdmin: {
		model.IntentQueryRead, model.IntentQueryAggregate,
		model.IntentMutationCreate, model.IntentMutationUpdate, model.IntentMutationDelete,
	},
	RolePodologo:  {model.IntentQueryRead, model.IntentQueryAggregate},
	RoleRecepcion: {model.IntentQueryRead, model.IntentQueryAggregate},
	RolePaciente:  {model.IntentQueryRead},
}

// sensitiveEntityTables maps entity vocabulary the classifier emits to the
// designated sensitive tables, so access is denied before a statement exists.
var sensitiveEntityTables = map[string]string{
	"usuarios":      "auth.sys_usuarios",
	"sys_usuarios":  "auth.sys_usuarios",
	"auditoria":     "auth.audit_logs",
	"audit_logs":    "auth.audit_logs",
	"transacciones": "finance.transacciones",
	"finanzas":      "finance.transacciones",
}

// Matrix is the static permission source backing the check-permissions node.
type Matrix struct{}

func NewMatrix() *Matrix {
	return &Matrix{}
}

// Allowed reports whether the role may act on the intent with the extracted
// entities. Fast-path intents carry no data access and are always allowed.
func (m *Matrix) Allowed(role string, intent model.IntentType, entities map[string]any) bool {
	if intent.IsFastPath() {
		return true
	}

	if !intentAllowed(role, intent) {
		logx.Debug().Str("role", role).Str("intent", string(intent)).Msg("Intent not allowed for role")
		return false
	}

	for _, term := range entityTerms(entities) {
		table, sensitive := resolveSensitiveTable(term)
		if !sensitive {
			continue
		}
		allowed, _ := sqlguard.SensitiveTableRoles(table)
		if !contains(allowed, role) {
			logx.Debug().Str("role", role).Str("table", table).Msg("Sensitive table access denied")
			return false
		}
	}

	return true
}

var _ model.PermissionSource = (*Matrix)(nil)

func intentAllowed(role string, intent model.IntentType) bool {
	intents, ok := roleIntents[role]
	if !ok {
		return false
	}
	for _, it := range intents {
		if it == intent {
			return true
		}
	}
	return false
}

// entityTerms flattens both keys and scalar values of the entity map into
// lowercase terms the sensitive-table lookup can match.
func entityTerms(entities map[string]any) []string {
	terms := make([]string, 0, len(entities)*2)
	for k, v := range entities {
		terms = append(terms, strings.ToLower(strings.TrimSpace(k)))
		switch vv := v.(type) {
		case string:
			terms = append(terms, strings.ToLower(strings.TrimSpace(vv)))
		case []any:
			for _, item := range vv {
				terms = append(terms, strings.ToLower(strings.TrimSpace(fmt.Sprint(item))))
			}
		}
	}
	return terms
}

func resolveSensitiveTable(term string) (string, bool) {
	if table, ok := sensitiveEntityTables[term]; ok {
		return table, true
	}
	if _, ok := sqlguard.SensitiveTableRoles(term); ok {
		return term, true
	}
	return "", false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
