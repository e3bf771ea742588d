package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

func TestValidateAcceptsReadQueries(t *testing.T) {
	queries := []string{
		"SELECT nombre, apellidos FROM clinic.pacientes WHERE activo = true",
		"SELECT COUNT(*) FROM ops.citas WHERE fecha_hora >= @desde",
		"SELECT p.nombre, c.fecha_hora FROM pacientes p JOIN citas c ON c.paciente_id = p.id",
		"SELECT SUM(monto) FROM ops.pagos WHERE estado = 'completado'",
		"SELECT * FROM auth.audit_logs ORDER BY created_at DESC",
	}
	for _, q := range queries {
		require.Empty(t, Validate(q, "Admin", false), "query should pass: %s", q)
	}
}

func TestValidateRejectsForbiddenKeywords(t *testing.T) {
	cases := []string{
		"DROP TABLE clinic.pacientes",
		"TRUNCATE ops.pagos",
		"ALTER TABLE clinic.pacientes ADD COLUMN x int",
		"CREATE TABLE robo (id int)",
		"GRANT ALL ON clinic.pacientes TO intruso",
		"SELECT * FROM pacientes; EXEC sp_who",
	}
	for _, q := range cases {
		require.NotEmpty(t, Validate(q, "Admin", false), "query should be rejected: %s", q)
	}
}

func TestValidateRejectsStackedStatements(t *testing.T) {
	reasons := Validate("SELECT * FROM clinic.pacientes; DELETE FROM clinic.pacientes", "Admin", false)
	require.NotEmpty(t, reasons)
	require.Contains(t, reasons, "no se permiten múltiples statements SQL")
}

func TestValidateAllowsSeparatorInsideLiterals(t *testing.T) {
	reasons := Validate("SELECT * FROM clinic.pacientes WHERE notas = 'uno; dos; tres'", "Admin", false)
	require.Empty(t, reasons)
}

func TestValidateRejectsUnionInjection(t *testing.T) {
	reasons := Validate("SELECT nombre FROM pacientes WHERE id = 1 UNION SELECT password FROM sys_usuarios", "Admin", false)
	require.NotEmpty(t, reasons)
}

func TestValidateSensitiveTableGating(t *testing.T) {
	q := "SELECT * FROM auth.sys_usuarios"

	require.Empty(t, Validate(q, "Admin", false))
	require.NotEmpty(t, Validate(q, "Podologo", false))
	require.NotEmpty(t, Validate(q, "Recepcion", false))

	audit := "SELECT * FROM auth.audit_logs"
	require.Empty(t, Validate(audit, "Podologo", false))
	require.NotEmpty(t, Validate(audit, "Recepcion", false))

	finance := "SELECT * FROM finance.transacciones"
	require.Empty(t, Validate(finance, "Admin", false))
	require.NotEmpty(t, Validate(finance, "Podologo", false))
}

func TestValidateMutationsNeedAuthorization(t *testing.T) {
	q := "UPDATE ops.citas SET estado = @estado WHERE id = @id"
	require.NotEmpty(t, Validate(q, "Admin", false))
	require.Empty(t, Validate(q, "Admin", true))
}

func TestValidateRejectsSystemFunctions(t *testing.T) {
	require.NotEmpty(t, Validate("SELECT pg_read_file('/etc/passwd')", "Admin", false))
	require.NotEmpty(t, Validate("COPY clinic.pacientes TO '/tmp/x'", "Admin", false))
}

func TestValidateCollectsAllReasons(t *testing.T) {
	reasons := Validate("DROP TABLE x; SELECT pg_ls_dir('.')", "Admin", false)
	require.GreaterOrEqual(t, len(reasons), 3)
}

func TestSanitizeStripsComments(t *testing.T) {
	dirty := "SELECT *  -- comentario\nFROM /* bloque */ clinic.pacientes ;"
	require.Equal(t, "SELECT * FROM clinic.pacientes", Sanitize(dirty))
}

func TestResolveTargetSchemaQualifier(t *testing.T) {
	require.Equal(t, model.TargetAuth, ResolveTarget("select * from auth.sys_usuarios", nil))
	require.Equal(t, model.TargetCore, ResolveTarget("select * from clinic.pacientes", nil))
	require.Equal(t, model.TargetOps, ResolveTarget("select * from ops.citas", nil))
	require.Equal(t, model.TargetOps, ResolveTarget("select * from finance.transacciones", nil))
}

func TestResolveTargetSchemaBeatsTableHeuristic(t *testing.T) {
	// table name says ops, qualifier says auth: the qualifier wins
	target := ResolveTarget("select * from auth.citas", nil)
	require.Equal(t, model.TargetAuth, target)
}

func TestResolveTargetFromTableList(t *testing.T) {
	require.Equal(t, model.TargetOps, ResolveTarget("select * from citas", []string{"citas"}))
	require.Equal(t, model.TargetCore, ResolveTarget("select * from tratamientos", []string{"tratamientos"}))
}

func TestResolveTargetScansStatement(t *testing.T) {
	require.Equal(t, model.TargetOps, ResolveTarget("select count(*) from pagos", nil))
}

func TestResolveTargetDefaultsToCore(t *testing.T) {
	require.Equal(t, model.TargetCore, ResolveTarget("select 1", nil))
}

func TestResolveTargetCrossDatabaseIsMultiple(t *testing.T) {
	sql := "select * from clinic.pacientes p join ops.citas c on c.paciente_id = p.id"
	require.Equal(t, model.TargetMultiple, ResolveTarget(sql, nil))
}

func TestEnsureLimit(t *testing.T) {
	require.Equal(t, "SELECT * FROM pacientes LIMIT 100", EnsureLimit("SELECT * FROM pacientes", 100))
	require.Equal(t, "SELECT * FROM pacientes LIMIT 5", EnsureLimit("SELECT * FROM pacientes LIMIT 5", 100))
}

func TestCheckQueryPassThrough(t *testing.T) {
	q := &model.SQLQuery{
		Query:  "SELECT nombre FROM clinic.pacientes WHERE activo = true",
		Tables: []string{"clinic.pacientes"},
	}
	reasons := CheckQuery(q, "Recepcion", false, 100)
	require.Empty(t, reasons)
	require.Equal(t, model.TargetCore, q.TargetDB)
	require.Equal(t, "SELECT nombre FROM clinic.pacientes WHERE activo = true LIMIT 100", q.Query)
}

func TestCheckQueryRejectsCrossDatabase(t *testing.T) {
	q := &model.SQLQuery{
		Query: "SELECT * FROM clinic.pacientes p JOIN ops.citas c ON c.paciente_id = p.id",
	}
	reasons := CheckQuery(q, "Admin", false, 100)
	require.NotEmpty(t, reasons)
}

func TestSensitiveTableRoles(t *testing.T) {
	roles, ok := SensitiveTableRoles("auth.sys_usuarios")
	require.True(t, ok)
	require.Equal(t, []string{"Admin"}, roles)

	// unqualified name resolves too
	roles, ok = SensitiveTableRoles("audit_logs")
	require.True(t, ok)
	require.Contains(t, roles, "Podologo")

	_, ok = SensitiveTableRoles("pacientes")
	require.False(t, ok)
}
