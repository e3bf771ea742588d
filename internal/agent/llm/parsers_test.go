package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

func TestParseClassification(t *testing.T) {
	out, err := ParseClassification(`{"intent":"query_read","confidence":0.87,"entities":{"paciente":"Juan"}}`)
	require.NoError(t, err)
	require.Equal(t, model.IntentQueryRead, out.Intent)
	require.InDelta(t, 0.87, out.Confidence, 1e-9)
	require.Equal(t, "Juan", out.Entities["paciente"])
}

func TestParseClassificationFencedOutput(t *testing.T) {
	content := "```json\n{\"intent\":\"greeting\",\"confidence\":0.99,\"entities\":{}}\n```"
	out, err := ParseClassification(content)
	require.NoError(t, err)
	require.Equal(t, model.IntentGreeting, out.Intent)
}

func TestParseClassificationUnknownIntentFallsBack(t *testing.T) {
	out, err := ParseClassification(`{"intent":"make_coffee","confidence":0.5}`)
	require.NoError(t, err)
	require.Equal(t, model.IntentClarification, out.Intent)
	require.NotNil(t, out.Entities)
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	out, err := ParseClassification(`{"intent":"query_read","confidence":3.2}`)
	require.NoError(t, err)
	require.Equal(t, 1.0, out.Confidence)

	out, err = ParseClassification(`{"intent":"query_read","confidence":-0.4}`)
	require.NoError(t, err)
	require.Equal(t, 0.0, out.Confidence)
}

func TestParseClassificationRejectsNonJSON(t *testing.T) {
	_, err := ParseClassification("no puedo clasificar eso")
	require.Error(t, err)
}

func TestParseTranslation(t *testing.T) {
	content := `La consulta es:
{"query":"SELECT nombre FROM clinic.pacientes WHERE nombre ILIKE @nombre","params":{"nombre":"%juan%"},"tables":["clinic.pacientes"],"is_mutation":false}`
	out, err := ParseTranslation(content)
	require.NoError(t, err)
	require.Equal(t, "SELECT nombre FROM clinic.pacientes WHERE nombre ILIKE @nombre", out.Query)
	require.Equal(t, "%juan%", out.Params["nombre"])
	require.Equal(t, []string{"clinic.pacientes"}, out.Tables)
	require.False(t, out.IsMutation)
}

func TestParseTranslationEmptyStatement(t *testing.T) {
	_, err := ParseTranslation(`{"query":"   ","params":{}}`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty statement")
}

func TestParseTranslationOversizeStatement(t *testing.T) {
	huge := `{"query":"SELECT '` + strings.Repeat("x", maxSQLLen+1) + `'"}`
	_, err := ParseTranslation(huge)
	require.Error(t, err)
}

func TestParseTranslationMutationFlag(t *testing.T) {
	out, err := ParseTranslation(`{"query":"UPDATE ops.citas SET estado=@estado WHERE id=@id","params":{"estado":"cancelada","id":3},"tables":["ops.citas"],"is_mutation":true}`)
	require.NoError(t, err)
	require.True(t, out.IsMutation)
}
