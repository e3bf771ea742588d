package model

import (
	"fmt"
	"strings"
)

// FriendlyMessage is the fixed user-facing template for one error kind.
// Templates are parameterized with recovered entity names or fuzzy
// alternatives, never with raw internal error text.
type FriendlyMessage struct {
	Title      string `json:"title"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

var friendlyMessages = map[ErrorKind]FriendlyMessage{
	ErrorAmbiguousQuery: {
		Title:      "Necesito más detalles",
		Message:    "Tu consulta podría referirse a varias cosas. ¿Podrías ser más específico?",
		Suggestion: "Por ejemplo, puedes indicar el nombre del paciente, un rango de fechas, o el tipo de tratamiento.",
	},
	ErrorNoResults: {
		Title:      "Sin resultados",
		Message:    "No encontré información que coincida con tu búsqueda.",
		Suggestion: "Intenta con otros términos o verifica que el nombre esté escrito correctamente.",
	},
	ErrorPermissionDenied: {
		Title:      "Acceso restringido",
		Message:    "No tienes permisos para ver esta información.",
		Suggestion: "Si necesitas acceso, contacta al administrador del sistema.",
	},
	ErrorInvalidEntity: {
		Title:      "No encontrado",
		Message:    "No pude encontrar lo que buscas en el sistema.",
		Suggestion: "Verifica el nombre o identificador. ¿Quizás quisiste decir algo similar?",
	},
	ErrorSQL: {
		Title:      "Error procesando la consulta",
		Message:    "Hubo un problema al buscar la información.",
		Suggestion: "Intenta reformular tu pregunta de otra manera.",
	},
	ErrorValidation: {
		Title:      "Datos incompletos",
		Message:    "Faltan algunos datos necesarios para completar la acción.",
		Suggestion: "Asegúrate de incluir toda la información requerida.",
	},
	ErrorTimeout: {
		Title:      "Tiempo agotado",
		Message:    "La búsqueda tardó demasiado tiempo.",
		Suggestion: "Intenta con una consulta más específica o en un momento con menos actividad.",
	},
	ErrorRateLimited: {
		Title:      "Demasiadas solicitudes",
		Message:    "Has realizado muchas consultas en poco tiempo.",
		Suggestion: "Espera unos segundos antes de continuar.",
	},
	ErrorInternal: {
		Title:      "Error del sistema",
		Message:    "Ocurrió un error inesperado.",
		Suggestion: "Por favor intenta de nuevo. Si el problema persiste, contacta soporte.",
	},
}

// ErrorContext carries the only values a template may be parameterized with.
type ErrorContext struct {
	EntityName   string
	Alternatives []string
}

// FormatFriendlyError resolves the fixed template for an error kind,
// optionally personalised with an entity name or fuzzy alternatives.
// Unknown kinds fall back to the internal-error template.
func FormatFriendlyError(kind ErrorKind, ctx *ErrorContext) FriendlyMessage {
	msg, ok := friendlyMessages[kind]
	if !ok {
		msg = friendlyMessages[ErrorInternal]
	}

	if ctx != nil {
		if ctx.EntityName != "" {
			msg.Message = strings.Replace(msg.Message, "lo que buscas", fmt.Sprintf("'%s'", ctx.EntityName), 1)
		}
		if len(ctx.Alternatives) > 0 {
			alts := ctx.Alternatives
			if len(alts) > 3 {
				alts = alts[:3]
			}
			msg.Suggestion = fmt.Sprintf("¿Quizás quisiste decir: %s?", strings.Join(alts, ", "))
		}
	}

	return msg
}
