package model

// IntentType classifies what the user is asking for.
type IntentType string

const (
	IntentQueryRead      IntentType = "query_read"      // SELECT style lookups
	IntentQueryAggregate IntentType = "query_aggregate" // COUNT, SUM, AVG, ...
	IntentMutationCreate IntentType = "mutation_create" // INSERT, needs confirmation
	IntentMutationUpdate IntentType = "mutation_update" // UPDATE, needs confirmation
	IntentMutationDelete IntentType = "mutation_delete" // DELETE, needs confirmation
	IntentClarification  IntentType = "clarification"   // more context required
	IntentOutOfScope     IntentType = "out_of_scope"    // outside the clinic domain
	IntentGreeting       IntentType = "greeting"        // small talk
)

// IsMutation reports whether the intent would modify data.
func (i IntentType) IsMutation() bool {
	switch i {
	case IntentMutationCreate, IntentMutationUpdate, IntentMutationDelete:
		return true
	}
	return false
}

// IsFastPath reports whether the intent skips data access entirely.
func (i IntentType) IsFastPath() bool {
	switch i {
	case IntentGreeting, IntentOutOfScope, IntentClarification:
		return true
	}
	return false
}

// ParseIntent normalises a classifier label into a known intent. Unknown
// labels collapse to clarification so the pipeline never guesses.
func ParseIntent(v string) IntentType {
	switch IntentType(v) {
	case IntentQueryRead, IntentQueryAggregate,
		IntentMutationCreate, IntentMutationUpdate, IntentMutationDelete,
		IntentClarification, IntentOutOfScope, IntentGreeting:
		return IntentType(v)
	default:
		return IntentClarification
	}
}

// ErrorKind is the taxonomy surfaced through the error channel of the state.
type ErrorKind string

const (
	ErrorNone             ErrorKind = "none"
	ErrorAmbiguousQuery   ErrorKind = "ambiguous_query"
	ErrorNoResults        ErrorKind = "no_results"
	ErrorPermissionDenied ErrorKind = "permission_denied"
	ErrorInvalidEntity    ErrorKind = "invalid_entity"
	ErrorSQL              ErrorKind = "sql_error"
	ErrorValidation       ErrorKind = "validation_error"
	ErrorTimeout          ErrorKind = "timeout"
	ErrorRateLimited      ErrorKind = "rate_limit"
	ErrorInternal         ErrorKind = "internal"
)

// Retryable reports whether an execution failure of this kind warrants a
// loop back through SQL generation. Validation and permission failures are
// terminal for the turn.
func (e ErrorKind) Retryable() bool {
	return e == ErrorSQL || e == ErrorTimeout
}

// DatabaseTarget names one of the logical relational backends.
type DatabaseTarget string

const (
	TargetAuth     DatabaseTarget = "auth" // identity and audit data
	TargetCore     DatabaseTarget = "core" // clinical records
	TargetOps      DatabaseTarget = "ops"  // scheduling and finance
	TargetMultiple DatabaseTarget = "multiple"
)
