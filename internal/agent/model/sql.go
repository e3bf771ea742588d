package model

// SQLQuery is a candidate statement drafted by the translator, with the
// metadata the validator and executor need.
type SQLQuery struct {
	Query      string         `json:"query"`
	Params     map[string]any `json:"params,omitempty"`
	TargetDB   DatabaseTarget `json:"target_db"`
	IsMutation bool           `json:"is_mutation"`
	Tables     []string       `json:"tables,omitempty"`
}

// ExecutionResult carries the outcome of one statement execution.
type ExecutionResult struct {
	Success         bool             `json:"success"`
	Rows            []map[string]any `json:"rows,omitempty"`
	RowCount        int              `json:"row_count"`
	Columns         []string         `json:"columns,omitempty"`
	ExecutionTimeMS float64          `json:"execution_time_ms"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	ErrorKind       ErrorKind        `json:"error_kind,omitempty"` // classification for the retry decision
}

// FuzzyMatch records one approximate hit used to build "did you mean"
// suggestions when an entity does not resolve exactly.
type FuzzyMatch struct {
	OriginalTerm string  `json:"original_term"`
	MatchedTerm  string  `json:"matched_term"`
	Similarity   float64 `json:"similarity"`
	Table        string  `json:"table"`
	Column       string  `json:"column"`
}
