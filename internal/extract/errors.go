package extract

import "github.com/rotisserie/eris"

// Error roots for the pipeline failure taxonomy. Every stage fails closed:
// no stage substitutes a default value on error, and a failed stage aborts
// the whole run. Callers classify with errors.Is.
var (
	// ErrInvalidInput marks a required input missing or empty after trimming.
	// Surfaced before any model call is issued.
	ErrInvalidInput = eris.New("invalid input")

	// ErrMissingModelOutput marks a free-text call that returned empty text.
	ErrMissingModelOutput = eris.New("missing model output")

	// ErrSchemaValidation marks a structured call whose output does not
	// conform to the expected schema. Not retried beyond the provider's own
	// retry budget.
	ErrSchemaValidation = eris.New("schema validation failed")
)
