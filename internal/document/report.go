package document

import (
	"errors"
	"fmt"
	"time"
)

// Severity grades a validation result or diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// RuleResult is the outcome of one validation rule.
type RuleResult struct {
	Rule     string   `json:"rule"`
	Passed   bool     `json:"passed"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message,omitempty"`
}

// Diagnostic records a recoverable anomaly observed during processing:
// tolerance matches, unmapped colors, accepted undersized chunks.
type Diagnostic struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Page     int      `json:"page,omitempty"`
}

// ValidationReport collects rule results and accumulated diagnostics for
// one document run. It never mutates the chunks it describes.
type ValidationReport struct {
	DocID       string       `json:"doc_id"`
	Results     []RuleResult `json:"results"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Passed reports whether no rule failed at error severity.
func (r ValidationReport) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed && res.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Warnings counts failed rules at warning severity.
func (r ValidationReport) Warnings() int {
	n := 0
	for _, res := range r.Results {
		if !res.Passed && res.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// StructuralError marks a document whose structure violates pipeline
// invariants: decreasing pages, an empty paragraph stream. It is fatal
// for that one document; the surrounding batch continues.
type StructuralError struct {
	DocID  string
	Reason string
}

func (e *StructuralError) Error() string {
	if e.DocID == "" {
		return fmt.Sprintf("structural error: %s", e.Reason)
	}
	return fmt.Sprintf("structural error in %s: %s", e.DocID, e.Reason)
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
