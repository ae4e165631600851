// Package visit fetches a candidate site's home page and at most one same-domain
// contact page.
package visit

import "fmt"

// VisitError is the terminal "visit failed" signal: the home page could not be fetched.
type VisitError struct {
	URL     string
	Message string
	Cause   error
}

func (e *VisitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("visit failed for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("visit failed for %s: %s", e.URL, e.Message)
}

func (e *VisitError) Unwrap() error {
	return e.Cause
}
