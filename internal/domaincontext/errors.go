// File: internal/domaincontext/errors.go
package domaincontext

import "fmt"

// CorruptStateError indicates the persisted context document exists but could
// not be decoded. Corruption surfaces to the caller; it is never treated as an
// empty store.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("domain context store at %q is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }

// PersistenceError indicates an I/O failure while loading or saving the
// context document. The caller must not assume partial success.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("domain context store %s %q failed: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// RefreshFailedError indicates the summarization call failed. The prior record
// is preserved; the run continues.
type RefreshFailedError struct {
	Domain string
	Err    error
}

func (e *RefreshFailedError) Error() string {
	return fmt.Sprintf("context refresh for domain %q failed: %v", e.Domain, e.Err)
}

func (e *RefreshFailedError) Unwrap() error { return e.Err }

// InvalidTriggerError indicates a refresh was requested with no evidence. This
// is a tracker defect, not a runtime condition.
type InvalidTriggerError struct {
	Domain string
}

func (e *InvalidTriggerError) Error() string {
	return fmt.Sprintf("context refresh for domain %q triggered with empty evidence", e.Domain)
}
