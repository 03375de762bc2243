package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied          = errors.New("access denied")
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrGeneration            = errors.New("certificate generation failed")
	ErrUpload                = errors.New("upload failed")
	ErrLedger                = errors.New("ledger operation failed")
	ErrEnrollment            = errors.New("enrollment failed")
	ErrAdminTokenUnavailable = errors.New("admin token not available")
)

// PartialFailure reports an aborted multi-step operation that left
// artifacts behind in the cluster or blob store. The references it
// carries are what an out-of-band reconciler needs; Err is the
// originating failure and drives errors.Is classification.
type PartialFailure struct {
	Op                     string
	OrphanedContentAddress string
	OrphanedBlobReference  string
	Err                    error
}

func (e *PartialFailure) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Err)
	if e.OrphanedContentAddress != "" {
		msg += " (orphaned content address " + e.OrphanedContentAddress + ")"
	}
	if e.OrphanedBlobReference != "" {
		msg += " (orphaned blob " + e.OrphanedBlobReference + ")"
	}
	return msg
}

func (e *PartialFailure) Unwrap() error {
	return e.Err
}
