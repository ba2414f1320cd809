package consensus

import "errors"

var (
	// ErrValidation rejects a submission before any mutation happens.
	ErrValidation = errors.New("invalid submission")

	// ErrDuplicatePhoto aborts the whole submission: the photo content was
	// already used by an earlier report.
	ErrDuplicatePhoto = errors.New("photo already used by another report")

	// ErrConflict marks a transient write collision between two cascades
	// over the same cluster. The engine retries these; callers never see
	// them unless retries are exhausted.
	ErrConflict = errors.New("concurrent update conflict")
)
