package bookreviews

import "errors"

// Sentinel errors returned by the store. Callers match them with errors.Is
// to tell caller-input failures apart; none of them warrant a retry.

// ErrNotFound is returned when a lookup by id or by association pair
// matches no row.
var ErrNotFound = errors.New("not found")

// ErrConstraint is returned when an insert, update or delete would violate
// a uniqueness, foreign-key or check invariant, such as a Review referencing
// a nonexistent User or deleting a Book that still has Reviews.
var ErrConstraint = errors.New("constraint violation")

// ErrDuplicateAssociation is returned by AttachGenreStrict when the pair is
// already linked. The plain AttachGenre treats a duplicate as a no-op.
var ErrDuplicateAssociation = errors.New("duplicate association")
