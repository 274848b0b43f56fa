package domain

import "github.com/google/uuid"

// Identity is the caller of an operation as reported by the identity provider.
// The zero value is the anonymous identity.
type Identity struct {
	UserID  uuid.UUID
	IsStaff bool
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

// IsAnonymous reports whether the caller is unauthenticated.
func (i Identity) IsAnonymous() bool {
	return i.UserID == uuid.Nil
}

// Ref returns the caller as a nullable identity reference, nil when anonymous.
func (i Identity) Ref() *uuid.UUID {
	if i.IsAnonymous() {
		return nil
	}
	id := i.UserID
	return &id
}

// Is reports whether the caller is the identity referenced by ref.
// An absent reference never matches.
func (i Identity) Is(ref *uuid.UUID) bool {
	return ref != nil && !i.IsAnonymous() && *ref == i.UserID
}
