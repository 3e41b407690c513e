// Package apperrors defines the shared error taxonomy for domain services.
// Services return these sentinels (possibly wrapped); callers classify with errors.Is.
package apperrors

import "errors"

var (
	// ErrNotFound is returned when a user, organization, or queue does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when an organization name is already taken.
	ErrDuplicateName = errors.New("organization name already exists")
	// ErrDuplicateEmail is returned when a user email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateUsername is returned when a username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
	// ErrInvalidFormat is returned for malformed input (email, username, role values).
	ErrInvalidFormat = errors.New("invalid format")
	// ErrInvalidCredential is returned when a password or access key comparison fails during authentication.
	ErrInvalidCredential = errors.New("invalid credentials")
	// ErrAlreadyMember is returned when adding a user who already belongs to the organization.
	ErrAlreadyMember = errors.New("user is already a member of this organization")
	// ErrNotMember is returned when operating on a user who does not belong to the organization.
	ErrNotMember = errors.New("user is not a member of this organization")
	// ErrCannotRemoveSuperuser is returned when removing the organization's superuser.
	ErrCannotRemoveSuperuser = errors.New("cannot remove the organization's superuser")
	// ErrCannotChangeSuperuser is returned when changing the organization superuser's role.
	ErrCannotChangeSuperuser = errors.New("cannot change the organization superuser's role")
	// ErrForbidden is returned when the caller lacks permission for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict is returned when a concurrent update wins the race (version check failed).
	ErrConflict = errors.New("concurrent update conflict")
)
