package domain

import "errors"

type ErrorKind string

const (
	KindValidation     ErrorKind = "VALIDATION_ERROR"
	KindAuthentication ErrorKind = "UNAUTHORIZED"
	KindAuthorization  ErrorKind = "FORBIDDEN"
	KindNotFound       ErrorKind = "NOT_FOUND"
	KindConflict       ErrorKind = "CONFLICT"
	KindRateLimited    ErrorKind = "RATE_LIMITED"
	KindInternal       ErrorKind = "INTERNAL_ERROR"
)

// Error is the error type surfaced by the store and the mutation service.
// Key identifies the message in the i18n catalogs.
type Error struct {
	Kind    ErrorKind
	Key     string
	Message string
}

func NewError(kind ErrorKind, key, message string) *Error {
	return &Error{Kind: kind, Key: key, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches a kind sentinel (no Key) against any error of the same kind,
// and keyed errors against the same key.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Key == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Key == e.Key
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrAuthentication = &Error{Kind: KindAuthentication, Message: "authentication required"}
	ErrAuthorization  = &Error{Kind: KindAuthorization, Message: "operation not permitted"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrConflict       = &Error{Kind: KindConflict, Message: "conflicting write"}
)

var (
	ErrEmptyContent         = NewError(KindValidation, "COMMENT_CONTENT_EMPTY", "comment content must not be empty")
	ErrContentTooLong       = NewError(KindValidation, "COMMENT_CONTENT_TOO_LONG", "comment content is too long")
	ErrInvalidParent        = NewError(KindValidation, "COMMENT_PARENT_INVALID", "parent comment does not exist on this subject")
	ErrCommentNotFound      = NewError(KindNotFound, "COMMENT_NOT_FOUND", "comment not found")
	ErrNotCommentAuthor     = NewError(KindAuthorization, "COMMENT_NOT_AUTHOR", "only the author can change this comment")
	ErrUnauthenticated      = NewError(KindAuthentication, "AUTH_REQUIRED", "you must be signed in to do that")
	ErrStoreConflict        = NewError(KindConflict, "STORE_CONFLICT", "the comment changed concurrently, try again")
	ErrTooManyWrites        = NewError(KindRateLimited, "RATE_LIMITED", "you are commenting too fast, slow down")
	ErrNotificationNotFound = NewError(KindNotFound, "NOTIFICATION_NOT_FOUND", "notification not found")
	ErrNotificationNotYours = NewError(KindAuthorization, "NOTIFICATION_NOT_OWNER", "notification belongs to another user")
)

// KindOf returns the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
