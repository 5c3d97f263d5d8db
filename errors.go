package tokens

import "github.com/goliatone/go-errors"

// Text codes surfaced to API clients alongside the HTTP status.
const (
	TextCodeMissingCredential  = "MISSING_CREDENTIAL"
	TextCodeInvalidCredential  = "INVALID_CREDENTIAL"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeForbidden          = "FORBIDDEN"
	TextCodeIdentityNotFound   = "IDENTITY_NOT_FOUND"
	TextCodePersistence        = "PERSISTENCE_FAILURE"
	TextCodeSigning            = "SIGNING_FAILURE"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// ErrMissingCredential is returned when a rotation is attempted without a
// refresh credential.
var ErrMissingCredential = errors.New("refresh credential is missing", errors.CategoryBadInput).
	WithTextCode(TextCodeMissingCredential).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredential covers every way a refresh credential can be bad:
// wrong class, unknown subject, revoked, already rotated. Callers get no
// finer detail than this.
var ErrInvalidCredential = errors.New("refresh credential is invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(errors.CodeForbidden)

// ErrUnauthenticated is the single error the authorization gate emits,
// whatever the underlying cause.
var ErrUnauthenticated = errors.New("you are not authenticated for this action", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrForbidden is returned when an authenticated identity lacks the
// required role.
var ErrForbidden = errors.New("you do not have permission for this action", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// ErrIdentityNotFound is returned when a lookup targets an identity that
// does not exist.
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(errors.CodeNotFound)

// ErrPersistence wraps store failures. The original cause never leaves the
// process boundary.
var ErrPersistence = errors.New("credential store operation failed", errors.CategoryInternal).
	WithTextCode(TextCodePersistence).
	WithCode(errors.CodeInternal)

// ErrSigning wraps signing failures.
var ErrSigning = errors.New("failed to sign credential", errors.CategoryInternal).
	WithTextCode(TextCodeSigning).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned when validating a token past its expiry.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token cannot be parsed or fails
// signature verification.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned for login failures. Unknown email
// and wrong password both map here so callers cannot probe for accounts.
var ErrMismatchedHashAndPassword = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// IsTokenExpiredError reports whether err carries the expired token code.
func IsTokenExpiredError(err error) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeTokenExpired
	}
	return false
}

// IsInvalidCredentialError reports whether err carries the invalid refresh
// credential code.
func IsInvalidCredentialError(err error) bool {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode == TextCodeInvalidCredential
	}
	return false
}
