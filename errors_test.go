package tokens_test

import (
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	tokens "github.com/goliatone/go-tokens"
	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		err      *goerrors.Error
		category goerrors.Category
		code     int
		textCode string
	}{
		{tokens.ErrMissingCredential, goerrors.CategoryBadInput, goerrors.CodeBadRequest, tokens.TextCodeMissingCredential},
		{tokens.ErrInvalidCredential, goerrors.CategoryAuth, goerrors.CodeForbidden, tokens.TextCodeInvalidCredential},
		{tokens.ErrUnauthenticated, goerrors.CategoryAuth, goerrors.CodeUnauthorized, tokens.TextCodeUnauthenticated},
		{tokens.ErrForbidden, goerrors.CategoryAuthz, goerrors.CodeForbidden, tokens.TextCodeForbidden},
		{tokens.ErrIdentityNotFound, goerrors.CategoryNotFound, goerrors.CodeNotFound, tokens.TextCodeIdentityNotFound},
		{tokens.ErrPersistence, goerrors.CategoryInternal, goerrors.CodeInternal, tokens.TextCodePersistence},
		{tokens.ErrSigning, goerrors.CategoryInternal, goerrors.CodeInternal, tokens.TextCodeSigning},
		{tokens.ErrTokenExpired, goerrors.CategoryAuth, goerrors.CodeUnauthorized, tokens.TextCodeTokenExpired},
		{tokens.ErrTokenMalformed, goerrors.CategoryAuth, goerrors.CodeUnauthorized, tokens.TextCodeTokenMalformed},
		{tokens.ErrMismatchedHashAndPassword, goerrors.CategoryAuth, goerrors.CodeUnauthorized, tokens.TextCodeInvalidCredentials},
	}

	for _, tc := range cases {
		t.Run(tc.textCode, func(t *testing.T) {
			assert.Equal(t, tc.category, tc.err.Category)
			assert.Equal(t, tc.code, tc.err.Code)
			assert.Equal(t, tc.textCode, tc.err.TextCode)
		})
	}
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, tokens.IsTokenExpiredError(tokens.ErrTokenExpired))
	assert.True(t, tokens.IsTokenExpiredError(fmt.Errorf("validate: %w", tokens.ErrTokenExpired)))
	assert.False(t, tokens.IsTokenExpiredError(tokens.ErrTokenMalformed))
	assert.False(t, tokens.IsTokenExpiredError(fmt.Errorf("plain error")))
	assert.False(t, tokens.IsTokenExpiredError(nil))
}

func TestIsInvalidCredentialError(t *testing.T) {
	assert.True(t, tokens.IsInvalidCredentialError(tokens.ErrInvalidCredential))
	assert.True(t, tokens.IsInvalidCredentialError(fmt.Errorf("rotate: %w", tokens.ErrInvalidCredential)))
	assert.False(t, tokens.IsInvalidCredentialError(tokens.ErrMissingCredential))
	assert.False(t, tokens.IsInvalidCredentialError(nil))
}
