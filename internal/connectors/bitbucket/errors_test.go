package bitbucket

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorPredicates(t *testing.T) {
	notFound := &APIError{StatusCode: 404, Message: "workspace missing"}
	unauthorized := &APIError{StatusCode: 401, Message: "token expired"}
	rateLimited := &RateLimitError{ResetAt: time.Now().Add(time.Hour)}

	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(ErrWorkspaceNotFound))
	assert.False(t, IsNotFound(unauthorized))

	assert.True(t, IsUnauthorized(unauthorized))
	assert.False(t, IsUnauthorized(notFound))
	assert.False(t, IsUnauthorized(errors.New("other")))

	assert.True(t, IsRateLimited(rateLimited))
	assert.False(t, IsRateLimited(notFound))
}

func TestErrorPredicates_Wrapped(t *testing.T) {
	err := fmt.Errorf("search acme: %w", &APIError{StatusCode: 404, Message: "gone"})
	assert.True(t, IsNotFound(err))

	err = fmt.Errorf("search acme: %w", &RateLimitError{ResetAt: time.Now()})
	assert.True(t, IsRateLimited(err))
}
