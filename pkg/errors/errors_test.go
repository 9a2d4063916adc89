package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, NotFound("Room", nil).Status)
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad", nil).Status)
	assert.Equal(t, http.StatusForbidden, Forbidden("no", nil).Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("who", nil).Status)
	assert.Equal(t, http.StatusTooManyRequests, TooManyRequests("slow down").Status)
	assert.Equal(t, http.StatusInternalServerError, Internal("boom", nil).Status)
}

func TestIsMatchesWrappedErrors(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound("Room", nil))

	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeForbidden))
	assert.False(t, Is(fmt.Errorf("plain"), CodeNotFound))
	assert.False(t, Is(nil, CodeNotFound))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := Internal("store write failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), CodeInternal)
}
