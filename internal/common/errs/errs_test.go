package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad amount"), http.StatusBadRequest},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("taken"), http.StatusConflict},
		{"configuration", Configuration("broken step"), http.StatusUnprocessableEntity},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("inner")), http.StatusConflict},
		{"unknown", errors.New("driver exploded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Policy not found.", Message(NotFound("Policy not found."), "internal"))
	assert.Equal(t, "internal", Message(errors.New("pq: connection refused"), "internal"))
	assert.True(t, errors.Is(Forbidden("x"), ErrForbidden))
	assert.False(t, errors.Is(Forbidden("x"), ErrNotFound))
}
