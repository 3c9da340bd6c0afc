package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation("QueryTooShort", "Invalid search query", ""), http.StatusBadRequest},
		{Conflict("DuplicateRequest", "Request already exists", ""), http.StatusBadRequest},
		{Auth("MissingCredential", "No token", ""), http.StatusUnauthorized},
		{NotFound("NotFound", "Request not found", ""), http.StatusNotFound},
		{Store("db down", errors.New("dial tcp")), http.StatusInternalServerError},
		{Internal("boom", nil), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.err.Status(), c.err.Code)
	}
}

func TestWithKeepsIdentity(t *testing.T) {
	sentinel := Conflict("DuplicateRequest", "Request already exists", "")
	wrapped := fmt.Errorf("service: %w", sentinel.With(errors.New("unique violation")))

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.Equal(t, http.StatusBadRequest, From(wrapped).Status())
	assert.False(t, errors.Is(wrapped, Conflict("SelfRequest", "Invalid request", "")))
}

func TestFromUnknownError(t *testing.T) {
	e := From(errors.New("kaboom"))
	assert.Equal(t, KindInternal, e.Kind)
	assert.Equal(t, "Something went wrong", e.Body().Details)
	assert.Nil(t, From(nil))
}

func TestStoreDetails(t *testing.T) {
	e := Store("Error fetching friends list", errors.New("connection refused"))
	assert.Equal(t, Body{Message: "Error fetching friends list", Details: "connection refused"}, e.Body())
}
