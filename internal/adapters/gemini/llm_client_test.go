package gemini

import (
	"errors"
	"net/http"
	"testing"

	"github.com/mikey/email-triage/internal/core"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestMapError(t *testing.T) {
	err := mapError("generate content", &googleapi.Error{Code: http.StatusForbidden, Message: "API key not valid"})
	assert.True(t, errors.Is(err, core.ErrUnauthorized))

	err = mapError("generate content", &googleapi.Error{Code: http.StatusTooManyRequests, Message: "quota"})
	var inf *core.InferenceError
	assert.True(t, errors.As(err, &inf))
	assert.Equal(t, http.StatusTooManyRequests, inf.StatusCode)
	assert.False(t, core.IsPermanent(err))

	err = mapError("embed content", errors.New("dial tcp: timeout"))
	assert.Contains(t, err.Error(), "gemini embed content")
}
