package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentcore/contentcore/internal/shared"
)

func TestRespondErrorMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail bool
	}{
		{shared.NewNotFound("Role", 5), http.StatusNotFound, true},
		{shared.NewInvalidArgument("offset", "must not be negative"), http.StatusBadRequest, true},
		{shared.ErrUnauthorized, http.StatusUnauthorized, true},
		{shared.LogicError("more than one user with login %q", "admin"), http.StatusConflict, true},
		{&shared.DatabaseError{Op: "role.LoadRole", Err: errors.New("conn reset")}, http.StatusInternalServerError, false},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		assert.Equal(t, tc.status, rr.Code, tc.err.Error())
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

		var p ProblemDetail
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
		assert.Equal(t, tc.status, p.Status)
		if tc.detail {
			assert.Equal(t, tc.err.Error(), p.Detail)
		} else {
			assert.Empty(t, p.Detail)
		}
	}
}
