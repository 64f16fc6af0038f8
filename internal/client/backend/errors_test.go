package backend

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/framezapp/framez/internal/common"
)

func TestNewAPIError_Classification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		message string
		want    error
	}{
		{"single row query matched nothing", http.StatusNotAcceptable, "PGRST116", "JSON object requested, multiple (or no) rows returned", common.ErrNotFound},
		{"unique violation by code", http.StatusConflict, "23505", "duplicate key value violates unique constraint", common.ErrDuplicate},
		{"unique violation by message only", http.StatusConflict, "", "duplicate key value violates unique constraint \"profiles_pkey\"", common.ErrDuplicate},
		{"bad credentials", http.StatusBadRequest, "", "Invalid login credentials", common.ErrInvalidCredentials},
		{"unconfirmed email", http.StatusBadRequest, "", "Email not confirmed", common.ErrEmailNotConfirmed},
		{"repeat registration", http.StatusUnprocessableEntity, "", "User already registered", common.ErrAlreadyRegistered},
		{"expired token", http.StatusUnauthorized, "PGRST301", "JWT expired", common.ErrUnauthorized},
		{"throttled", http.StatusTooManyRequests, "", "For security purposes, you can only request this once every 60 seconds", common.ErrRateLimited},
		{"missing route", http.StatusNotFound, "", "not found", common.ErrNotFound},
		{"backend down", http.StatusBadGateway, "", "bad gateway", common.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newAPIError(tt.status, tt.code, tt.message)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNewAPIError_UnclassifiedHasNoSentinel(t *testing.T) {
	err := newAPIError(http.StatusBadRequest, "", "something odd")
	require.NotErrorIs(t, err, common.ErrNotFound)
	require.NotErrorIs(t, err, common.ErrUnavailable)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestAPIError_MessageIncludesStatusAndCode(t *testing.T) {
	err := newAPIError(http.StatusNotAcceptable, "PGRST116", "no rows")
	require.Equal(t, "backend: no rows (406 PGRST116)", err.Error())

	err = newAPIError(http.StatusBadGateway, "", "bad gateway")
	require.Equal(t, "backend: bad gateway (502)", err.Error())
}
