package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/auth"
	"github.com/razzbabu4/diagnostic-center-server/internal/platform/payments"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: bad hex", domain.ErrInvalidID), http.StatusBadRequest, CodeInvalidInput},
		{fmt.Errorf("%w: name is required", domain.ErrValidation), http.StatusBadRequest, CodeInvalidInput},
		{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{domain.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{domain.ErrNoSlotsAvailable, http.StatusConflict, CodeNoSlots},
		{domain.ErrConflict, http.StatusConflict, CodeConflict},
		{payments.ErrUnavailable, http.StatusServiceUnavailable, CodeUnavailable},
		{auth.ErrExpiredToken, http.StatusUnauthorized, CodeExpiredToken},
		{auth.ErrMissingToken, http.StatusUnauthorized, CodeUnauthorized},
		{fmt.Errorf("mongo: connection reset"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

		assert.Equal(t, tt.status, rec.Code, tt.err.Error())
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tt.code, body.Code, tt.err.Error())
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("dial tcp 10.0.0.3:27017"))
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
}
