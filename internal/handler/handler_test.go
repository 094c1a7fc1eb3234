package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/backoffice/internal/apperror"
	"github.com/suteetoe/backoffice/internal/i18n"
	"github.com/suteetoe/backoffice/internal/store"
)

func renderError(t *testing.T, err error, lang string) (int, ErrorResponse) {
	t.Helper()
	tr, trErr := i18n.New("en")
	require.NoError(t, trErr)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/1", nil)
	if lang != "" {
		req.Header.Set("Accept-Language", lang)
	}
	rec := httptest.NewRecorder()
	ErrorHandler(tr)(err, echo.New().NewContext(req, rec))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{store.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{apperror.InsufficientStock("Soap", 2, 3), http.StatusUnprocessableEntity, "insufficient_stock"},
		{store.ErrCategoryInUse.With("Count", 2), http.StatusConflict, "category_in_use"},
		{apperror.Unauthorized("invalid_token", "bad token"), http.StatusUnauthorized, "invalid_token"},
		{fmt.Errorf("loading order: %w", store.ErrOrderNotFound), http.StatusNotFound, "order_not_found"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "method_not_allowed"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			status, body := renderError(t, tc.err, "")
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestErrorHandlerTranslates(t *testing.T) {
	err := apperror.InsufficientStock("Soap", 2, 3)

	_, body := renderError(t, err, "")
	assert.Equal(t, "Insufficient stock for Soap: 2 available, 3 requested", body.Message)

	_, body = renderError(t, err, "fr-CA,fr;q=0.8")
	assert.Contains(t, body.Message, "Soap")
	assert.NotEqual(t, "Insufficient stock for Soap: 2 available, 3 requested", body.Message)
}

func TestErrorHandlerHidesInternalDetails(t *testing.T) {
	_, body := renderError(t, errors.New("pq: password authentication failed"), "")
	assert.NotContains(t, body.Message, "pq:")
}

func TestInvalidInputWithoutReason(t *testing.T) {
	_, body := renderError(t, apperror.Validation(apperror.CodeInvalidInput, "category name is required"), "")
	assert.Equal(t, "The request is invalid: category name is required", body.Message)
}

func TestValidatorReportsJSONFields(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&clientRequest{Name: "Alice"})
	require.Error(t, err)
	assert.Equal(t, apperror.CodeInvalidInput, apperror.CodeOf(err))
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "phone", appErr.Params["Reason"])

	assert.NoError(t, v.Validate(&clientRequest{Name: "Alice", Phone: "0600000000"}))
}
