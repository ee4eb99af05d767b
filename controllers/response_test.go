package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"capstone-nft/apperrors"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func renderError(err error) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	response := restful.NewResponse(w)
	handleServiceError(zap.NewNop(), response, err)
	return w
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"plain error is hidden", errors.New("db exploded"), http.StatusInternalServerError, `{"message":"An internal error occurred"}`},
		{"internal error is hidden", apperrors.NewInternal("Failed to follow user", errors.New("db exploded")), http.StatusInternalServerError, `{"message":"An internal error occurred"}`},
		{"field errors", apperrors.NewFieldValidation(map[string][]string{"email": {"This field is required."}}), http.StatusBadRequest, `{"email":["This field is required."]}`},
		{"authentication", apperrors.NewAuthentication("Unable to log in with provided credentials."), http.StatusBadRequest, `{"non_field_errors":["Unable to log in with provided credentials."]}`},
		{"forbidden", apperrors.NewForbidden("nope"), http.StatusForbidden, `{"status":403,"msg":"nope"}`},
		{"not found", apperrors.NewNotFound("User not found"), http.StatusNotFound, `{"message":"User not found"}`},
		{"conflict", apperrors.NewConflict("Email or nickname already exists"), http.StatusConflict, `{"message":"Email or nickname already exists"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := renderError(tt.err)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}
