package resputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/grad-lab/capstone-backend/pkg/apperror"
)

func perform(t *testing.T, err error) (int, Response[any]) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	WrapServiceError(c, err)

	var resp Response[any]
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestWrapServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   ErrorCode
	}{
		{"validation", apperror.Validation("bad input"), http.StatusBadRequest, InvalidRequest},
		{"forbidden", apperror.Forbidden("no"), http.StatusForbidden, PermissionDenied},
		{"not found", apperror.NotFound("missing"), http.StatusNotFound, NotFound},
		{"conflict", apperror.Conflict("version moved"), http.StatusConflict, Conflict},
		{"invalid transition", apperror.InvalidTransition("no edge"), http.StatusUnprocessableEntity, InvalidTransition},
		{"invalid state", apperror.InvalidState("finalized"), http.StatusUnprocessableEntity, InvalidState},
		{"unknown", assert.AnError, http.StatusInternalServerError, NotSpecified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := perform(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Msg)
		})
	}
}
