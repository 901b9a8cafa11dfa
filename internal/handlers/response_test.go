package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/planwatch/watch-backend/internal/watcherr"
)

func TestRespondServiceErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"constraint violation", watcherr.ConstraintViolation("bad input"), http.StatusBadRequest, "constraint_violation"},
		{"unsupported format", watcherr.UnsupportedFormat("wrong format"), http.StatusBadRequest, "unsupported_format"},
		{"permission denied", watcherr.PermissionDenied("no access"), http.StatusForbidden, "permission_denied"},
		{"not found", watcherr.NotFound("missing"), http.StatusNotFound, "not_found"},
		{"conflict", watcherr.Conflict("already complete"), http.StatusConflict, "conflict"},
		{"internal", watcherr.Internal(nil, "boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(recorder)
			RespondServiceError(c, tc.err)

			if recorder.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
			var envelope ErrorEnvelope
			if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", envelope.Error.Code, tc.wantCode)
			}
			if envelope.Error.Message == "" {
				t.Error("message is empty")
			}
		})
	}
}
