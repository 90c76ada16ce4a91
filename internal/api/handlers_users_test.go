package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"checkerq-admin-api/internal/database"
)

func writeUpdateError(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	s := &Server{logger: zerolog.Nop()}
	s.writeUserUpdateError(c, err, "failed to update user")
	return w
}

func TestUserUpdateMissReturns404(t *testing.T) {
	err := fmt.Errorf("user abc: %w", database.ErrNotFound)
	if w := writeUpdateError(err); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for a missed row", w.Code)
	}
}

func TestUserUpdateInfrastructureErrorReturns500(t *testing.T) {
	err := errors.New("connection reset by peer")
	if w := writeUpdateError(err); w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 for an infrastructure failure", w.Code)
	}
}
