package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func runRequireAdmin(role string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	if role != "" {
		c.Set(ContextKeyRole, role)
	}
	RequireAdmin()(c)
	return w
}

func TestRequireAdminAllowsAdminRoles(t *testing.T) {
	for _, role := range []string{"admin", "super_admin"} {
		if w := runRequireAdmin(role); w.Code != http.StatusOK {
			t.Errorf("role %q: status = %d, want 200", role, w.Code)
		}
	}
}

func TestRequireAdminRejectsNonAdmins(t *testing.T) {
	for _, role := range []string{"user", ""} {
		if w := runRequireAdmin(role); w.Code != http.StatusForbidden {
			t.Errorf("role %q: status = %d, want 403", role, w.Code)
		}
	}
}
