package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ABH36/Machine-test/auth"
	"github.com/ABH36/Machine-test/memstore"
	"github.com/ABH36/Machine-test/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func setupAuthRouter(t *testing.T) (*gin.Engine, *auth.TokenIssuer, models.User) {
	gin.SetMode(gin.TestMode)
	store := memstore.New()
	user := models.User{Name: "Vee", Email: "vee@example.com", Role: models.RoleVendor}
	if err := store.CreateUser(context.Background(), &user); err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	router := gin.New()
	router.Use(LoggerMiddleware(zaptest.NewLogger(t)))
	router.Use(MetricsMiddleware())
	router.Use(AuthMiddleware(tokens, store))
	router.GET("/whoami", func(c *gin.Context) {
		p := PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "role": p.Role})
	})
	return router, tokens, user
}

func TestAuthMiddleware(t *testing.T) {
	router, tokens, user := setupAuthRouter(t)
	valid, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	orphan, _ := tokens.Issue(models.User{ID: 999, Role: models.RoleUser})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"anonymous", "", http.StatusOK, `"user_id":0`},
		{"valid token", "Bearer " + valid, http.StatusOK, `"role":"vendor"`},
		{"malformed header", "Token " + valid, http.StatusUnauthorized, `"kind":"unauthorized"`},
		{"bad signature", "Bearer " + valid + "x", http.StatusUnauthorized, `"kind":"unauthorized"`},
		{"deleted user", "Bearer " + orphan, http.StatusUnauthorized, `user not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("Expected body to contain %s, got %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestPrometheusHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RecordOrderPlaced()
	RecordReservationRejected("conflict")

	router := gin.New()
	router.GET("/metrics", PrometheusHandler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	for _, name := range []string{"orders_placed_total", `stock_reservations_rejected_total{reason="conflict"}`} {
		if !strings.Contains(w.Body.String(), name) {
			t.Errorf("Expected metrics output to contain %s", name)
		}
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("Expected empty trace id, got %q", id)
	}
}
