package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"example.com/logistics/services/tracking/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	cfg := config.CarrierConfig{ClientID: "carrier-1", LicenseKey: "secret-key"}

	r := gin.New()
	r.Use(CarrierAuth(cfg, log))
	r.POST("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"client_id": c.GetString(string(ClientIDContextKey))})
	})
	return r
}

func TestCarrierAuth(t *testing.T) {
	cases := []struct {
		name       string
		clientID   string
		licenseKey string
		wantStatus int
	}{
		{"valid credentials", "carrier-1", "secret-key", http.StatusOK},
		{"missing both headers", "", "", http.StatusUnauthorized},
		{"missing license key", "carrier-1", "", http.StatusUnauthorized},
		{"missing client id", "", "secret-key", http.StatusUnauthorized},
		{"wrong client id", "carrier-2", "secret-key", http.StatusUnauthorized},
		{"wrong license key", "carrier-1", "other-key", http.StatusUnauthorized},
	}

	router := newAuthRouter(t)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/status", nil)
			if tc.clientID != "" {
				req.Header.Set("client-id", tc.clientID)
			}
			if tc.licenseKey != "" {
				req.Header.Set("license-key", tc.licenseKey)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				require.Contains(t, w.Body.String(), "carrier-1")
			} else {
				require.Contains(t, w.Body.String(), "Unauthorized")
			}
		})
	}
}
