// api/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"net/http"

	"example.com/logistics/services/tracking/config"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// contextKey is a type for context keys
type contextKey string

// ClientIDContextKey holds the authenticated carrier client id.
const ClientIDContextKey contextKey = "client_id"

// CarrierAuth validates the client-id and license-key headers the
// carrier presents on every webhook call.
func CarrierAuth(cfg config.CarrierConfig, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader("client-id")
		licenseKey := c.GetHeader("license-key")

		if clientID == "" || licenseKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized: missing credentials",
			})
			c.Abort()
			return
		}

		idOK := subtle.ConstantTimeCompare([]byte(clientID), []byte(cfg.ClientID)) == 1
		keyOK := subtle.ConstantTimeCompare([]byte(licenseKey), []byte(cfg.LicenseKey)) == 1
		if !idOK || !keyOK {
			log.WithFields(logrus.Fields{
				"client_id": clientID,
				"client_ip": c.ClientIP(),
			}).Warn("Rejected webhook request with invalid credentials")
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Unauthorized: invalid credentials",
			})
			c.Abort()
			return
		}

		c.Set(string(ClientIDContextKey), clientID)

		c.Next()
	}
}
