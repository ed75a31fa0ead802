package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alttch/roboger/internal/constants"
)

// MasterKeyMiddleware guards the administrative API with a shared key
// carried in the X-Auth-Key header.
func MasterKeyMiddleware(masterKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(constants.AuthKeyHeader)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(masterKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "invalid or missing auth key",
				"error_code": "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

// IPAllowListMiddleware rejects administrative calls from addresses outside
// the configured CIDR ranges. An empty list allows everything.
func IPAllowListMiddleware(cidrs []string) gin.HandlerFunc {
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		// Invalid entries are caught by config validation at startup.
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, n)
		}
	}

	return func(c *gin.Context) {
		if len(nets) == 0 {
			c.Next()
			return
		}

		ip := net.ParseIP(c.ClientIP())
		if ip != nil {
			for _, n := range nets {
				if n.Contains(ip) {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":      "client address not allowed",
			"error_code": "FORBIDDEN",
		})
	}
}
