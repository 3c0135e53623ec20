package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/common-repository/syssy/internal/constants"
	"github.com/common-repository/syssy/internal/utils"
)

// CSRFTokenKey is the gin context key for the form token of the current admin user
const CSRFTokenKey = "csrf_token"

// CSRFMiddleware protects the admin forms against cross-site submissions.
// Every request gets a form token bound to the authenticated user. Requests that change
// state must come from this host (Origin, or Referer when Origin is absent) and echo the
// token in the constants.AdminFormNonce field. Must run after BasicAuthMiddleware.
func CSRFMiddleware(key []byte, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLogger(c, logger)

		user := c.GetString(AuthUserKey)
		expected := csrfToken(key, user)
		c.Set(CSRFTokenKey, expected)

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if !sameOrigin(c.Request) {
			log.Warn("cross-origin admin request refused",
				zap.String("origin", c.GetHeader("Origin")),
				zap.String("referer", c.GetHeader("Referer")))
			forbidden(c)
			return
		}

		got := c.PostForm(constants.AdminFormNonce)
		if user == "" || got == "" || !hmac.Equal([]byte(got), []byte(expected)) {
			log.Warn("admin request with a missing or stale form token", zap.String("user", user))
			forbidden(c)
			return
		}

		c.Next()
	}
}

// GetCSRFToken returns the form token set by CSRFMiddleware, or "" outside the admin group
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(CSRFTokenKey)
}

func csrfToken(key []byte, user string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strings.ToLower(user)))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// sameOrigin reports whether the browser-supplied origin of r names the host r was sent to.
// Requests without Origin and Referer are left to the form token check.
func sameOrigin(r *http.Request) bool {
	source := r.Header.Get("Origin")
	if source == "" {
		source = r.Header.Get("Referer")
	}
	if source == "" {
		return true
	}
	u, err := url.Parse(source)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func forbidden(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, utils.NewErrorResponse(http.StatusForbidden, "Forbidden"))
}
