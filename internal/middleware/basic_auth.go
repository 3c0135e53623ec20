package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/common-repository/syssy/config"
	"github.com/common-repository/syssy/internal/utils"
)

// BasicAuthMiddleware implements HTTP Basic auth against locally configured admin users.
// It supports plain-text passwords and bcrypt or argon2id hashes (when PasswordHashed is true).
// With no users configured every request is refused.
func BasicAuthMiddleware(users []config.AdminUser, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLogger(c, logger)

		username, password, ok := c.Request.BasicAuth()
		if !ok {
			log.Debug("missing basic auth header")
			unauthorized(c)
			return
		}

		var matched *config.AdminUser
		for i := range users {
			u := &users[i]
			if strings.EqualFold(u.Username, username) {
				matched = u
				break
			}
		}

		if matched == nil {
			log.Debug("unknown user", zap.String("user", username))
			unauthorized(c)
			return
		}

		if matched.PasswordHashed {
			if err := verifyPassword(matched.Password, password); err != nil {
				log.Debug("password mismatch", zap.String("user", username), zap.Error(err))
				unauthorized(c)
				return
			}
		} else if subtle.ConstantTimeCompare([]byte(matched.Password), []byte(password)) != 1 {
			log.Debug("password mismatch", zap.String("user", username))
			unauthorized(c)
			return
		}

		c.Set(AuthUserKey, matched.Username)
		c.Set(LoggerKey, log.With(zap.String("auth_user", matched.Username)))

		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="SYSSY"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, utils.NewErrorResponse(http.StatusUnauthorized, "Unauthorized"))
}

// verifyPassword verifies a password against a stored hash.
// It supports Argon2id encoded hashes (preferred) and falls back to bcrypt.
func verifyPassword(stored, password string) error {
	if strings.HasPrefix(stored, "$argon2id$") {
		return compareArgon2id(stored, password)
	}

	if strings.HasPrefix(stored, "$2y$") || strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password))
	}

	return errors.New("unsupported password hash format")
}

// compareArgon2id parses an encoded Argon2id hash and compares it to the provided password.
// Expected format: $argon2id$v=19$m=65536,t=3,p=4$<salt_b64>$<hash_b64>
func compareArgon2id(encoded, password string) error {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return fmt.Errorf("invalid argon2id hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return fmt.Errorf("unsupported argon2 version: %d", version)
	}

	var m, t, p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &p); err != nil {
		return err
	}
	if p == 0 || p > 255 {
		return fmt.Errorf("invalid argon2 parallelism: %d", p)
	}

	salt, err := decodeBase64(parts[4])
	if err != nil {
		return err
	}
	hash, err := decodeBase64(parts[5])
	if err != nil {
		return err
	}

	derived := argon2.IDKey([]byte(password), salt, t, m, uint8(p), uint32(len(hash)))
	if subtle.ConstantTimeCompare(derived, hash) == 1 {
		return nil
	}
	return errors.New("password mismatch")
}

func decodeBase64(s string) ([]byte, error) {
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	return base64.StdEncoding.DecodeString(s)
}
