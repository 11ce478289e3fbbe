package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// ActorKey is the key used to store the authenticated actor in the context
const ActorKey = "actor"

var errMissingSubject = errors.New("token has no subject")

// Claims are the bearer token claims the back office relies on. Tokens are
// issued by the identity provider, only verified here.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Auth verifies the HS256 bearer token and stores the actor of the request.
// Requests without a valid token are rejected with 401.
func Auth(cfg *config.AuthConfig, logger *slog.Logger) gin.HandlerFunc {
	parser := jwt.NewParser(parserOptions(cfg)...)
	secret := []byte(cfg.JWTSecret)

	return func(c *gin.Context) {
		tokenStr := bearerToken(c.GetHeader("Authorization"))
		if tokenStr == "" {
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token")
			return
		}

		actor, err := parseActor(parser, secret, tokenStr)
		if err != nil {
			logger.Warn("Rejected bearer token",
				"path", c.Request.URL.Path,
				"correlation_id", GetCorrelationID(c),
				"error", err,
			)
			abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or expired token")
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// GetActor returns the authenticated actor of the request
func GetActor(c *gin.Context) (shared.Actor, bool) {
	if v, exists := c.Get(ActorKey); exists {
		if actor, ok := v.(shared.Actor); ok && !actor.IsZero() {
			return actor, true
		}
	}
	return shared.Actor{}, false
}

func parserOptions(cfg *config.AuthConfig) []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	return opts
}

func parseActor(parser *jwt.Parser, secret []byte, tokenStr string) (shared.Actor, error) {
	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return shared.Actor{}, err
	}
	if !token.Valid {
		return shared.Actor{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return shared.Actor{}, errMissingSubject
	}
	return shared.Actor{ID: claims.Subject, Email: claims.Email}, nil
}

func bearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// abortWithError writes the API error envelope and stops the chain
func abortWithError(c *gin.Context, status int, code, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}
