package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Issuer is the JWT issuer claim for backoffice tokens.
	Issuer = "stride"
	// AccessTokenDuration is the lifetime of a backoffice session.
	AccessTokenDuration = 24 * time.Hour

	claimsContextKey = "auth/claims"
)

// Claims are the JWT claims carried by a backoffice access token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs a backoffice token for an admin email.
func GenerateAccessToken(email, secret string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// ValidateAccessToken parses and verifies a backoffice token.
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}
	if !token.Valid {
		return nil, errors.New("invalid access token")
	}
	return claims, nil
}

// HashPassword hashes an admin password for storage or comparison.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword reports whether the plaintext matches. The stored
// value may be a bcrypt hash or, in dev setups, the plaintext itself.
func VerifyPassword(stored, password string) bool {
	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored != "" && stored == password
}

// Middleware returns an echo middleware enforcing a valid Bearer token
// on every request of the group.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
			}

			claims, err := ValidateAccessToken(tokenString, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// GetClaims returns the verified claims of the current request, or nil.
func GetClaims(c echo.Context) *Claims {
	claims, _ := c.Get(claimsContextKey).(*Claims)
	return claims
}
