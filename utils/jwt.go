package utils

import (
	"errors"
	"time"

	"bookly/config"
	"bookly/models"

	"github.com/golang-jwt/jwt"
)

const fallbackSecret = "bookly-dev-secret"

func secretKey() []byte {
	if config.AppConfig.JWTSecret == "" {
		return []byte(fallbackSecret)
	}
	return []byte(config.AppConfig.JWTSecret)
}

// GenerateToken creates a signed JWT for an identity. Tokens are issued by
// an external auth service in production; this is used by tooling and tests.
func GenerateToken(identity models.Identity, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  identity.ID,
		"role": string(identity.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(duration).Unix(),
	}
	if identity.CompanyID != "" {
		claims["company"] = identity.CompanyID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
}

// IdentityFromToken extracts the actor identity from a valid token.
func IdentityFromToken(tokenString string) (models.Identity, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return models.Identity{}, errors.New("token does not contain a valid 'sub' claim")
	}
	role, _ := claims["role"].(string)
	identity := models.Identity{ID: sub, Role: models.Role(role)}
	if !identity.Role.Valid() {
		return models.Identity{}, errors.New("token does not contain a valid 'role' claim")
	}
	if identity.Role == models.RoleCompany {
		identity.CompanyID, _ = claims["company"].(string)
		if identity.CompanyID == "" {
			return models.Identity{}, errors.New("company token does not contain a 'company' claim")
		}
	}
	return identity, nil
}
