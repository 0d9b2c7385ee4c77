package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrInvalidClaims = errors.New("invalid token claims")
)

// Role represents a caller's access level.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

var roleHierarchy = map[Role]int{
	RoleAdmin:    100,
	RoleOperator: 50,
	RoleViewer:   10,
}

// HasPermission checks if a role has at least the required permission level.
func (r Role) HasPermission(required Role) bool {
	return roleHierarchy[r] >= roleHierarchy[required]
}

// Claims represents JWT token claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey   string
	Issuer      string
	TokenExpiry time.Duration
}

func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:   "", // must be set from environment
		Issuer:      "hookrun",
		TokenExpiry: 1 * time.Hour,
	}
}

// JWTService issues and validates HS256 service tokens for the trigger API.
type JWTService struct {
	config JWTConfig
}

func NewJWTService(config JWTConfig) (*JWTService, error) {
	if config.SecretKey == "" {
		return nil, errors.New("JWT secret key is required")
	}
	return &JWTService{config: config}, nil
}

// GenerateToken creates a new JWT token for a caller.
func (s *JWTService) GenerateToken(userID, username string, role Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenExpiry)),
			NotBefore: jwt.NewNumericDate(now),
		},
		UserID:   userID,
		Username: username,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.SecretKey))
}

// ValidateToken validates a JWT token and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}
