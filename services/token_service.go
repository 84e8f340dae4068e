package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rahulhiremath15/serva-mvp/config"
	"github.com/rahulhiremath15/serva-mvp/models"
)

// TokenTTL is the fixed lifetime of an issued identity token
const TokenTTL = 7 * 24 * time.Hour

// Typed verification failures. Rotating the secret invalidates all
// outstanding tokens; that surfaces here as ErrTokenInvalidSignature.
var (
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token is expired")
	ErrTokenNotYetValid      = errors.New("token is not valid yet")
)

// TokenClaims is the identity assertion embedded in an issued token
type TokenClaims struct {
	UserID uint
	Email  string
	Role   string
}

// IssueToken signs a time-limited identity token for a validated user record
func IssueToken(user *models.User) (string, error) {
	cfg := config.GetConfig()
	if cfg == nil || cfg.JWTSecret == "" {
		return "", errors.New("JWT secret is not configured")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   strconv.FormatUint(uint64(user.ID), 10),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(TokenTTL).Unix(),
	})

	return token.SignedString([]byte(cfg.JWTSecret))
}

// VerifyToken parses and cryptographically validates a token, returning the
// embedded identity claims or one of the typed verification failures.
func VerifyToken(tokenString string) (*TokenClaims, error) {
	cfg := config.GetConfig()
	if cfg == nil || cfg.JWTSecret == "" {
		return nil, errors.New("JWT secret is not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	sub, _ := claims["sub"].(string)
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return nil, ErrTokenMalformed
	}

	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return &TokenClaims{
		UserID: uint(id),
		Email:  email,
		Role:   role,
	}, nil
}
