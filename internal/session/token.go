package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 只保存会话 ID 和邮箱，后端的 token 放在 redis 中而不是 cookie 里
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func SignToken(secret string, state *AppState, expiration time.Time) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: state.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        state.ID,
			Subject:   state.Email,
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, errors.New("token 中缺少会话 ID")
	}
	return claims, nil
}
