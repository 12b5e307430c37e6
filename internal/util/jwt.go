package util

import (
	"time"

	"studybuddy_backend/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	ParentID string `json:"parent_id"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

func GenerateJWT(parent *model.Parent, secret string, expiration time.Duration) (string, error) {
	expirationTime := time.Now().Add(expiration)

	claims := &Claims{
		ParentID: parent.ID,
		Email:    parent.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, err
}

func GetParentFromContext(c *gin.Context) *Claims {
	parent, exists := c.Get("parent")
	if !exists {
		return nil
	}
	claims, ok := parent.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
