package room

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims identify a connected user. Real user management lives outside
// this service; the token only binds a stable user id to a username.
type Claims struct {
	UserId   string
	Username string
}

type IssueTokenParams struct {
	Username string
}

type IssueTokenResponse struct {
	Token    string
	UserId   string
	Username string
}

func (s service) IssueToken(ctx context.Context, params *IssueTokenParams) (IssueTokenResponse, error) {
	userId := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userId,
		"username": params.Username,
	})

	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return IssueTokenResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return IssueTokenResponse{
		Token:    signed,
		UserId:   userId,
		Username: params.Username,
	}, nil
}

func (s service) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	userId, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	if userId == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserId:   userId,
		Username: username,
	}, nil
}
