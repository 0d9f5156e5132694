package mockbackend

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries what the platform puts in its tokens: the user id and the
// wire role.
type Claims struct {
	UserID int64
	Role   string
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (t *tokenIssuer) issue(userID int64, role string) (string, error) {
	now := t.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(t.ttl).Unix(),
	})
	return token.SignedString(t.secret)
}

func (t *tokenIssuer) parse(raw string) (Claims, error) {
	parsed, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return Claims{}, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token claims")
	}

	// JSON numbers decode as float64.
	id, _ := claims["userId"].(float64)
	role, _ := claims["role"].(string)
	if id <= 0 || role == "" {
		return Claims{}, errors.New("token missing userId or role")
	}

	return Claims{UserID: int64(id), Role: role}, nil
}
