package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/autoservice-offers/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
	parser *jwt.Parser
}

func NewParser(secret string) *Parser {
	return &Parser{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Parse verifies an HS256 access token and returns its principal.
func (p *Parser) Parse(raw string) (model.Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.Principal{}, ErrInvalidToken
	}

	var claims Claims
	token, err := p.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return model.Principal{}, ErrInvalidToken
	}

	role := model.Role(strings.ToLower(strings.TrimSpace(claims.Role)))
	switch role {
	case model.RoleAdmin, model.RoleStaff, model.RoleViewer:
	case "":
		role = model.RoleStaff
	default:
		role = model.RoleViewer
	}

	return model.Principal{
		UserID: userID,
		Name:   strings.TrimSpace(claims.Name),
		Email:  strings.TrimSpace(claims.Email),
		Role:   role,
	}, nil
}
