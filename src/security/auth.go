package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/username/lifetimeline/backend/src/config"
)

// AuthService mints and validates dataset tokens. A dataset token is the only
// credential for reading a dataset back: whoever uploaded the file holds the
// token, there are no user accounts.
type AuthService struct {
	TokenSecret string
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{
		TokenSecret: secret,
	}
}

func (a *AuthService) GenerateDatasetToken(datasetID string) (string, error) {
	if config.Cfg == nil {
		// Should not happen if LoadConfig is called at startup, but as a safeguard:
		return "", errors.New("configuration not loaded, cannot determine token expiry")
	}
	claims := jwt.MapClaims{
		"sub": datasetID,
		"exp": time.Now().Add(config.Cfg.DatasetTokenExpiry).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.TokenSecret))
}

// ValidateDatasetToken returns the dataset ID the token was minted for.
func (a *AuthService) ValidateDatasetToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(a.TokenSecret), nil
	})

	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok {
			return "", errors.New("invalid token: 'sub' claim missing or not a string")
		}
		return sub, nil
	}

	return "", errors.New("invalid token")
}
