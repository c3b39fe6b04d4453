package jwt

import (
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess       = "access"
	TokenTypeSSE          = "sse"
	TokenTypeBatchConfirm = "batch_confirm"
)

// batchConfirmTTL bounds how long a confirmed preview stays generatable.
const batchConfirmTTL = 15 * time.Minute

// BatchConfirmation is what a manager signed off on when confirming a payroll
// batch preview. Digest fingerprints the previewed employees and figures.
type BatchConfirmation struct {
	ShopID   string
	UserID   string
	PeriodID string
	Digest   string
}

type Service interface {
	GenerateAccessToken(userID, shopID, role string) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	GenerateBatchConfirmationToken(c BatchConfirmation) (token string, expiresAt int64, err error)
	ValidateBatchConfirmationToken(tokenString string) (BatchConfirmation, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken issues a token carrying the shop scope every payroll
// endpoint reads.
func (j *JWTService) GenerateAccessToken(userID, shopID, role string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"shop_id": shopID,
		"role":    role,
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(userID string) (token string, expiresIn int, err error) {
	expiresIn = 300
	expiresAt := time.Now().Add(5 * time.Minute).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    TokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, expiresIn, nil
}

// ValidateSSEToken validates an SSE token and returns the user ID
func (j *JWTService) ValidateSSEToken(tokenString string) (userID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return "", jwt.ErrInvalidJWT()
	}

	userIDVal, ok := token.Get("user_id")
	if !ok {
		return "", jwt.ErrInvalidJWT()
	}

	userID, ok = userIDVal.(string)
	if !ok || userID == "" {
		return "", jwt.ErrInvalidJWT()
	}

	return userID, nil
}

// GenerateBatchConfirmationToken signs c for a short window.
func (j *JWTService) GenerateBatchConfirmationToken(c BatchConfirmation) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(batchConfirmTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":   c.UserID,
		"shop_id":   c.ShopID,
		"period_id": c.PeriodID,
		"digest":    c.Digest,
		"type":      TokenTypeBatchConfirm,
		"exp":       expiresAt,
	})
	if err != nil {
		return "", 0, err
	}
	return tokenString, expiresAt, nil
}

// ValidateBatchConfirmationToken checks signature, expiry and type, then
// returns the signed confirmation.
func (j *JWTService) ValidateBatchConfirmationToken(tokenString string) (BatchConfirmation, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return BatchConfirmation{}, err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeBatchConfirm {
		return BatchConfirmation{}, jwt.ErrInvalidJWT()
	}

	var c BatchConfirmation
	for claim, dst := range map[string]*string{
		"shop_id":   &c.ShopID,
		"user_id":   &c.UserID,
		"period_id": &c.PeriodID,
		"digest":    &c.Digest,
	} {
		v, ok := token.Get(claim)
		if !ok {
			return BatchConfirmation{}, jwt.ErrInvalidJWT()
		}
		str, ok := v.(string)
		if !ok || str == "" {
			return BatchConfirmation{}, jwt.ErrInvalidJWT()
		}
		*dst = str
	}
	return c, nil
}
