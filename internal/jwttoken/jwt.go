package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "carvest/pkg/domain-errors"
)

// Claims represents the JWT claims for signed-in credentials.
type Claims struct {
	RecordID    string `json:"record_id"`
	SignupToken string `json:"signup_token"`
	Kind        string `json:"kind"`
	PrimaryID   string `json:"primary_id"`
	SecondaryID string `json:"secondary_id,omitempty"`
	Name        string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles credential creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey string, issuer string, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueCredential signs a bearer credential for a provisioned record.
func (s *JWTService) IssueCredential(
	recordID uuid.UUID,
	signupToken string,
	kind string,
	primaryID string,
	secondaryID string,
	name string,
	expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RecordID:    recordID.String(),
		SignupToken: signupToken,
		Kind:        kind,
		PrimaryID:   primaryID,
		SecondaryID: secondaryID,
		Name:        name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "credential has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credential claims")
	}

	return claims, nil
}

// ExtractRecordID validates the credential and returns its record ID.
func (s *JWTService) ExtractRecordID(tokenString string) (uuid.UUID, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.RecordID)
}
