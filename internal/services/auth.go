package services

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kevinbrinsly07/projectmanager/internal/config"
	"github.com/kevinbrinsly07/projectmanager/internal/models"
)

// AuthService issues and verifies credentials. Access tokens carry only the
// user id; the role is re-resolved from the users table on every verify, so
// role changes take effect without re-login. Refresh tokens are persisted by
// jti and rotated on use.
type AuthService interface {
	LoginUser(db *gorm.DB, email, password string) (*models.User, error)
	GenerateToken(db *gorm.DB, userID uuid.UUID) (string, string, error)
	VerifyAccessToken(db *gorm.DB, tokenString string) (*models.User, error)
	RefreshToken(db *gorm.DB, refreshToken string) (string, string, int64, error)
	RevokeToken(db *gorm.DB, refreshToken string) error
}

type AuthServiceImpl struct {
	cfg config.JWTConfig
}

func NewAuthService(cfg config.JWTConfig) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg}
}

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) LoginUser(db *gorm.DB, email, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !VerifyPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *AuthServiceImpl) GenerateToken(db *gorm.DB, userID uuid.UUID) (string, string, error) {
	now := time.Now()

	accessTokenClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.AccessTokenTTL).Unix(),
		"iss":     s.cfg.Issuer,
		"aud":     s.cfg.Audience,
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate jti: %w", err)
	}

	refreshTokenExpiry := now.Add(s.cfg.RefreshTokenTTL)
	refreshTokenClaims := jwt.MapClaims{
		"user_id": userID.String(),
		"type":    "refresh",
		"jti":     jti.String(),
		"iat":     now.Unix(),
		"exp":     refreshTokenExpiry.Unix(),
		"iss":     s.cfg.Issuer,
		"aud":     s.cfg.Audience,
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshTokenClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	tokenRecord := models.Token{
		UserID:       userID,
		JTI:          jti,
		RefreshToken: refreshTokenString,
		ExpiresAt:    refreshTokenExpiry,
	}

	if err := db.Create(&tokenRecord).Error; err != nil {
		return "", "", fmt.Errorf("failed to create token record: %w", err)
	}

	return accessTokenString, refreshTokenString, nil
}

// VerifyAccessToken validates the token signature and expiry, then resolves
// the referenced user. A token for a deleted or deactivated user is invalid.
func (s *AuthServiceImpl) VerifyAccessToken(db *gorm.DB, tokenString string) (*models.User, error) {
	claims, err := s.parseClaims(tokenString)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if tokenType, ok := claims["type"].(string); ok && tokenType == "refresh" {
		return nil, ErrInvalidCredentials
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := db.Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthServiceImpl) RefreshToken(db *gorm.DB, refreshToken string) (string, string, int64, error) {
	claims, err := s.parseClaims(refreshToken)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid refresh token: %w", err)
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "refresh" {
		return "", "", 0, fmt.Errorf("invalid token type")
	}

	jtiStr, ok := claims["jti"].(string)
	if !ok {
		return "", "", 0, fmt.Errorf("missing jti in token")
	}

	jti, err := uuid.FromString(jtiStr)
	if err != nil {
		return "", "", 0, fmt.Errorf("invalid jti format: %w", err)
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return "", "", 0, err
	}

	var dbToken models.Token
	err = db.Where("jti = ? AND user_id = ? AND expires_at > ?", jti, userID, time.Now()).First(&dbToken).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", "", 0, fmt.Errorf("refresh token not found or expired")
		}
		return "", "", 0, fmt.Errorf("database error: %w", err)
	}

	accessToken, newRefreshToken, err := s.GenerateToken(db, userID)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate new tokens: %w", err)
	}

	if err := db.Delete(&dbToken).Error; err != nil {
		return "", "", 0, fmt.Errorf("failed to delete old token: %w", err)
	}

	expiresIn := int64(s.cfg.AccessTokenTTL.Seconds())
	return accessToken, newRefreshToken, expiresIn, nil
}

func (s *AuthServiceImpl) RevokeToken(db *gorm.DB, refreshToken string) error {
	claims, err := s.parseClaims(refreshToken)
	if err != nil {
		return fmt.Errorf("invalid refresh token: %w", err)
	}

	jtiStr, ok := claims["jti"].(string)
	if !ok {
		return fmt.Errorf("missing jti in token")
	}

	jti, err := uuid.FromString(jtiStr)
	if err != nil {
		return fmt.Errorf("invalid jti format: %w", err)
	}

	return db.Where("jti = ?", jti).Delete(&models.Token{}).Error
}

func (s *AuthServiceImpl) parseClaims(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func userIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing user_id in token")
	}
	userID, err := uuid.FromString(userIDStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id format: %w", err)
	}
	return userID, nil
}
