package util

import (
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"k8s.io/klog/v2"

	"github.com/grad-lab/capstone-backend/dao/model"
	"github.com/grad-lab/capstone-backend/pkg/config"
)

type (
	JWTClaims struct {
		UserID    uint       `json:"ui"`
		Username  string     `json:"un"`
		Role      model.Role `json:"ro"`
		FacultyID uint       `json:"fi"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		UserID    uint       `json:"userID"`
		Username  string     `json:"username"`
		Role      model.Role `json:"role"`
		FacultyID uint       `json:"facultyID"`
	}
)

type TokenManager struct {
	accessSecret    string
	refreshSecret   string
	accessTokenTTL  int
	refreshTokenTTL int
}

var (
	tokenOnce sync.Once
	tokenMgr  *TokenManager
)

func GetTokenMgr() *TokenManager {
	tokenOnce.Do(func() {
		conf := config.GetConfig()
		tokenMgr = &TokenManager{
			accessSecret:    conf.Auth.AccessTokenSecret,
			refreshSecret:   conf.Auth.RefreshTokenSecret,
			accessTokenTTL:  conf.Auth.AccessTokenExpiryHour,
			refreshTokenTTL: conf.Auth.RefreshTokenExpiryHour,
		}
	})
	return tokenMgr
}

func (tm *TokenManager) createToken(msg *JWTMessage, secret string, ttl int) (string, error) {
	expiresAt := time.Now().Add(time.Hour * time.Duration(ttl))

	claims := &JWTClaims{
		UserID:    msg.UserID,
		Username:  msg.Username,
		Role:      msg.Role,
		FacultyID: msg.FacultyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CreateTokens creates a new access token and a new refresh token
func (tm *TokenManager) CreateTokens(msg *JWTMessage) (
	accessToken string, refreshToken string, err error) {
	accessToken, err = tm.createToken(msg, tm.accessSecret, tm.accessTokenTTL)
	if err != nil {
		klog.Error(err)
		return "", "", err
	}
	refreshToken, err = tm.createToken(msg, tm.refreshSecret, tm.refreshTokenTTL)
	if err != nil {
		klog.Error(err)
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// CheckToken verifies an access token from the Authorization header.
func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	return tm.checkToken(requestToken, tm.accessSecret)
}

// CheckRefreshToken verifies a refresh token presented for token exchange.
func (tm *TokenManager) CheckRefreshToken(requestToken string) (JWTMessage, error) {
	return tm.checkToken(requestToken, tm.refreshSecret)
}

func (tm *TokenManager) checkToken(requestToken, secret string) (JWTMessage, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	return JWTMessage{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Role:      claims.Role,
		FacultyID: claims.FacultyID,
	}, err
}
