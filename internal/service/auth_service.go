package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"priority-delivery/config"
	"priority-delivery/internal/dto"
	"priority-delivery/pkg/authz"
	"priority-delivery/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrInvalidOTP         = errors.New("验证码错误或已过期")
	ErrOTPTokenInvalid    = errors.New("登录会话无效或已过期，请重新登录")
)

// OTPStore 一次性验证码存储（Redis 或内存）
type OTPStore interface {
	SaveOTP(ctx context.Context, sessionID, code string, ttl time.Duration) error
	ConsumeOTP(ctx context.Context, sessionID, code string) (bool, error)
}

// TokenBlacklist 已注销 Token 的 JWT ID 黑名单
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 管理员认证业务接口
//
// 两步登录：账号密码 → 临时 otp_pending Token + 验证码；验证码校验通过后签发 Access Token。
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.Config
	jwtMgr    *jwt.Manager
	otp       OTPStore
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	jwtMgr *jwt.Manager,
	otp OTPStore,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		jwtMgr:    jwtMgr,
		otp:       otp,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 校验用户名（常量时间比较）与密码 (bcrypt)
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.cfg.Auth.AdminUsername)) == 1
	pwErr := bcrypt.CompareHashAndPassword([]byte(s.cfg.Auth.AdminPasswordHash), []byte(req.Password))
	if !userOK || pwErr != nil {
		s.logger.Warn("管理员登录失败", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 2. 签发 otp_pending Token，jti 作为 OTP 会话
	token, sessionID, err := s.jwtMgr.GenerateOTPToken(req.Username, authz.RoleAdmin)
	if err != nil {
		s.logger.Error("生成 OTP Token 失败", zap.Error(err))
		return nil, err
	}

	// 3. 生成并保存验证码
	code, err := generateOTP(s.cfg.Auth.OTPLength)
	if err != nil {
		s.logger.Error("生成验证码失败", zap.Error(err))
		return nil, err
	}
	if err := s.otp.SaveOTP(ctx, sessionID, code, s.cfg.Auth.OTPTTL); err != nil {
		s.logger.Error("保存验证码失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.LoginResponse{
		OTPToken:  token,
		ExpiresIn: int(s.cfg.Auth.OTPTTL.Seconds()),
	}
	if s.cfg.Auth.OTPEcho {
		resp.OTP = code
	}
	return resp, nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(req.OTPToken)
	if err != nil || claims.TokenType != jwt.TokenTypeOTPPending {
		return nil, ErrOTPTokenInvalid
	}

	ok, err := s.otp.ConsumeOTP(ctx, claims.ID, req.Code)
	if err != nil {
		s.logger.Error("校验验证码失败", zap.Error(err))
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(claims.Username, claims.Role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	// 临时 Token 用过即作废
	if s.blacklist != nil && claims.ExpiresAt != nil {
		if err := s.blacklist.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
			s.logger.Warn("作废 OTP Token 失败", zap.Error(err))
		}
	}

	s.logger.Info("管理员登录成功", zap.String("username", claims.Username))

	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Username:    claims.Username,
		Role:        claims.Role,
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.Error(err))
		return err
	}
	return nil
}

// generateOTP 生成 n 位十进制验证码
func generateOTP(n int) (string, error) {
	buf := make([]byte, n)
	for i := range buf {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
