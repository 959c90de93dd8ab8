package service

import (
	"go.uber.org/zap"

	"priority-delivery/config"
	"priority-delivery/internal/repository"
	"priority-delivery/pkg/geo"
	"priority-delivery/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth            AuthService
	DeliveryRequest DeliveryRequestService
	Export          ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	otp OTPStore,
	blacklist TokenBlacklist,
	lookup geo.Lookup,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:            NewAuthService(cfg, jwtMgr, otp, blacklist, logger),
		DeliveryRequest: NewDeliveryRequestService(cfg, repo, lookup, logger),
		Export:          NewExportService(repo, logger),
	}
}
