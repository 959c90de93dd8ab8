package handler

import "priority-delivery/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth            *AuthHandler
	DeliveryRequest *DeliveryRequestHandler
	Admin           *AdminHandler
	Export          *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:            NewAuthHandler(svc.Auth),
		DeliveryRequest: NewDeliveryRequestHandler(svc.DeliveryRequest),
		Admin:           NewAdminHandler(svc.DeliveryRequest),
		Export:          NewExportHandler(svc.Export),
	}
}
