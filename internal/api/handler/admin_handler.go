package handler

import (
	"github.com/gin-gonic/gin"

	"priority-delivery/internal/dto"
	"priority-delivery/internal/service"
	"priority-delivery/pkg/response"
)

// AdminHandler 管理员队列与改判 HTTP 处理器
type AdminHandler struct {
	drSvc service.DeliveryRequestService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(drSvc service.DeliveryRequestService) *AdminHandler {
	return &AdminHandler{drSvc: drSvc}
}

// PriorityQueue 全部请求按风险分数降序
// GET /api/v1/admin/queue
func (h *AdminHandler) PriorityQueue(c *gin.Context) {
	list, err := h.drSvc.PriorityQueue(c.Request.Context())
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}
	response.OK(c, list)
}

// OverrideQueue 待人工复核（AI 档位 MEDIUM）的请求
// GET /api/v1/admin/queue/medium
func (h *AdminHandler) OverrideQueue(c *gin.Context) {
	list, err := h.drSvc.OverrideQueue(c.Request.Context())
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}
	response.OK(c, list)
}

// Override 改判最终档位
// PUT /api/v1/admin/requests/:id/override
func (h *AdminHandler) Override(c *gin.Context) {
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req dto.OverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.drSvc.Override(c.Request.Context(), id, &req, username)
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// AdvanceStatuses 手动将所有未送达请求推进一步
// POST /api/v1/admin/requests/advance
func (h *AdminHandler) AdvanceStatuses(c *gin.Context) {
	n, err := h.drSvc.AdvanceStatuses(c.Request.Context())
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}
	response.OK(c, dto.AdvanceResponse{Advanced: n})
}
