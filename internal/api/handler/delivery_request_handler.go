package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"priority-delivery/internal/dto"
	"priority-delivery/internal/service"
	pkgerrors "priority-delivery/pkg/errors"
	"priority-delivery/pkg/response"
)

// DeliveryRequestHandler 配送请求 HTTP 处理器（公开接口）
type DeliveryRequestHandler struct {
	drSvc service.DeliveryRequestService
}

// NewDeliveryRequestHandler 创建 DeliveryRequestHandler
func NewDeliveryRequestHandler(drSvc service.DeliveryRequestService) *DeliveryRequestHandler {
	return &DeliveryRequestHandler{drSvc: drSvc}
}

// PlaceOrder 提交配送请求
// POST /api/v1/requests
func (h *DeliveryRequestHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.drSvc.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// GetRequest 查询单个配送请求
// GET /api/v1/requests/:id
func (h *DeliveryRequestHandler) GetRequest(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	result, err := h.drSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// ListRequests 配送请求列表（按创建时间倒序）
// GET /api/v1/requests
func (h *DeliveryRequestHandler) ListRequests(c *gin.Context) {
	var req dto.DeliveryRequestListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.drSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// SubmitFeedback 送达后评分
// POST /api/v1/requests/:id/feedback
func (h *DeliveryRequestHandler) SubmitFeedback(c *gin.Context) {
	id, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.drSvc.SubmitFeedback(c.Request.Context(), id, &req)
	if err != nil {
		handleDeliveryRequestError(c, err)
		return
	}

	response.OK(c, result)
}

// handleDeliveryRequestError 配送请求模块错误映射
func handleDeliveryRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 12001, "配送请求不存在")
	case errors.Is(err, service.ErrLocationNotFound):
		response.BadRequest(c, 12002, err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.BadRequest(c, 12003, err.Error())
	case errors.Is(err, service.ErrFeedbackNotDelivered):
		response.Conflict(c, 12004, "订单尚未送达，暂不能评价")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 12005, "数据已被其他请求修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
