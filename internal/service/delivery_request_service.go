package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"priority-delivery/config"
	"priority-delivery/internal/dto"
	"priority-delivery/internal/model"
	"priority-delivery/internal/repository"
	pkgerrors "priority-delivery/pkg/errors"
	"priority-delivery/pkg/geo"
	"priority-delivery/pkg/priority"
)

// ── 配送请求模块业务错误 ──

var (
	ErrRequestNotFound      = errors.New("配送请求不存在")
	ErrLocationNotFound     = errors.New("地点未登记")
	ErrFeedbackNotDelivered = errors.New("订单尚未送达，暂不能评价")
)

const (
	minRating = 1
	maxRating = 5
)

// DeliveryRequestService 配送请求生命周期业务接口
//
// 状态只能按 Order Placed → Picked Up → In Transit → Delivered 前进；
// 风险分数与 AI 档位在创建时计算后不再改变，FinalPriority 只能通过 Override 修改。
type DeliveryRequestService interface {
	PlaceOrder(ctx context.Context, req *dto.PlaceOrderRequest) (*dto.DeliveryRequestResponse, error)
	GetByID(ctx context.Context, id uint) (*dto.DeliveryRequestResponse, error)
	List(ctx context.Context, req *dto.DeliveryRequestListRequest) ([]dto.DeliveryRequestResponse, int64, error)
	// PriorityQueue 全部请求按风险分数降序
	PriorityQueue(ctx context.Context) ([]dto.DeliveryRequestResponse, error)
	// OverrideQueue AI 档位为 MEDIUM、需要人工复核的请求
	OverrideQueue(ctx context.Context) ([]dto.DeliveryRequestResponse, error)
	AdvanceStatuses(ctx context.Context) (int64, error)
	Override(ctx context.Context, id uint, req *dto.OverrideRequest, adminName string) (*dto.DeliveryRequestResponse, error)
	SubmitFeedback(ctx context.Context, id uint, req *dto.FeedbackRequest) (*dto.DeliveryRequestResponse, error)
}

type deliveryRequestService struct {
	cfg    *config.Config
	repo   *repository.Repository
	lookup geo.Lookup
	logger *zap.Logger
}

// NewDeliveryRequestService 创建 DeliveryRequestService 实例
func NewDeliveryRequestService(cfg *config.Config, repo *repository.Repository, lookup geo.Lookup, logger *zap.Logger) DeliveryRequestService {
	return &deliveryRequestService{cfg: cfg, repo: repo, lookup: lookup, logger: logger}
}

// ────────────────────── PlaceOrder ──────────────────────

func (s *deliveryRequestService) PlaceOrder(ctx context.Context, req *dto.PlaceOrderRequest) (*dto.DeliveryRequestResponse, error) {
	category, vulnerability, resources, err := validatePlaceOrder(req)
	if err != nil {
		return nil, err
	}

	// 1. 解析寄/收件坐标
	from, err := s.resolve(ctx, req.SenderLocation, s.cfg.Geo.DefaultSender)
	if err != nil {
		return nil, err
	}
	to, err := s.resolve(ctx, req.ReceiverLocation, s.cfg.Geo.DefaultReceiver)
	if err != nil {
		return nil, err
	}

	// 2. 距离 → 急迫度/影响度 → 风险分数 → 档位
	distance := geo.Between(from, to)
	urgency, impact := priority.ComputeUrgencyImpact(category, req.AcceptableDelay, distance, req.PeopleAffected, vulnerability)
	score := priority.Score(priority.Input{
		Urgency:            urgency,
		Impact:             impact,
		Category:           category,
		DistanceKm:         distance,
		People:             req.PeopleAffected,
		Vulnerability:      vulnerability,
		AvailableResources: resources,
		FeedbackMultiplier: s.cfg.Priority.FeedbackMultiplier,
	})
	tier, decision := priority.Classify(score)

	record := &model.DeliveryRequest{
		Sender:             req.Sender,
		Receiver:           req.Receiver,
		Category:           string(category),
		PeopleAffected:     req.PeopleAffected,
		Vulnerability:      string(vulnerability),
		AcceptableDelay:    req.AcceptableDelay,
		AvailableResources: resources,
		SenderLat:          from.Lat,
		SenderLon:          from.Lon,
		ReceiverLat:        to.Lat,
		ReceiverLon:        to.Lon,
		Urgency:            urgency,
		Impact:             impact,
		DistanceKm:         distance,
		RiskScore:          score,
		Priority:           string(tier),
		Decision:           decision,
		FinalPriority:      string(tier),
		Status:             model.StatusOrderPlaced,
		FeedbackCount:      0,
	}

	if err := s.repo.DeliveryRequest.Create(ctx, record); err != nil {
		s.logger.Error("创建配送请求失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("配送请求已创建",
		zap.Uint("request_id", record.RequestID),
		zap.Float64("risk_score", score),
		zap.String("priority", string(tier)),
		zap.Float64("distance_km", distance),
	)

	return toDeliveryRequestResponse(record), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *deliveryRequestService) GetByID(ctx context.Context, id uint) (*dto.DeliveryRequestResponse, error) {
	record, err := s.repo.DeliveryRequest.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询配送请求失败", zap.Uint("id", id), zap.Error(err))
		return nil, err
	}
	return toDeliveryRequestResponse(record), nil
}

// ────────────────────── List ──────────────────────

func (s *deliveryRequestService) List(ctx context.Context, req *dto.DeliveryRequestListRequest) ([]dto.DeliveryRequestResponse, int64, error) {
	if req.Status != "" && !isKnownStatus(req.Status) {
		return nil, 0, fmt.Errorf("%w: 未知状态 %q", pkgerrors.ErrInvalidArgument, req.Status)
	}
	for _, t := range []string{req.Priority, req.FinalPriority} {
		if t != "" && !priority.Tier(t).Valid() {
			return nil, 0, fmt.Errorf("%w: 未知档位 %q", pkgerrors.ErrInvalidArgument, t)
		}
	}

	if s.cfg.Lifecycle.AdvanceOnTrack {
		if _, err := s.AdvanceStatuses(ctx); err != nil {
			return nil, 0, err
		}
	}

	records, total, err := s.repo.DeliveryRequest.List(ctx, repository.DeliveryRequestFilter{
		Status:        req.Status,
		Priority:      req.Priority,
		FinalPriority: req.FinalPriority,
		OrderBy:       repository.OrderByRecent,
		Offset:        req.GetOffset(),
		Limit:         req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("列出配送请求失败", zap.Error(err))
		return nil, 0, err
	}

	return toDeliveryRequestResponses(records), total, nil
}

// ────────────────────── 管理员队列 ──────────────────────

func (s *deliveryRequestService) PriorityQueue(ctx context.Context) ([]dto.DeliveryRequestResponse, error) {
	return s.queue(ctx, repository.DeliveryRequestFilter{OrderBy: repository.OrderByRisk})
}

func (s *deliveryRequestService) OverrideQueue(ctx context.Context) ([]dto.DeliveryRequestResponse, error) {
	return s.queue(ctx, repository.DeliveryRequestFilter{
		Priority: string(priority.TierMedium),
		OrderBy:  repository.OrderByRisk,
	})
}

func (s *deliveryRequestService) queue(ctx context.Context, filter repository.DeliveryRequestFilter) ([]dto.DeliveryRequestResponse, error) {
	records, _, err := s.repo.DeliveryRequest.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询优先级队列失败", zap.Error(err))
		return nil, err
	}
	return toDeliveryRequestResponses(records), nil
}

// ────────────────────── AdvanceStatuses ──────────────────────

func (s *deliveryRequestService) AdvanceStatuses(ctx context.Context) (int64, error) {
	n, err := s.repo.DeliveryRequest.AdvanceStatuses(ctx)
	if err != nil {
		s.logger.Error("推进配送状态失败", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("配送状态已推进", zap.Int64("advanced", n))
	}
	return n, nil
}

// ────────────────────── Override ──────────────────────

// Override 改判最终档位；不修改 AI 档位与风险分数，后一次改判直接覆盖前一次
func (s *deliveryRequestService) Override(ctx context.Context, id uint, req *dto.OverrideRequest, adminName string) (*dto.DeliveryRequestResponse, error) {
	tier := priority.Tier(strings.ToUpper(strings.TrimSpace(req.FinalPriority)))
	if !tier.Valid() {
		return nil, fmt.Errorf("%w: 档位必须为 HIGH/MEDIUM/LOW，当前为 %q", pkgerrors.ErrInvalidArgument, req.FinalPriority)
	}

	var updated *model.DeliveryRequest
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		record, err := tx.DeliveryRequest.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		reason := req.Reason
		now := time.Now()
		record.FinalPriority = string(tier)
		record.OverrideReason = &reason
		record.OverriddenBy = &adminName
		record.OverriddenAt = &now

		if err := tx.DeliveryRequest.Update(ctx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, s.wrapMutationError("改判", id, err)
	}

	s.logger.Info("配送请求已改判",
		zap.Uint("request_id", id),
		zap.String("ai_priority", updated.Priority),
		zap.String("final_priority", updated.FinalPriority),
		zap.String("admin", adminName),
	)

	return toDeliveryRequestResponse(updated), nil
}

// ────────────────────── SubmitFeedback ──────────────────────

// SubmitFeedback 累加评分：rating 为所有反馈的算术平均
func (s *deliveryRequestService) SubmitFeedback(ctx context.Context, id uint, req *dto.FeedbackRequest) (*dto.DeliveryRequestResponse, error) {
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, fmt.Errorf("%w: 评分必须在 %d-%d 之间，当前为 %d", pkgerrors.ErrInvalidArgument, minRating, maxRating, req.Rating)
	}

	var updated *model.DeliveryRequest
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		record, err := tx.DeliveryRequest.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !model.IsTerminalStatus(record.Status) {
			return ErrFeedbackNotDelivered
		}

		rating := float64(req.Rating)
		if record.FeedbackCount > 0 && record.Rating != nil {
			count := float64(record.FeedbackCount)
			rating = (*record.Rating*count + rating) / (count + 1)
		}
		record.Rating = &rating
		record.FeedbackCount++

		if err := tx.DeliveryRequest.Update(ctx, record); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, s.wrapMutationError("提交评价", id, err)
	}

	return toDeliveryRequestResponse(updated), nil
}

// ── 内部辅助方法 ──

func (s *deliveryRequestService) resolve(ctx context.Context, name, fallback string) (geo.Coordinate, error) {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	c, err := s.lookup.Resolve(ctx, name)
	if err != nil {
		if errors.Is(err, geo.ErrLocationUnknown) {
			return geo.Coordinate{}, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
		}
		s.logger.Error("解析地点坐标失败", zap.String("location", name), zap.Error(err))
		return geo.Coordinate{}, err
	}
	return c, nil
}

func (s *deliveryRequestService) wrapMutationError(action string, id uint, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRequestNotFound
	case errors.Is(err, ErrFeedbackNotDelivered), errors.Is(err, pkgerrors.ErrOptimisticLock):
		return err
	default:
		s.logger.Error(action+"失败", zap.Uint("id", id), zap.Error(err))
		return err
	}
}

func validatePlaceOrder(req *dto.PlaceOrderRequest) (priority.Category, priority.Vulnerability, float64, error) {
	category := canonicalCategory(req.Category)
	if category == "" {
		return "", "", 0, fmt.Errorf("%w: 未知物资类别 %q", pkgerrors.ErrInvalidArgument, req.Category)
	}

	vulnerability := priority.VulnerabilityNormal
	if strings.TrimSpace(req.Vulnerability) != "" {
		vulnerability = canonicalVulnerability(req.Vulnerability)
		if vulnerability == "" {
			return "", "", 0, fmt.Errorf("%w: 未知脆弱性分类 %q", pkgerrors.ErrInvalidArgument, req.Vulnerability)
		}
	}

	if req.PeopleAffected <= 0 {
		return "", "", 0, fmt.Errorf("%w: 受影响人数必须大于 0", pkgerrors.ErrInvalidArgument)
	}
	if req.AcceptableDelay <= 0 {
		return "", "", 0, fmt.Errorf("%w: 可接受延迟必须大于 0", pkgerrors.ErrInvalidArgument)
	}

	resources := 1.0
	if req.AvailableResources != nil {
		resources = *req.AvailableResources
	}
	if resources <= 0 || resources > 1 {
		return "", "", 0, fmt.Errorf("%w: 可用资源系数必须在 (0, 1] 之间", pkgerrors.ErrInvalidArgument)
	}

	return category, vulnerability, resources, nil
}

var knownCategories = []priority.Category{
	priority.CategoryMedicine,
	priority.CategoryBlood,
	priority.CategorySecurity,
	priority.CategoryInfrastructure,
	priority.CategoryGeneral,
}

var knownVulnerabilities = []priority.Vulnerability{
	priority.VulnerabilityNormal,
	priority.VulnerabilityChild,
	priority.VulnerabilityElderly,
	priority.VulnerabilityDisabled,
}

// canonicalCategory 大小写不敏感匹配，返回规范写法；未知返回空串
func canonicalCategory(raw string) priority.Category {
	raw = strings.TrimSpace(raw)
	for _, c := range knownCategories {
		if strings.EqualFold(raw, string(c)) {
			return c
		}
	}
	return ""
}

func canonicalVulnerability(raw string) priority.Vulnerability {
	raw = strings.TrimSpace(raw)
	for _, v := range knownVulnerabilities {
		if strings.EqualFold(raw, string(v)) {
			return v
		}
	}
	return ""
}

func isKnownStatus(status string) bool {
	for _, st := range model.StatusSequence {
		if st == status {
			return true
		}
	}
	return false
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toDeliveryRequestResponse(r *model.DeliveryRequest) *dto.DeliveryRequestResponse {
	resp := &dto.DeliveryRequestResponse{
		ID:                 r.RequestID,
		Sender:             r.Sender,
		Receiver:           r.Receiver,
		Category:           r.Category,
		PeopleAffected:     r.PeopleAffected,
		Vulnerability:      r.Vulnerability,
		AcceptableDelay:    r.AcceptableDelay,
		AvailableResources: r.AvailableResources,
		SenderLat:          r.SenderLat,
		SenderLon:          r.SenderLon,
		ReceiverLat:        r.ReceiverLat,
		ReceiverLon:        r.ReceiverLon,
		Urgency:            r.Urgency,
		Impact:             r.Impact,
		DistanceKm:         r.DistanceKm,
		RiskScore:          r.RiskScore,
		Priority:           r.Priority,
		Decision:           r.Decision,
		FinalPriority:      r.FinalPriority,
		Status:             r.Status,
		Rating:             r.Rating,
		FeedbackCount:      r.FeedbackCount,
		CreatedAt:          r.CreatedAt.Format(timeLayout),
		UpdatedAt:          r.UpdatedAt.Format(timeLayout),
	}
	if r.OverrideReason != nil {
		resp.OverrideReason = *r.OverrideReason
	}
	if r.OverriddenBy != nil {
		resp.OverriddenBy = *r.OverriddenBy
	}
	if r.OverriddenAt != nil {
		resp.OverriddenAt = r.OverriddenAt.Format(timeLayout)
	}
	return resp
}

func toDeliveryRequestResponses(records []model.DeliveryRequest) []dto.DeliveryRequestResponse {
	result := make([]dto.DeliveryRequestResponse, 0, len(records))
	for i := range records {
		result = append(result, *toDeliveryRequestResponse(&records[i]))
	}
	return result
}
