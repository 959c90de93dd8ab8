package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"priority-delivery/internal/model"
	pkgerrors "priority-delivery/pkg/errors"
)

// 列表排序方式
const (
	OrderByRecent = "recent" // created_at DESC
	OrderByRisk   = "risk"   // risk_score DESC
)

// DeliveryRequestFilter 列表查询条件，空字段表示不过滤
type DeliveryRequestFilter struct {
	Status        string
	Priority      string
	FinalPriority string
	OrderBy       string
	Offset        int
	Limit         int // <=0 表示不分页
}

// DeliveryRequestRepository 配送请求数据访问接口
type DeliveryRequestRepository interface {
	Create(ctx context.Context, req *model.DeliveryRequest) error
	GetByID(ctx context.Context, id uint) (*model.DeliveryRequest, error)
	// GetByIDForUpdate 行级锁读取，需在 Repository.Transaction 内调用
	GetByIDForUpdate(ctx context.Context, id uint) (*model.DeliveryRequest, error)
	Update(ctx context.Context, req *model.DeliveryRequest) error
	List(ctx context.Context, filter DeliveryRequestFilter) ([]model.DeliveryRequest, int64, error)
	// AdvanceStatuses 将所有未送达的请求推进一步，返回推进的条数
	AdvanceStatuses(ctx context.Context) (int64, error)
}

type deliveryRequestRepo struct {
	db *gorm.DB
}

// NewDeliveryRequestRepo 创建 DeliveryRequestRepository 实例
func NewDeliveryRequestRepo(db *gorm.DB) DeliveryRequestRepository {
	return &deliveryRequestRepo{db: db}
}

func (r *deliveryRequestRepo) Create(ctx context.Context, req *model.DeliveryRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *deliveryRequestRepo) GetByID(ctx context.Context, id uint) (*model.DeliveryRequest, error) {
	var req model.DeliveryRequest
	err := r.db.WithContext(ctx).
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *deliveryRequestRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.DeliveryRequest, error) {
	var req model.DeliveryRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Update 只写入创建后允许变更的字段，并做乐观锁校验
func (r *deliveryRequestRepo) Update(ctx context.Context, req *model.DeliveryRequest) error {
	oldVersion := req.Version
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.DeliveryRequest{}).
		Where("request_id = ? AND version = ?", req.RequestID, oldVersion).
		Updates(map[string]interface{}{
			"final_priority":  req.FinalPriority,
			"override_reason": req.OverrideReason,
			"overridden_by":   req.OverriddenBy,
			"overridden_at":   req.OverriddenAt,
			"status":          req.Status,
			"rating":          req.Rating,
			"feedback_count":  req.FeedbackCount,
			"updated_at":      now,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version = oldVersion + 1
	req.UpdatedAt = now
	return nil
}

func (r *deliveryRequestRepo) List(ctx context.Context, filter DeliveryRequestFilter) ([]model.DeliveryRequest, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.DeliveryRequest{})

	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}
	if filter.FinalPriority != "" {
		db = db.Where("final_priority = ?", filter.FinalPriority)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.OrderBy {
	case OrderByRisk:
		db = db.Order("risk_score DESC").Order("request_id ASC")
	default:
		db = db.Order("created_at DESC").Order("request_id DESC")
	}

	if filter.Limit > 0 {
		db = db.Offset(filter.Offset).Limit(filter.Limit)
	}

	var list []model.DeliveryRequest
	if err := db.Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// AdvanceStatuses 从终态一侧倒序执行条件更新，保证同一次调用中每条记录最多前进一步
func (r *deliveryRequestRepo) AdvanceStatuses(ctx context.Context) (int64, error) {
	var advanced int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for i := len(model.StatusSequence) - 2; i >= 0; i-- {
			from, to := model.StatusSequence[i], model.StatusSequence[i+1]
			result := tx.Model(&model.DeliveryRequest{}).
				Where("status = ?", from).
				Updates(map[string]interface{}{
					"status":     to,
					"updated_at": now,
					"version":    gorm.Expr("version + 1"),
				})
			if result.Error != nil {
				return result.Error
			}
			advanced += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return advanced, nil
}
