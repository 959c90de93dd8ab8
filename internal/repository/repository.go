package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db              *gorm.DB
	DeliveryRequest DeliveryRequestRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		DeliveryRequest: NewDeliveryRequestRepo(db),
	}
}

// Transaction 在同一数据库事务中执行 fn，fn 收到绑定该事务的 Repository
// 未注入 db（如单元测试中的 mock 聚合）时直接以自身执行
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
