package service

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"priority-delivery/internal/model"
	"priority-delivery/internal/repository"
	pkgerrors "priority-delivery/pkg/errors"
)

// ── Mock DeliveryRequestRepository ──

type mockDeliveryRequestRepo struct {
	records map[uint]*model.DeliveryRequest
	nextID  uint
	listErr error
}

func newMockDeliveryRequestRepo() *mockDeliveryRequestRepo {
	return &mockDeliveryRequestRepo{records: make(map[uint]*model.DeliveryRequest), nextID: 1}
}

func (m *mockDeliveryRequestRepo) Create(_ context.Context, req *model.DeliveryRequest) error {
	req.RequestID = m.nextID
	m.nextID++
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Version = 1
	cp := *req
	m.records[req.RequestID] = &cp
	return nil
}

func (m *mockDeliveryRequestRepo) GetByID(_ context.Context, id uint) (*model.DeliveryRequest, error) {
	r, ok := m.records[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockDeliveryRequestRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.DeliveryRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *mockDeliveryRequestRepo) Update(_ context.Context, req *model.DeliveryRequest) error {
	stored, ok := m.records[req.RequestID]
	if !ok || stored.Version != req.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.FinalPriority = req.FinalPriority
	stored.OverrideReason = req.OverrideReason
	stored.OverriddenBy = req.OverriddenBy
	stored.OverriddenAt = req.OverriddenAt
	stored.Status = req.Status
	stored.Rating = req.Rating
	stored.FeedbackCount = req.FeedbackCount
	stored.Version++
	stored.UpdatedAt = time.Now()
	req.Version = stored.Version
	return nil
}

func (m *mockDeliveryRequestRepo) List(_ context.Context, f repository.DeliveryRequestFilter) ([]model.DeliveryRequest, int64, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var result []model.DeliveryRequest
	for _, r := range m.records {
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if f.Priority != "" && r.Priority != f.Priority {
			continue
		}
		if f.FinalPriority != "" && r.FinalPriority != f.FinalPriority {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool {
		if f.OrderBy == repository.OrderByRisk && result[i].RiskScore != result[j].RiskScore {
			return result[i].RiskScore > result[j].RiskScore
		}
		return result[i].RequestID > result[j].RequestID
	})
	total := int64(len(result))
	if f.Limit > 0 {
		if f.Offset >= len(result) {
			return []model.DeliveryRequest{}, total, nil
		}
		end := f.Offset + f.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[f.Offset:end]
	}
	return result, total, nil
}

func (m *mockDeliveryRequestRepo) AdvanceStatuses(_ context.Context) (int64, error) {
	var n int64
	for _, r := range m.records {
		if next, ok := model.NextStatus(r.Status); ok {
			r.Status = next
			r.Version++
			n++
		}
	}
	return n, nil
}

// setStatus 测试辅助：直接设置状态
func (m *mockDeliveryRequestRepo) setStatus(id uint, status string) {
	if r, ok := m.records[id]; ok {
		r.Status = status
	}
}

func newMockRepository(drRepo *mockDeliveryRequestRepo) *repository.Repository {
	return &repository.Repository{DeliveryRequest: drRepo}
}
