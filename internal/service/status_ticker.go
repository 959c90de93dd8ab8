package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RunStatusTicker 按固定间隔推进所有未送达请求一步，直到 ctx 取消
// interval <= 0 时立即返回
func RunStatusTicker(ctx context.Context, svc DeliveryRequestService, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("配送状态定时推进已启动", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			logger.Info("配送状态定时推进已停止")
			return
		case <-ticker.C:
			if _, err := svc.AdvanceStatuses(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("定时推进配送状态失败", zap.Error(err))
			}
		}
	}
}
