package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"priority-delivery/internal/model"
	"priority-delivery/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	// ExportPriorityQueue 按风险分数降序导出全部配送请求
	ExportPriorityQueue(ctx context.Context) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var queueHeaders = []string{
	"ID", "寄件人", "收件人", "物资类别", "受影响人数", "脆弱性",
	"距离(km)", "急迫度", "影响度", "风险分数", "AI 档位", "决策",
	"最终档位", "改判原因", "状态", "评分",
}

// ═══════════════════════════════════════════════════════════
// ExportPriorityQueue 导出优先级队列
// ═══════════════════════════════════════════════════════════
//
// 单 Sheet「优先级队列」：第 1 行表头，之后每行一条请求；
// 最终档位与 AI 档位不一致的行高亮。

func (s *exportService) ExportPriorityQueue(ctx context.Context) (*bytes.Buffer, string, error) {
	records, _, err := s.repo.DeliveryRequest.List(ctx, repository.DeliveryRequestFilter{
		OrderBy: repository.OrderByRisk,
	})
	if err != nil {
		s.logger.Error("查询优先级队列失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "优先级队列"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "C", 16)
	f.SetColWidth(sheetName, "D", "P", 12)
	f.SetColWidth(sheetName, "N", "N", 28)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	overrideStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFF2CC"}, Pattern: 1},
	})

	for i, h := range queueHeaders {
		f.SetCellValue(sheetName, cell(colName(i), 1), h)
	}
	f.SetCellStyle(sheetName, "A1", cell(colName(len(queueHeaders)-1), 1), headerStyle)

	for i := range records {
		row := i + 2
		if err := f.SetSheetRow(sheetName, cell("A", row), queueRow(&records[i])); err != nil {
			s.logger.Error("写入 Excel 行失败", zap.Int("row", row), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if records[i].FinalPriority != records[i].Priority {
			f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(queueHeaders)-1), row), overrideStyle)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("优先级队列_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf, filename, nil
}

func queueRow(r *model.DeliveryRequest) *[]interface{} {
	reason := ""
	if r.OverrideReason != nil {
		reason = *r.OverrideReason
	}
	var rating interface{} = "-"
	if r.Rating != nil {
		rating = *r.Rating
	}
	row := []interface{}{
		r.RequestID, r.Sender, r.Receiver, r.Category, r.PeopleAffected, r.Vulnerability,
		r.DistanceKm, r.Urgency, r.Impact, r.RiskScore, r.Priority, r.Decision,
		r.FinalPriority, reason, r.Status, rating,
	}
	return &row
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
