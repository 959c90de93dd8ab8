package model

import "time"

// 配送状态（只能按顺序前进）
const (
	StatusOrderPlaced = "Order Placed"
	StatusPickedUp    = "Picked Up"
	StatusInTransit   = "In Transit"
	StatusDelivered   = "Delivered"
)

// StatusSequence 配送状态的固定顺序，最后一项为终态
var StatusSequence = []string{StatusOrderPlaced, StatusPickedUp, StatusInTransit, StatusDelivered}

// NextStatus 返回下一状态；终态或未知状态返回 false
func NextStatus(status string) (string, bool) {
	for i := 0; i < len(StatusSequence)-1; i++ {
		if StatusSequence[i] == status {
			return StatusSequence[i+1], true
		}
	}
	return "", false
}

// IsTerminalStatus 是否为终态
func IsTerminalStatus(status string) bool {
	return status == StatusDelivered
}

// DeliveryRequest 配送请求表，对应 delivery_requests
//
// 创建后 Urgency ~ Decision 均不再修改；FinalPriority 只能通过管理员改判变更。
type DeliveryRequest struct {
	RequestID uint `gorm:"primaryKey;autoIncrement" json:"request_id"`

	Sender             string  `gorm:"type:varchar(100);not null"    json:"sender"`
	Receiver           string  `gorm:"type:varchar(100);not null"    json:"receiver"`
	Category           string  `gorm:"type:varchar(20);not null"     json:"category"`
	PeopleAffected     int     `gorm:"not null"                      json:"people_affected"`
	Vulnerability      string  `gorm:"type:varchar(20);not null"     json:"vulnerability"`
	AcceptableDelay    int     `gorm:"not null"                      json:"acceptable_delay"` // 分钟
	AvailableResources float64 `gorm:"not null;default:1"            json:"available_resources"`
	SenderLat          float64 `gorm:"not null"                      json:"sender_lat"`
	SenderLon          float64 `gorm:"not null"                      json:"sender_lon"`
	ReceiverLat        float64 `gorm:"not null"                      json:"receiver_lat"`
	ReceiverLon        float64 `gorm:"not null"                      json:"receiver_lon"`

	Urgency    int     `gorm:"not null"                  json:"urgency"`
	Impact     int     `gorm:"not null"                  json:"impact"`
	DistanceKm float64 `gorm:"not null"                  json:"distance_km"`
	RiskScore  float64 `gorm:"not null;index"            json:"risk_score"`
	Priority   string  `gorm:"type:varchar(10);not null;index" json:"priority"`
	Decision   string  `gorm:"type:varchar(50);not null" json:"decision"`

	FinalPriority  string     `gorm:"type:varchar(10);not null;index"              json:"final_priority"`
	OverrideReason *string    `gorm:"type:varchar(500)"                            json:"override_reason,omitempty"`
	OverriddenBy   *string    `gorm:"type:varchar(100)"                            json:"overridden_by,omitempty"`
	OverriddenAt   *time.Time `json:"overridden_at,omitempty"`
	Status         string     `gorm:"type:varchar(20);not null;index;default:'Order Placed'" json:"status"`
	Rating         *float64   `json:"rating,omitempty"`
	FeedbackCount  int        `gorm:"not null;default:0"                           json:"feedback_count"`

	VersionedModel
}

// TableName 指定表名
func (DeliveryRequest) TableName() string { return "delivery_requests" }
