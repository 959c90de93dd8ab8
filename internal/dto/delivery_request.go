package dto

// ── 配送请求 DTO ──

// PlaceOrderRequest 下单请求
// 寄/收件地点留空时使用配置中的默认地点
type PlaceOrderRequest struct {
	Sender             string   `json:"sender"              binding:"required,max=100"`
	Receiver           string   `json:"receiver"            binding:"required,max=100"`
	Category           string   `json:"category"            binding:"required"`
	PeopleAffected     int      `json:"people_affected"     binding:"required,min=1"`
	Vulnerability      string   `json:"vulnerability"`
	AcceptableDelay    int      `json:"acceptable_delay"    binding:"required,min=1"` // 分钟
	AvailableResources *float64 `json:"available_resources" binding:"omitempty,gt=0,lte=1"`
	SenderLocation     string   `json:"sender_location"     binding:"omitempty,max=100"`
	ReceiverLocation   string   `json:"receiver_location"   binding:"omitempty,max=100"`
}

// DeliveryRequestListRequest 列表查询参数
type DeliveryRequestListRequest struct {
	Status        string `form:"status"`
	Priority      string `form:"priority"`
	FinalPriority string `form:"final_priority"`
	PaginationRequest
}

// OverrideRequest 管理员改判请求
type OverrideRequest struct {
	FinalPriority string `json:"final_priority" binding:"required"`
	Reason        string `json:"reason"         binding:"max=500"`
}

// FeedbackRequest 送达后评分请求
type FeedbackRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// AdvanceResponse 批量推进状态结果
type AdvanceResponse struct {
	Advanced int64 `json:"advanced"`
}

// DeliveryRequestResponse 配送请求详情
type DeliveryRequestResponse struct {
	ID                 uint     `json:"id"`
	Sender             string   `json:"sender"`
	Receiver           string   `json:"receiver"`
	Category           string   `json:"category"`
	PeopleAffected     int      `json:"people_affected"`
	Vulnerability      string   `json:"vulnerability"`
	AcceptableDelay    int      `json:"acceptable_delay"`
	AvailableResources float64  `json:"available_resources"`
	SenderLat          float64  `json:"sender_lat"`
	SenderLon          float64  `json:"sender_lon"`
	ReceiverLat        float64  `json:"receiver_lat"`
	ReceiverLon        float64  `json:"receiver_lon"`
	Urgency            int      `json:"urgency"`
	Impact             int      `json:"impact"`
	DistanceKm         float64  `json:"distance_km"`
	RiskScore          float64  `json:"risk_score"`
	Priority           string   `json:"priority"`
	Decision           string   `json:"decision"`
	FinalPriority      string   `json:"final_priority"`
	OverrideReason     string   `json:"override_reason,omitempty"`
	OverriddenBy       string   `json:"overridden_by,omitempty"`
	OverriddenAt       string   `json:"overridden_at,omitempty"`
	Status             string   `json:"status"`
	Rating             *float64 `json:"rating"`
	FeedbackCount      int      `json:"feedback_count"`
	CreatedAt          string   `json:"created_at"`
	UpdatedAt          string   `json:"updated_at"`
}
