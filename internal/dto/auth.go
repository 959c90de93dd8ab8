package dto

// ── 管理员认证 DTO ──

// LoginRequest 管理员登录请求（第一步：账号密码）
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginResponse 登录第一步响应：返回等待 OTP 校验的临时 Token
type LoginResponse struct {
	OTPToken  string `json:"otp_token"`
	ExpiresIn int    `json:"expires_in"`     // OTP 有效期（秒）
	OTP       string `json:"otp,omitempty"` // 仅演示模式回显
}

// VerifyOTPRequest 登录第二步：提交 OTP
type VerifyOTPRequest struct {
	OTPToken string `json:"otp_token" binding:"required"`
	Code     string `json:"code"      binding:"required,numeric,min=4,max=10"`
}
