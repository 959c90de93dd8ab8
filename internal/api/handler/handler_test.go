package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"priority-delivery/internal/dto"
	"priority-delivery/internal/service"
	pkgerrors "priority-delivery/pkg/errors"
	"priority-delivery/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult  *dto.LoginResponse
	loginErr     error
	verifyResult *dto.TokenResponse
	verifyErr    error
	logoutErr    error
	loggedOut    string
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.LoginResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) VerifyOTP(_ context.Context, _ *dto.VerifyOTPRequest) (*dto.TokenResponse, error) {
	return m.verifyResult, m.verifyErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.loggedOut = jti
	return m.logoutErr
}

// ── Mock DeliveryRequestService ──

type mockDeliveryRequestService struct {
	placeResult    *dto.DeliveryRequestResponse
	placeErr       error
	getResult      *dto.DeliveryRequestResponse
	getErr         error
	listResult     []dto.DeliveryRequestResponse
	listTotal      int64
	listErr        error
	queueResult    []dto.DeliveryRequestResponse
	queueErr       error
	advanced       int64
	advanceErr     error
	overrideResult *dto.DeliveryRequestResponse
	overrideErr    error
	overrideBy     string
	feedbackResult *dto.DeliveryRequestResponse
	feedbackErr    error
	lastID         uint
}

func (m *mockDeliveryRequestService) PlaceOrder(_ context.Context, _ *dto.PlaceOrderRequest) (*dto.DeliveryRequestResponse, error) {
	return m.placeResult, m.placeErr
}
func (m *mockDeliveryRequestService) GetByID(_ context.Context, id uint) (*dto.DeliveryRequestResponse, error) {
	m.lastID = id
	return m.getResult, m.getErr
}
func (m *mockDeliveryRequestService) List(_ context.Context, _ *dto.DeliveryRequestListRequest) ([]dto.DeliveryRequestResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockDeliveryRequestService) PriorityQueue(_ context.Context) ([]dto.DeliveryRequestResponse, error) {
	return m.queueResult, m.queueErr
}
func (m *mockDeliveryRequestService) OverrideQueue(_ context.Context) ([]dto.DeliveryRequestResponse, error) {
	return m.queueResult, m.queueErr
}
func (m *mockDeliveryRequestService) AdvanceStatuses(_ context.Context) (int64, error) {
	return m.advanced, m.advanceErr
}
func (m *mockDeliveryRequestService) Override(_ context.Context, id uint, _ *dto.OverrideRequest, admin string) (*dto.DeliveryRequestResponse, error) {
	m.lastID = id
	m.overrideBy = admin
	return m.overrideResult, m.overrideErr
}
func (m *mockDeliveryRequestService) SubmitFeedback(_ context.Context, id uint, _ *dto.FeedbackRequest) (*dto.DeliveryRequestResponse, error) {
	m.lastID = id
	return m.feedbackResult, m.feedbackErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportPriorityQueue(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("username", "admin")
	c.Set("role", "admin")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(method, routePath, target string, body io.Reader, h gin.HandlerFunc, withAuth bool) *httptest.ResponseRecorder {
	r := gin.New()
	r.Handle(method, routePath, func(c *gin.Context) {
		if withAuth {
			setAuth(c)
		}
		h(c)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func sampleResponse() *dto.DeliveryRequestResponse {
	return &dto.DeliveryRequestResponse{
		ID:            1,
		Category:      "Medicine",
		RiskScore:     6.45,
		Priority:      "HIGH",
		FinalPriority: "HIGH",
		Status:        "Order Placed",
	}
}

func validPlaceOrder() dto.PlaceOrderRequest {
	return dto.PlaceOrderRequest{
		Sender:          "Ward 7 Clinic",
		Receiver:        "Relief Camp 3",
		Category:        "Medicine",
		PeopleAffected:  3,
		Vulnerability:   "Child",
		AcceptableDelay: 10,
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.LoginResponse{OTPToken: "pending", ExpiresIn: 300, OTP: "123456"}}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{Username: "admin", Password: "pw"}), h.Login, false)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/login", "/auth/login", bytes.NewReader([]byte("invalid json")), h.Login, false)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/login", "/auth/login", jsonBody(dto.LoginRequest{Username: "admin", Password: "wrong"}), h.Login, false)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_VerifyOTP(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"success", nil, http.StatusOK, 0},
		{"expired session", service.ErrOTPTokenInvalid, http.StatusUnauthorized, 11002},
		{"wrong code", service.ErrInvalidOTP, http.StatusUnauthorized, 11003},
		{"internal", errors.New("redis down"), http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockAuthService{verifyResult: &dto.TokenResponse{AccessToken: "access"}, verifyErr: tc.err}
			h := NewAuthHandler(mock)

			w := serve("POST", "/auth/otp/verify", "/auth/otp/verify",
				jsonBody(dto.VerifyOTPRequest{OTPToken: "pending", Code: "123456"}), h.VerifyOTP, false)

			if w.Code != tc.wantHTTP {
				t.Errorf("expected %d, got %d", tc.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tc.wantCode {
				t.Errorf("expected code %d, got %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestAuthHandler_VerifyOTP_NonNumericCode(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/otp/verify", "/auth/otp/verify",
		jsonBody(dto.VerifyOTPRequest{OTPToken: "pending", Code: "12ab56"}), h.VerifyOTP, false)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/logout", "/auth/logout", nil, h.Logout, true)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.loggedOut != "test-jti" {
		t.Errorf("expected jti test-jti to be revoked, got %q", mock.loggedOut)
	}
}

func TestAuthHandler_Logout_Unauthenticated(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := serve("POST", "/auth/logout", "/auth/logout", nil, h.Logout, false)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// DeliveryRequestHandler Tests
// ═══════════════════════════════════════════════════════════

func TestDeliveryRequestHandler_PlaceOrder_Success(t *testing.T) {
	h := NewDeliveryRequestHandler(&mockDeliveryRequestService{placeResult: sampleResponse()})

	w := serve("POST", "/requests", "/requests", jsonBody(validPlaceOrder()), h.PlaceOrder, false)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	resp := parseResponse(w)
	data, _ := resp.Data.(map[string]interface{})
	if data["priority"] != "HIGH" || data["risk_score"] != 6.45 {
		t.Errorf("unexpected payload: %v", resp.Data)
	}
}

func TestDeliveryRequestHandler_PlaceOrder_BindingErrors(t *testing.T) {
	h := NewDeliveryRequestHandler(&mockDeliveryRequestService{placeResult: sampleResponse()})

	over := 1.5
	cases := map[string]func(r *dto.PlaceOrderRequest){
		"missing sender":   func(r *dto.PlaceOrderRequest) { r.Sender = "" },
		"zero people":      func(r *dto.PlaceOrderRequest) { r.PeopleAffected = 0 },
		"zero delay":       func(r *dto.PlaceOrderRequest) { r.AcceptableDelay = 0 },
		"resources over 1": func(r *dto.PlaceOrderRequest) { r.AvailableResources = &over },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validPlaceOrder()
			mutate(&req)
			w := serve("POST", "/requests", "/requests", jsonBody(req), h.PlaceOrder, false)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
			if resp := parseResponse(w); resp.Code != 10001 {
				t.Errorf("expected code 10001, got %d", resp.Code)
			}
		})
	}
}

func TestDeliveryRequestHandler_PlaceOrder_ServiceErrors(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode int
	}{
		{"unknown category", fmt.Errorf("%w: category", pkgerrors.ErrInvalidArgument), http.StatusBadRequest, 12003},
		{"unknown location", fmt.Errorf("%w: atlantis", service.ErrLocationNotFound), http.StatusBadRequest, 12002},
		{"internal", errors.New("db down"), http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewDeliveryRequestHandler(&mockDeliveryRequestService{placeErr: tc.err})
			w := serve("POST", "/requests", "/requests", jsonBody(validPlaceOrder()), h.PlaceOrder, false)
			if w.Code != tc.wantHTTP {
				t.Errorf("expected %d, got %d", tc.wantHTTP, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tc.wantCode {
				t.Errorf("expected code %d, got %d", tc.wantCode, resp.Code)
			}
		})
	}
}

func TestDeliveryRequestHandler_GetRequest(t *testing.T) {
	mock := &mockDeliveryRequestService{getResult: sampleResponse()}
	h := NewDeliveryRequestHandler(mock)

	w := serve("GET", "/requests/:id", "/requests/42", nil, h.GetRequest, false)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastID != 42 {
		t.Errorf("expected id 42, got %d", mock.lastID)
	}

	w = serve("GET", "/requests/:id", "/requests/abc", nil, h.GetRequest, false)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", w.Code)
	}

	h = NewDeliveryRequestHandler(&mockDeliveryRequestService{getErr: service.ErrRequestNotFound})
	w = serve("GET", "/requests/:id", "/requests/7", nil, h.GetRequest, false)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12001 {
		t.Errorf("expected code 12001, got %d", resp.Code)
	}
}

func TestDeliveryRequestHandler_ListRequests(t *testing.T) {
	mock := &mockDeliveryRequestService{
		listResult: []dto.DeliveryRequestResponse{*sampleResponse()},
		listTotal:  21,
	}
	h := NewDeliveryRequestHandler(mock)

	w := serve("GET", "/requests", "/requests?page=2&page_size=10&status=Delivered", nil, h.ListRequests, false)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Data response.PageData `json:"data"`
	}
	json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Pagination.TotalPages != 3 || body.Data.Pagination.Page != 2 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}

	w = serve("GET", "/requests", "/requests?page_size=1000", nil, h.ListRequests, false)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized page, got %d", w.Code)
	}
}

func TestDeliveryRequestHandler_SubmitFeedback(t *testing.T) {
	rating := 4.0
	result := sampleResponse()
	result.Rating = &rating
	result.FeedbackCount = 1

	h := NewDeliveryRequestHandler(&mockDeliveryRequestService{feedbackResult: result})
	w := serve("POST", "/requests/:id/feedback", "/requests/1/feedback", jsonBody(dto.FeedbackRequest{Rating: 4}), h.SubmitFeedback, false)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	h = NewDeliveryRequestHandler(&mockDeliveryRequestService{feedbackErr: service.ErrFeedbackNotDelivered})
	w = serve("POST", "/requests/:id/feedback", "/requests/1/feedback", jsonBody(dto.FeedbackRequest{Rating: 4}), h.SubmitFeedback, false)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 12004 {
		t.Errorf("expected code 12004, got %d", resp.Code)
	}

	h = NewDeliveryRequestHandler(&mockDeliveryRequestService{feedbackErr: fmt.Errorf("%w: rating", pkgerrors.ErrInvalidArgument)})
	w = serve("POST", "/requests/:id/feedback", "/requests/1/feedback", jsonBody(dto.FeedbackRequest{Rating: 9}), h.SubmitFeedback, false)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AdminHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAdminHandler_Queues(t *testing.T) {
	mock := &mockDeliveryRequestService{queueResult: []dto.DeliveryRequestResponse{*sampleResponse()}}
	h := NewAdminHandler(mock)

	for _, fn := range []gin.HandlerFunc{h.PriorityQueue, h.OverrideQueue} {
		w := serve("GET", "/admin/queue", "/admin/queue", nil, fn, true)
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	}

	mock.queueErr = errors.New("db down")
	w := serve("GET", "/admin/queue", "/admin/queue", nil, h.PriorityQueue, true)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestAdminHandler_Override(t *testing.T) {
	result := sampleResponse()
	result.FinalPriority = "LOW"
	mock := &mockDeliveryRequestService{overrideResult: result}
	h := NewAdminHandler(mock)

	body := dto.OverrideRequest{FinalPriority: "LOW", Reason: "duplicate request"}
	w := serve("PUT", "/admin/requests/:id/override", "/admin/requests/5/override", jsonBody(body), h.Override, true)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.lastID != 5 || mock.overrideBy != "admin" {
		t.Errorf("expected override of 5 by admin, got %d by %q", mock.lastID, mock.overrideBy)
	}
}

func TestAdminHandler_Override_Errors(t *testing.T) {
	h := NewAdminHandler(&mockDeliveryRequestService{})
	w := serve("PUT", "/admin/requests/:id/override", "/admin/requests/5/override", jsonBody(dto.OverrideRequest{FinalPriority: "LOW"}), h.Override, false)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without auth context, got %d", w.Code)
	}

	w = serve("PUT", "/admin/requests/:id/override", "/admin/requests/5/override", jsonBody(map[string]string{}), h.Override, true)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing final_priority, got %d", w.Code)
	}

	h = NewAdminHandler(&mockDeliveryRequestService{overrideErr: pkgerrors.ErrOptimisticLock})
	w = serve("PUT", "/admin/requests/:id/override", "/admin/requests/5/override", jsonBody(dto.OverrideRequest{FinalPriority: "LOW"}), h.Override, true)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestAdminHandler_AdvanceStatuses(t *testing.T) {
	h := NewAdminHandler(&mockDeliveryRequestService{advanced: 3})

	w := serve("POST", "/admin/requests/advance", "/admin/requests/advance", nil, h.AdvanceStatuses, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	if data["advanced"] != float64(3) {
		t.Errorf("expected advanced=3, got %v", data["advanced"])
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportQueue(t *testing.T) {
	h := NewExportHandler(&mockExportService{buf: bytes.NewBufferString("PK..."), filename: "queue.xlsx"})

	w := serve("GET", "/admin/export/queue", "/admin/export/queue", nil, h.ExportQueue, true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}

	h = NewExportHandler(&mockExportService{err: service.ErrExportGenerateFail})
	w = serve("GET", "/admin/export/queue", "/admin/export/queue", nil, h.ExportQueue, true)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
