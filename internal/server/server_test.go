package server_test

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

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/realtime"
	"gigmarket_backend/internal/server"
	"gigmarket_backend/internal/store"
	"gigmarket_backend/internal/store/memory"
	"gigmarket_backend/internal/utils"
)

type testEnv struct {
	app    *fiber.App
	users  *memory.UserStore
	gigs   *memory.GigStore
	orders *memory.OrderStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:  memory.NewUserStore(),
		gigs:   memory.NewGigStore(),
		orders: memory.NewOrderStore(),
	}

	hub := realtime.NewHub()
	go hub.Run()

	deps := server.Deps{
		Hub:           hub,
		JWTSecret:     "test-secret",
		JWTExpiresMin: 60,
		CORSOrigins:   "http://localhost:3000",
	}
	deps.Stores.Users = env.users
	deps.Stores.Orders = env.orders
	deps.Stores.Messages = memory.NewMessageStore()
	deps.Stores.Gigs = env.gigs
	deps.Stores.PaymentDetails = memory.NewPaymentDetailStore()

	env.app = server.New(deps)
	return env
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := e.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var parsed map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return res, parsed
}

func (e *testEnv) register(t *testing.T, name, email, role string) string {
	t.Helper()
	res, body := e.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "register %s: %v", email, body)
	data := body["data"].(map[string]interface{})
	return data["token"].(string)
}

func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hashed, err := utils.HashPassword("admin-password")
	require.NoError(t, err)
	email := "admin@example.com"
	admin := &models.User{Name: "Root", Email: &email, Password: hashed, Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, e.users.Create(t.Context(), admin))

	res, body := e.request(t, "POST", "/api/admin/login", "", fiber.Map{
		"email":    email,
		"password": "admin-password",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	return body["data"].(map[string]interface{})["token"].(string)
}

func TestRegisterLoginAndMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Alice", "alice@example.com", "client")

	res, body := env.request(t, "GET", "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, "Alice", user["name"])
	_, exposed := user["password"]
	assert.False(t, exposed, "password hash must never serialize")

	res, body = env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, body["data"].(map[string]interface{})["token"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "client")

	res, _ := env.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "password123",
		"role":     "client",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

type flakyUserStore struct {
	store.UserStore
	createErr error
}

func (s *flakyUserStore) Create(ctx context.Context, u *models.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	return s.UserStore.Create(ctx, u)
}

func newFlakyEnv(t *testing.T, createErr error) *testEnv {
	t.Helper()
	env := newTestEnv(t)

	hub := realtime.NewHub()
	go hub.Run()

	deps := server.Deps{
		Hub:           hub,
		JWTSecret:     "test-secret",
		JWTExpiresMin: 60,
		CORSOrigins:   "http://localhost:3000",
	}
	deps.Stores.Users = &flakyUserStore{UserStore: env.users, createErr: createErr}
	deps.Stores.Orders = env.orders
	deps.Stores.Messages = memory.NewMessageStore()
	deps.Stores.Gigs = env.gigs
	deps.Stores.PaymentDetails = memory.NewPaymentDetailStore()

	env.app = server.New(deps)
	return env
}

func TestRegister_StorageFaultIsServerError(t *testing.T) {
	env := newFlakyEnv(t, errors.New("connection reset"))

	res, body := env.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
		"role":     "client",
	})
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, "Internal server error", body["message"])
}

func TestRegister_RacedDuplicateIsConflict(t *testing.T) {
	// the uniqueness pre-checks see nothing, but the insert itself
	// reports a unique violation
	env := newFlakyEnv(t, gorm.ErrDuplicatedKey)

	res, body := env.request(t, "POST", "/api/auth/register", "", fiber.Map{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "password123",
		"role":     "client",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "An account with this email or phone already exists", body["message"])
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "client")

	res, _ := env.request(t, "POST", "/api/auth/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	res, _ := env.request(t, "GET", "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = env.request(t, "GET", "/api/orders", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Alice", "alice@example.com", "client")

	res, _ := env.request(t, "GET", "/api/admin/dashboard-stats", token, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestAdminLogin_RejectsNonAdminAccount(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "client")

	res, _ := env.request(t, "POST", "/api/admin/login", "", fiber.Map{
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

// seedGig plants a gig owned by the given seller token's user.
func (e *testEnv) seedGig(t *testing.T, sellerToken string) (*models.Gig, string) {
	t.Helper()
	_, body := e.request(t, "GET", "/api/auth/me", sellerToken, nil)
	sellerID := body["data"].(map[string]interface{})["user"].(map[string]interface{})["id"].(string)

	sellerUUID, err := uuid.Parse(sellerID)
	require.NoError(t, err)
	gig := &models.Gig{SellerID: sellerUUID, Title: "Logo design", Price: 150}
	e.gigs.Put(gig)
	return gig, sellerID
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	buyerToken := env.register(t, "Alice", "alice@example.com", "client")
	sellerToken := env.register(t, "Bob", "bob@example.com", "freelancer")
	adminToken := env.seedAdmin(t)
	gig, sellerID := env.seedGig(t, sellerToken)

	// buyer places the order with a payment screenshot attached
	res, body := env.request(t, "POST", "/api/orders", buyerToken, fiber.Map{
		"gig_id":             gig.ID.String(),
		"seller_id":          sellerID,
		"amount":             150,
		"requirements":       "three drafts",
		"payment_screenshot": "proof.png",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "create order: %v", body)
	orderData := body["data"].(map[string]interface{})["order"].(map[string]interface{})
	orderID := orderData["id"].(string)
	assert.Equal(t, "Payment pending verify", orderData["status"])

	// until verification the seller's queue stays empty
	res, body = env.request(t, "GET", "/api/orders/seller", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Empty(t, body["data"].(map[string]interface{})["orders"])

	// admin sees it in the pending verification queue and confirms
	res, body = env.request(t, "GET", "/api/admin/orders/pending-verification", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["data"].(map[string]interface{})["orders"], 1)

	res, _ = env.request(t, "POST", fmt.Sprintf("/api/admin/orders/%s/verify-payment", orderID), adminToken, fiber.Map{
		"verified": true,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// now the seller sees it and delivers
	res, body = env.request(t, "GET", "/api/orders/seller", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["data"].(map[string]interface{})["orders"], 1)

	res, body = env.request(t, "PUT", "/api/orders/"+orderID, sellerToken, fiber.Map{
		"status": "Completed",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, "complete order: %v", body)

	// buyer confirms completion
	res, _ = env.request(t, "PUT", "/api/orders/"+orderID, buyerToken, fiber.Map{
		"confirm_completion": true,
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// seller requests a payout, admin approves it
	res, _ = env.request(t, "POST", "/api/orders/"+orderID+"/withdrawal", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = env.request(t, "GET", "/api/admin/withdrawals", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Len(t, body["data"].(map[string]interface{})["withdrawals"], 1)

	res, body = env.request(t, "POST", "/api/admin/withdrawals/"+orderID+"/process", adminToken, fiber.Map{
		"action": "approve",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)
	finalOrder := body["data"].(map[string]interface{})["order"].(map[string]interface{})
	assert.Equal(t, "approved", finalOrder["withdrawal_status"])
}

func TestOrderUpdate_ForbiddenForOutsiders(t *testing.T) {
	env := newTestEnv(t)
	buyerToken := env.register(t, "Alice", "alice@example.com", "client")
	sellerToken := env.register(t, "Bob", "bob@example.com", "freelancer")
	strangerToken := env.register(t, "Mallory", "mallory@example.com", "client")
	gig, sellerID := env.seedGig(t, sellerToken)

	res, body := env.request(t, "POST", "/api/orders", buyerToken, fiber.Map{
		"gig_id":    gig.ID.String(),
		"seller_id": sellerID,
		"amount":    150,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	orderID := body["data"].(map[string]interface{})["order"].(map[string]interface{})["id"].(string)

	res, _ = env.request(t, "GET", "/api/orders/"+orderID, strangerToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, _ = env.request(t, "PUT", "/api/orders/"+orderID, strangerToken, fiber.Map{
		"requirements": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
}

func TestChatOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	buyerToken := env.register(t, "Alice", "alice@example.com", "client")
	sellerToken := env.register(t, "Bob", "bob@example.com", "freelancer")
	strangerToken := env.register(t, "Mallory", "mallory@example.com", "client")
	gig, sellerID := env.seedGig(t, sellerToken)

	res, body := env.request(t, "POST", "/api/orders", buyerToken, fiber.Map{
		"gig_id":    gig.ID.String(),
		"seller_id": sellerID,
		"amount":    150,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	orderID := body["data"].(map[string]interface{})["order"].(map[string]interface{})["id"].(string)

	res, body = env.request(t, "POST", "/api/chat/messages", buyerToken, fiber.Map{
		"order_id": orderID,
		"text":     "hello, any update?",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, "send message: %v", body)

	res, _ = env.request(t, "POST", "/api/chat/messages", strangerToken, fiber.Map{
		"order_id": orderID,
		"text":     "let me in",
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res, body = env.request(t, "GET", "/api/chat/orders/"+orderID+"/messages", sellerToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	msgs := body["data"].(map[string]interface{})["messages"].([]interface{})
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, "hello, any update?", first["text"])
	assert.Equal(t, "buyer", first["sender_type"])
	assert.Equal(t, true, first["read"], "fetching the thread marks the other party's messages read")
}

func TestPaymentDetailsFlow(t *testing.T) {
	env := newTestEnv(t)
	sellerToken := env.register(t, "Bob", "bob@example.com", "freelancer")
	otherToken := env.register(t, "Mallory", "mallory@example.com", "client")
	adminToken := env.seedAdmin(t)

	_, body := env.request(t, "GET", "/api/auth/me", sellerToken, nil)
	sellerID := body["data"].(map[string]interface{})["user"].(map[string]interface{})["id"].(string)

	res, _ := env.request(t, "POST", "/api/payment-details", sellerToken, fiber.Map{
		"payment_method":      "bank_transfer",
		"account_number":      "12345678",
		"account_holder_name": "Bob B.",
		"bank_name":           "First National",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	// owner and admin may read, other users may not
	res, _ = env.request(t, "GET", "/api/payment-details/"+sellerID, sellerToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = env.request(t, "GET", "/api/payment-details/"+sellerID, adminToken, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res, _ = env.request(t, "GET", "/api/payment-details/"+sellerID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	// missing required fields are rejected
	res, _ = env.request(t, "POST", "/api/payment-details", sellerToken, fiber.Map{
		"payment_method": "bank_transfer",
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAdminPublicPaymentDetails(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAdmin(t)

	// nothing saved yet
	res, _ := env.request(t, "GET", "/api/payment-details/admin", "", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res, _ = env.request(t, "POST", "/api/payment-details", adminToken, fiber.Map{
		"payment_method":      "bank_transfer",
		"account_number":      "000111222",
		"account_holder_name": "Platform Ops",
	})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body := env.request(t, "GET", "/api/payment-details/admin", "", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	detail := body["data"].(map[string]interface{})["payment_detail"].(map[string]interface{})
	assert.Equal(t, "000111222", detail["account_number"])
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Alice", "alice@example.com", "client")
	env.register(t, "Bob", "bob@example.com", "freelancer")
	adminToken := env.seedAdmin(t)
	env.gigs.Put(&models.Gig{Title: "Logo design"})

	res, body := env.request(t, "GET", "/api/admin/dashboard-stats", adminToken, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	stats := body["data"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["totalClients"])
	assert.Equal(t, float64(1), stats["totalSellers"])
	assert.Equal(t, float64(1), stats["totalGigs"])
	assert.Equal(t, float64(0), stats["totalOrders"])
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	res, body := env.request(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
