package handlers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gigmarket_backend/internal/metrics"
	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/service/order"
	"gigmarket_backend/internal/store"
	"gigmarket_backend/internal/utils"
)

const dashboardStatsKey = "admin:dashboard-stats"
const dashboardStatsTTL = 30 * time.Second

type AdminHandler struct {
	Users     store.UserStore
	Gigs      store.GigStore
	Orders    store.OrderStore
	Details   store.PaymentDetailStore
	Svc       *order.Service
	RDB       *redis.Client
	JWTSecret string
	Expires   int
}

func NewAdminHandler(users store.UserStore, gigs store.GigStore, orders store.OrderStore,
	details store.PaymentDetailStore, svc *order.Service, rdb *redis.Client,
	jwtSecret string, expiresMin int) *AdminHandler {
	return &AdminHandler{
		Users:     users,
		Gigs:      gigs,
		Orders:    orders,
		Details:   details,
		Svc:       svc,
		RDB:       rdb,
		JWTSecret: jwtSecret,
		Expires:   expiresMin,
	}
}

type AdminLoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login issues a token only for accounts that hold the admin role.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req AdminLoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email and password are required",
		})
	}

	u, err := h.Users.FindByEmail(c.Context(), req.Email)
	if err != nil {
		return serverError(c)
	}
	if u == nil || !utils.CheckPassword(u.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}
	if u.Role != models.RoleAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Access denied. Admin privileges required.",
		})
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"data": fiber.Map{
			"user":  u,
			"token": token,
		},
	})
}

type dashboardStats struct {
	TotalClients int64 `json:"totalClients"`
	TotalSellers int64 `json:"totalSellers"`
	TotalGigs    int64 `json:"totalGigs"`
	TotalOrders  int64 `json:"totalOrders"`
}

func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	ctx := c.Context()

	var stats dashboardStats
	if h.RDB != nil {
		if hit, err := utils.GetCache(ctx, h.RDB, dashboardStatsKey, &stats); err == nil && hit {
			return ok(c, stats)
		}
	}

	clients, err := h.Users.CountByRole(ctx, models.RoleClient)
	if err != nil {
		return serverError(c)
	}
	sellers, err := h.Users.CountByRole(ctx, models.RoleFreelancer)
	if err != nil {
		return serverError(c)
	}
	gigs, err := h.Gigs.Count(ctx)
	if err != nil {
		return serverError(c)
	}
	orders, err := h.Orders.Count(ctx)
	if err != nil {
		return serverError(c)
	}

	stats = dashboardStats{
		TotalClients: clients,
		TotalSellers: sellers,
		TotalGigs:    gigs,
		TotalOrders:  orders,
	}

	if h.RDB != nil {
		if err := utils.SetCache(ctx, h.RDB, dashboardStatsKey, stats, dashboardStatsTTL); err != nil {
			log.Println("admin: caching dashboard stats:", err)
		}
	}
	return ok(c, stats)
}

func (h *AdminHandler) Clients(c *fiber.Ctx) error {
	users, err := h.Users.ListByRole(c.Context(), models.RoleClient)
	if err != nil {
		return serverError(c)
	}
	return ok(c, fiber.Map{"clients": users})
}

type paymentDetailItem struct {
	models.PaymentDetail
	UserName string `json:"user_name"`
	UserRole string `json:"user_role,omitempty"`
}

func (h *AdminHandler) PaymentDetails(c *fiber.Ctx) error {
	details, err := h.Details.List(c.Context())
	if err != nil {
		return serverError(c)
	}
	items := make([]paymentDetailItem, 0, len(details))
	for _, d := range details {
		item := paymentDetailItem{PaymentDetail: d}
		if u, err := h.Users.Get(c.Context(), d.UserID); err == nil && u != nil {
			item.UserName = u.Name
			item.UserRole = string(u.Role)
		} else if err != nil {
			log.Println("admin: resolving payment detail owner:", err)
		}
		items = append(items, item)
	}
	return ok(c, fiber.Map{"payment_details": items})
}

func (h *AdminHandler) PendingVerification(c *fiber.Ctx) error {
	items, err := h.Svc.ListPendingVerification(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": items})
}

func (h *AdminHandler) History(c *fiber.Ctx) error {
	items, err := h.Svc.History(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": items})
}

type VerifyPaymentReq struct {
	Verified bool `json:"verified"`
}

func (h *AdminHandler) VerifyPayment(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	var req VerifyPaymentReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	o, err := h.Svc.VerifyPayment(c.Context(), orderID, req.Verified)
	if err != nil {
		return fail(c, err)
	}

	result := "rejected"
	msg := "Payment rejected, order remains pending verification"
	if req.Verified {
		result = "verified"
		msg = "Payment verified successfully"
	}
	metrics.PaymentVerifications.WithLabelValues(result).Inc()

	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    fiber.Map{"order": o},
	})
}

func (h *AdminHandler) Withdrawals(c *fiber.Ctx) error {
	items, err := h.Svc.ListWithdrawalRequests(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"withdrawals": items})
}

type ProcessWithdrawalReq struct {
	Action string `json:"action" validate:"required,oneof=approve reject"`
}

func (h *AdminHandler) ProcessWithdrawal(c *fiber.Ctx) error {
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	var req ProcessWithdrawalReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Action must be approve or reject",
		})
	}

	o, err := h.Svc.ProcessWithdrawal(c.Context(), orderID, req.Action)
	if err != nil {
		return fail(c, err)
	}

	msg := "Withdrawal approved"
	if req.Action == "reject" {
		msg = "Withdrawal rejected"
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    fiber.Map{"order": o},
	})
}
