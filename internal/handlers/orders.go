package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gigmarket_backend/internal/metrics"
	"gigmarket_backend/internal/service/order"
	"gigmarket_backend/internal/store"
)

type OrderHandler struct {
	Svc   *order.Service
	Users store.UserStore
}

func NewOrderHandler(svc *order.Service, users store.UserStore) *OrderHandler {
	return &OrderHandler{Svc: svc, Users: users}
}

type CreateOrderReq struct {
	GigID             string  `json:"gig_id"`
	GigTitle          string  `json:"gig_title"`
	SellerID          string  `json:"seller_id" validate:"required"`
	Package           string  `json:"package"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Requirements      string  `json:"requirements"`
	DeliveryTime      int     `json:"delivery_time"`
	PaymentScreenshot string  `json:"payment_screenshot"`
}

func (h *OrderHandler) Create(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req CreateOrderReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation error",
			"error":   err.Error(),
		})
	}

	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid seller id",
		})
	}
	var gigID uuid.UUID
	if req.GigID != "" {
		gigID, err = uuid.Parse(req.GigID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Invalid gig id",
			})
		}
	}

	buyer, err := h.Users.Get(c.Context(), userUUID)
	if err != nil {
		return serverError(c)
	}
	if buyer == nil {
		return fiber.ErrUnauthorized
	}

	o, err := h.Svc.Create(c.Context(), buyer, order.CreateInput{
		GigID:             gigID,
		GigTitle:          req.GigTitle,
		SellerID:          sellerID,
		Package:           req.Package,
		Amount:            req.Amount,
		Requirements:      req.Requirements,
		DeliveryTime:      req.DeliveryTime,
		PaymentScreenshot: req.PaymentScreenshot,
	})
	if err != nil {
		return fail(c, err)
	}

	metrics.OrdersCreated.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Order created successfully",
		"data":    fiber.Map{"order": o},
	})
}

func (h *OrderHandler) List(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	orders, err := h.Svc.ListForUser(c.Context(), userUUID, c.Query("role"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": orders})
}

// SellerQueue lists work visible to a seller. Orders still waiting for
// payment verification are excluded so unpaid work never shows up.
func (h *OrderHandler) SellerQueue(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	orders, err := h.Svc.ListSellerQueue(c.Context(), userUUID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": orders})
}

func (h *OrderHandler) WithdrawalEligible(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	orders, err := h.Svc.ListWithdrawalEligible(c.Context(), userUUID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"orders": orders})
}

func (h *OrderHandler) GetOne(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	o, err := h.Svc.Get(c.Context(), orderID, userUUID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"order": o})
}

type UpdateOrderReq struct {
	Requirements      *string `json:"requirements"`
	PaymentScreenshot *string `json:"payment_screenshot"`
	Status            *string `json:"status"`
	ConfirmCompletion bool    `json:"confirm_completion"`
}

func (h *OrderHandler) Update(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	var req UpdateOrderReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	o, err := h.Svc.Update(c.Context(), orderID, userUUID, order.UpdateInput{
		Requirements:      req.Requirements,
		PaymentScreenshot: req.PaymentScreenshot,
		Status:            req.Status,
		ConfirmCompletion: req.ConfirmCompletion,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Order updated successfully",
		"data":    fiber.Map{"order": o},
	})
}

func (h *OrderHandler) RequestWithdrawal(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	orderID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	o, err := h.Svc.RequestWithdrawal(c.Context(), orderID, userUUID)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Withdrawal requested",
		"data":    fiber.Map{"order": o},
	})
}
