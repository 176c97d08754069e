package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/store"
)

type PaymentDetailHandler struct {
	Details store.PaymentDetailStore
	Users   store.UserStore
}

func NewPaymentDetailHandler(details store.PaymentDetailStore, users store.UserStore) *PaymentDetailHandler {
	return &PaymentDetailHandler{Details: details, Users: users}
}

type PaymentDetailReq struct {
	PaymentMethod     string `json:"payment_method" validate:"required"`
	AccountNumber     string `json:"account_number" validate:"required"`
	AccountHolderName string `json:"account_holder_name" validate:"required"`
	BankAccountName   string `json:"bank_account_name"`
	BankName          string `json:"bank_name"`
	BranchCode        string `json:"branch_code"`
	IBANNumber        string `json:"iban_number"`
}

// Save upserts the caller's payout account. One row per user.
func (h *PaymentDetailHandler) Save(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req PaymentDetailReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Payment method, account number and account holder name are required",
		})
	}

	detail := &models.PaymentDetail{
		UserID:            userUUID,
		PaymentMethod:     req.PaymentMethod,
		AccountNumber:     req.AccountNumber,
		AccountHolderName: req.AccountHolderName,
		BankAccountName:   req.BankAccountName,
		BankName:          req.BankName,
		BranchCode:        req.BranchCode,
		IBANNumber:        req.IBANNumber,
	}
	if err := h.Details.Upsert(c.Context(), detail); err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Payment details saved",
		"data":    fiber.Map{"payment_detail": detail},
	})
}

// GetByUser returns a user's payout account. Callers may read their own;
// admins may read anyone's.
func (h *PaymentDetailHandler) GetByUser(c *fiber.Ctx) error {
	callerUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	targetUUID, err := uuid.Parse(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid user id",
		})
	}

	if callerUUID != targetUUID {
		role, _ := c.Locals("role").(string)
		if role != string(models.RoleAdmin) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "unauthorized access to payment details",
			})
		}
	}

	detail, err := h.Details.GetByUser(c.Context(), targetUUID)
	if err != nil {
		return serverError(c)
	}
	if detail == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Payment details not found",
		})
	}
	return ok(c, fiber.Map{"payment_detail": detail})
}

// AdminPublic exposes the platform's own payout account so buyers know
// where to send manual payments. No authentication required.
func (h *PaymentDetailHandler) AdminPublic(c *fiber.Ctx) error {
	admin, err := h.Users.FirstAdmin(c.Context())
	if err != nil {
		return serverError(c)
	}
	if admin == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Payment details not found",
		})
	}

	detail, err := h.Details.GetByUser(c.Context(), admin.ID)
	if err != nil {
		return serverError(c)
	}
	if detail == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Payment details not found",
		})
	}
	return ok(c, fiber.Map{"payment_detail": detail})
}
