package handlers

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/store"
	"gigmarket_backend/internal/utils"
)

type AuthHandler struct {
	Users     store.UserStore
	JWTSecret string
	Expires   int // minutes
}

func NewAuthHandler(users store.UserStore, secret string, expiresMin int) *AuthHandler {
	return &AuthHandler{Users: users, JWTSecret: secret, Expires: expiresMin}
}

type RegisterReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"` // client / freelancer; admin accounts are seeded
}

type FieldErrors map[string][]string

func (e FieldErrors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

func validationFail(c *fiber.Ctx, errs FieldErrors) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Validation error",
		"errors":  errs,
	})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Password = strings.TrimSpace(req.Password)
	if req.Role == "" {
		req.Role = string(models.RoleClient)
	}

	errs := FieldErrors{}
	if req.Name == "" {
		errs.Add("name", "Name is required")
	}
	if req.Email == "" && req.Phone == "" {
		errs.Add("email", "Email or phone is required")
	}
	if req.Email != "" && validate.Var(req.Email, "email") != nil {
		errs.Add("email", "Email format is invalid")
	}
	if req.Password == "" {
		errs.Add("password", "Password is required")
	} else if len(req.Password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
	}
	if req.Role != string(models.RoleClient) && req.Role != string(models.RoleFreelancer) {
		errs.Add("role", "Role must be client or freelancer")
	}
	if len(errs) > 0 {
		return validationFail(c, errs)
	}

	// uniqueness
	if req.Email != "" {
		if existing, err := h.Users.FindByEmail(c.Context(), req.Email); err != nil {
			return serverError(c)
		} else if existing != nil {
			return conflict(c, "An account with this email or phone already exists")
		}
	}
	if req.Phone != "" {
		if existing, err := h.Users.FindByPhone(c.Context(), req.Phone); err != nil {
			return serverError(c)
		} else if existing != nil {
			return conflict(c, "An account with this email or phone already exists")
		}
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		return serverError(c)
	}

	u := models.User{
		Name:     req.Name,
		Password: pw,
		Role:     models.Role(req.Role),
		IsActive: true,
	}
	if req.Email != "" {
		u.Email = &req.Email
	}
	if req.Phone != "" {
		u.Phone = &req.Phone
	}

	if err := h.Users.Create(c.Context(), &u); err != nil {
		// the uniqueness pre-checks race with concurrent registrations
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflict(c, "An account with this email or phone already exists")
		}
		return serverError(c)
	}

	token, err := utils.SignJWT(h.JWTSecret, u.ID.String(), string(u.Role), h.Expires)
	if err != nil {
		return serverError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Account created successfully",
		"data": fiber.Map{
			"user":  u,
			"token": token,
		},
	})
}

type LoginReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"` // optional assertion
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Email or phone is required",
		})
	}
	if req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Password is required",
		})
	}

	var u *models.User
	var err error
	if email != "" {
		u, err = h.Users.FindByEmail(c.Context(), email)
	} else {
		u, err = h.Users.FindByPhone(c.Context(), phone)
	}
	if err != nil {
		return serverError(c)
	}
	if u == nil || !utils.CheckPassword(u.Password, req.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials",
		})
	}
	if req.Role != "" && string(u.Role) != req.Role {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Invalid credentials or you are not registered as a " + req.Role,
		})
	}
	if !u.IsActive {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "Account is not active",
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

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	u, err := h.Users.Get(c.Context(), userUUID)
	if err != nil {
		return serverError(c)
	}
	if u == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}
	return ok(c, fiber.Map{"user": u})
}

// CheckUsername is public; the register/profile forms poll it.
func (h *AuthHandler) CheckUsername(c *fiber.Ctx) error {
	username := strings.ToLower(strings.TrimSpace(c.Params("username")))
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Username is required",
		})
	}

	existing, err := h.Users.FindByUsername(c.Context(), username)
	if err != nil {
		return serverError(c)
	}
	if existing != nil {
		return c.JSON(fiber.Map{
			"success":   true,
			"available": false,
			"message":   "This name already exists. Choose a different name.",
		})
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"available": true,
		"message":   "Username is available",
	})
}

type UpdateProfileReq struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Username *string `json:"username"`
	Avatar   *string `json:"avatar"`

	// seller profile fields, applied only to freelancers
	Title           *string          `json:"title"`
	Skills          []string         `json:"skills"`
	Bio             *string          `json:"bio"`
	Portfolio       *json.RawMessage `json:"portfolio"`
	Languages       []string         `json:"languages"`
	ExperienceLevel *string          `json:"experience_level"`
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req UpdateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}

	u, err := h.Users.Get(c.Context(), userUUID)
	if err != nil {
		return serverError(c)
	}
	if u == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if req.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*req.Username))
		if username == "" {
			u.Username = nil
		} else if u.Username == nil || *u.Username != username {
			existing, err := h.Users.FindByUsername(c.Context(), username)
			if err != nil {
				return serverError(c)
			}
			if existing != nil && existing.ID != u.ID {
				return conflict(c, "This name already exists. Choose a different name.")
			}
			u.Username = &username
		}
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email == "" {
			u.Email = nil
		} else {
			u.Email = &email
		}
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			u.Phone = nil
		} else {
			u.Phone = &phone
		}
	}
	if req.Avatar != nil {
		u.Avatar = *req.Avatar
	}

	if u.IsSeller() {
		if req.Title != nil {
			u.Title = strings.TrimSpace(*req.Title)
		}
		if req.Skills != nil {
			u.Skills = toJSONList(req.Skills)
		}
		if req.Bio != nil {
			u.Bio = strings.TrimSpace(*req.Bio)
		}
		if req.Portfolio != nil {
			u.Portfolio = datatypes.JSON(*req.Portfolio)
		}
		if req.Languages != nil {
			u.Languages = toJSONList(req.Languages)
		}
		if req.ExperienceLevel != nil {
			u.ExperienceLevel = *req.ExperienceLevel
		}
	}

	if err := h.Users.Save(c.Context(), u); err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated successfully",
		"data":    fiber.Map{"user": u},
	})
}

type ChangePasswordReq struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req ChangePasswordReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Current password and new password are required, new password must be at least 8 characters",
		})
	}

	u, err := h.Users.Get(c.Context(), userUUID)
	if err != nil {
		return serverError(c)
	}
	if u == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "User not found",
		})
	}

	if !utils.CheckPassword(u.Password, req.CurrentPassword) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "Current password is incorrect",
		})
	}
	if req.CurrentPassword == req.NewPassword {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "New password must be different from current password",
		})
	}

	pw, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return serverError(c)
	}
	u.Password = pw
	if err := h.Users.Save(c.Context(), u); err != nil {
		return serverError(c)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}

func toJSONList(items []string) datatypes.JSON {
	cleaned := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	b, _ := json.Marshal(cleaned)
	return datatypes.JSON(b)
}

func conflict(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func serverError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}
