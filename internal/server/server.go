package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"gigmarket_backend/internal/handlers"
	"gigmarket_backend/internal/middleware"
	"gigmarket_backend/internal/realtime"
	"gigmarket_backend/internal/service/chat"
	"gigmarket_backend/internal/service/order"
	"gigmarket_backend/internal/store"
)

// Deps bundles everything the router needs. Tests build one from in-memory
// stores; main wires the real ones.
type Deps struct {
	Stores struct {
		Users          store.UserStore
		Orders         store.OrderStore
		Messages       store.MessageStore
		Gigs           store.GigStore
		PaymentDetails store.PaymentDetailStore
	}
	Hub           *realtime.Hub
	RDB           *redis.Client
	JWTSecret     string
	JWTExpiresMin int
	CORSOrigins   string
}

func New(d Deps) *fiber.App {
	orderSvc := order.NewService(d.Stores.Orders, d.Stores.Users, d.Stores.Gigs, d.Stores.PaymentDetails)
	chatSvc := chat.NewService(d.Stores.Messages, d.Stores.Orders, d.Stores.Users)

	authH := handlers.NewAuthHandler(d.Stores.Users, d.JWTSecret, d.JWTExpiresMin)
	orderH := handlers.NewOrderHandler(orderSvc, d.Stores.Users)
	chatH := handlers.NewChatHandler(chatSvc, d.Hub, d.RDB, d.JWTSecret)
	adminH := handlers.NewAdminHandler(d.Stores.Users, d.Stores.Gigs, d.Stores.Orders,
		d.Stores.PaymentDetails, orderSvc, d.RDB, d.JWTSecret, d.JWTExpiresMin)
	detailH := handlers.NewPaymentDetailHandler(d.Stores.PaymentDetails, d.Stores.Users)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		ExposeHeaders:    "Content-Length",
		AllowCredentials: true,
	}))
	app.Options("/*", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// public
	api.Post("/auth/register", authH.Register)
	api.Post("/auth/login", authH.Login)
	api.Get("/auth/username/:username", authH.CheckUsername)
	api.Post("/admin/login", adminH.Login)
	api.Get("/payment-details/admin", detailH.AdminPublic)

	// protected (JWT)
	protected := api.Group("/",
		middleware.JWTBearer(d.JWTSecret),
		middleware.AttachJWTLocals(),
	)

	protected.Get("/auth/me", authH.Me)
	protected.Put("/auth/profile", authH.UpdateProfile)
	protected.Put("/auth/change-password", authH.ChangePassword)

	// orders: static segments registered before the :id routes
	protected.Post("/orders", orderH.Create)
	protected.Get("/orders", orderH.List)
	protected.Get("/orders/seller", middleware.RequireRoles("freelancer"), orderH.SellerQueue)
	protected.Get("/orders/withdrawal/eligible", middleware.RequireRoles("freelancer"), orderH.WithdrawalEligible)
	protected.Get("/orders/:id", orderH.GetOne)
	protected.Put("/orders/:id", orderH.Update)
	protected.Post("/orders/:id/withdrawal", middleware.RequireRoles("freelancer"), orderH.RequestWithdrawal)

	// chat over HTTP
	protected.Get("/chat/orders/:orderId/messages", chatH.GetMessages)
	protected.Post("/chat/messages", chatH.SendMessage)

	// payment details
	protected.Post("/payment-details", detailH.Save)
	protected.Get("/payment-details/:userId", detailH.GetByUser)

	// admin only; role is re-checked against the database
	admin := protected.Group("/admin", middleware.RequireAdmin(d.Stores.Users))
	admin.Get("/dashboard-stats", adminH.DashboardStats)
	admin.Get("/clients", adminH.Clients)
	admin.Get("/payment-details", adminH.PaymentDetails)
	admin.Get("/orders/pending-verification", adminH.PendingVerification)
	admin.Get("/orders/history", adminH.History)
	admin.Post("/orders/:id/verify-payment", adminH.VerifyPayment)
	admin.Get("/withdrawals", adminH.Withdrawals)
	admin.Post("/withdrawals/:id/process", adminH.ProcessWithdrawal)

	// WebSocket endpoint, authenticated via token query param
	app.Get("/ws/chat", websocket.New(chatH.WebSocketHandler))

	return app
}
