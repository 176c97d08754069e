package handlers

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gigmarket_backend/internal/metrics"
	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/realtime"
	"gigmarket_backend/internal/service/chat"
	"gigmarket_backend/internal/utils"
)

type ChatHandler struct {
	Svc       *chat.Service
	Hub       *realtime.Hub
	RDB       *redis.Client
	JWTSecret string
}

func NewChatHandler(svc *chat.Service, hub *realtime.Hub, rdb *redis.Client, jwtSecret string) *ChatHandler {
	return &ChatHandler{Svc: svc, Hub: hub, RDB: rdb, JWTSecret: jwtSecret}
}

// GetMessages returns the full thread for an order. Fetching marks the
// other party's messages as read.
func (h *ChatHandler) GetMessages(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}
	orderID, err := uuid.Parse(c.Params("orderId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	msgs, err := h.Svc.FetchThread(c.Context(), orderID, userUUID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, fiber.Map{"messages": msgs})
}

type SendMessageReq struct {
	OrderID     string              `json:"order_id"`
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments"`
}

func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userUUID, err := getUserUUID(c)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req SendMessageReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid body",
		})
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid order id",
		})
	}

	msg, err := h.Svc.Post(c.Context(), orderID, userUUID, req.Text, req.Attachments)
	if err != nil {
		return fail(c, err)
	}

	h.deliver(c.Context(), orderID, msg)
	metrics.MessagesSent.WithLabelValues("http").Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": msg},
	})
}

// deliver fans a persisted message out to the order's live connections and
// publishes a notification for the recipient.
func (h *ChatHandler) deliver(ctx context.Context, orderID uuid.UUID, msg *models.Message) {
	h.Hub.BroadcastToOrder(orderID, fiber.Map{
		"type":    "new_message",
		"message": msg,
	})

	if h.RDB == nil {
		return
	}
	o, _, err := h.Svc.Authorize(ctx, orderID, msg.SenderID)
	if err != nil {
		return
	}
	recipientID := o.BuyerID
	if msg.SenderID == o.BuyerID {
		recipientID = o.SellerID
	}
	notif := map[string]interface{}{
		"type":      "chat_message",
		"order_id":  orderID.String(),
		"sender_id": msg.SenderID.String(),
		"text":      msg.Text,
	}
	payload, _ := json.Marshal(notif)
	h.RDB.Publish(ctx, "notifications:"+recipientID.String(), payload)
}

type wsEvent struct {
	Type        string              `json:"type"`
	OrderID     string              `json:"order_id"`
	Text        string              `json:"text"`
	Attachments []models.Attachment `json:"attachments"`
}

// wsPush queues a payload on the client's send channel. The pump goroutine
// is the connection's only writer, so acks and errors must go through it
// like every broadcast does.
func wsPush(client *realtime.Client, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case client.Send <- payload:
	default:
	}
}

func wsError(client *realtime.Client, msg string) {
	wsPush(client, fiber.Map{"type": "error", "message": msg})
}

// WebSocketHandler authenticates the connection from its token query
// parameter and then serves join_order and send_message events until the
// peer disconnects.
func (h *ChatHandler) WebSocketHandler(c *websocket.Conn) {
	token := c.Query("token")
	if token == "" {
		log.Println("WebSocket: token parameter missing")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, token)
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}
	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Println("WebSocket: invalid user id in token:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected\n", userUUID)
	metrics.WSConnections.Inc()

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   &realtime.WebSocketConn{Conn: c},
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		metrics.WSConnections.Dec()
		log.Printf("WebSocket: user %s disconnected\n", userUUID)
	}()

	// Send messages from hub to client
	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	for {
		var ev wsEvent
		if err := c.ReadJSON(&ev); err != nil {
			log.Printf("WebSocket read error for user %s: %v\n", userUUID, err)
			break
		}

		switch ev.Type {
		case "pong":
			continue

		case "join_order":
			orderID, err := uuid.Parse(ev.OrderID)
			if err != nil {
				wsError(client, "invalid order_id")
				continue
			}
			if _, _, err := h.Svc.Authorize(context.Background(), orderID, userUUID); err != nil {
				wsError(client, "unauthorized access to this order")
				continue
			}
			h.Hub.JoinOrder(client, orderID)
			wsPush(client, fiber.Map{"type": "joined", "order_id": orderID.String()})

		case "send_message":
			orderID, err := uuid.Parse(ev.OrderID)
			if err != nil {
				wsError(client, "invalid order_id")
				continue
			}
			msg, err := h.Svc.Post(context.Background(), orderID, userUUID, ev.Text, ev.Attachments)
			if err != nil {
				wsError(client, err.Error())
				continue
			}
			h.deliver(context.Background(), orderID, msg)
			metrics.MessagesSent.WithLabelValues("ws").Inc()

		default:
			wsError(client, "unknown event type")
		}
	}
}
