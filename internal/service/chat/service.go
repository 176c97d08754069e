// Package chat persists and reads order-scoped message threads. The HTTP
// handlers and the realtime session both call into this service, so
// authorization and persistence semantics cannot drift between transports.
package chat

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"gigmarket_backend/internal/apperr"
	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/store"
)

type Service struct {
	Messages store.MessageStore
	Orders   store.OrderStore
	Users    store.UserStore
}

func NewService(messages store.MessageStore, orders store.OrderStore, users store.UserStore) *Service {
	return &Service{Messages: messages, Orders: orders, Users: users}
}

// Authorize resolves the order and the caller's side of it. Any operation on
// an order's thread passes through here first.
func (s *Service) Authorize(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, models.SenderType, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, "", apperr.Internal("failed to fetch order", err)
	}
	if o == nil {
		return nil, "", apperr.NotFound("order not found")
	}
	party, ok := o.ParticipantType(userID)
	if !ok {
		return nil, "", apperr.Forbidden("unauthorized access to this order")
	}
	return o, party, nil
}

// FetchThread returns the full history in creation order and sweeps the
// read flag on every message the caller did not author. The sweep is a side
// effect of reading; there is no separate mark-read endpoint.
func (s *Service) FetchThread(ctx context.Context, orderID, userID uuid.UUID) ([]models.Message, error) {
	if _, _, err := s.Authorize(ctx, orderID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.Messages.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal("failed to fetch messages", err)
	}
	now := time.Now()
	if _, err := s.Messages.MarkRead(ctx, orderID, userID, now); err != nil {
		// Reading still succeeds; the sweep retries on the next fetch.
		log.Printf("chat: marking messages read for order %s: %v", orderID, err)
	} else {
		for i := range msgs {
			if msgs[i].SenderID != userID && !msgs[i].Read {
				msgs[i].Read = true
				at := now
				msgs[i].ReadAt = &at
			}
		}
	}
	return msgs, nil
}

// Post validates, derives the sender side from the order record and persists
// the message. Sender identity fields are denormalized for display.
func (s *Service) Post(ctx context.Context, orderID, senderID uuid.UUID, text string, attachments []models.Attachment) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("message text is required")
	}
	o, party, err := s.Authorize(ctx, orderID, senderID)
	if err != nil {
		return nil, err
	}

	senderName := o.BuyerName
	if party == models.SenderSeller {
		senderName = o.SellerName
	}
	senderAvatar := ""
	if u, err := s.Users.Get(ctx, senderID); err == nil && u != nil {
		senderName = u.Name
		senderAvatar = u.Avatar
	}

	m := &models.Message{
		OrderID:      orderID,
		SenderID:     senderID,
		SenderName:   senderName,
		SenderType:   party,
		SenderAvatar: senderAvatar,
	}
	m.Text = text
	if len(attachments) > 0 {
		raw, err := json.Marshal(attachments)
		if err != nil {
			return nil, apperr.Validation("invalid attachments")
		}
		m.Attachments = datatypes.JSON(raw)
	}
	if err := s.Messages.Create(ctx, m); err != nil {
		return nil, apperr.Internal("failed to send message", err)
	}
	return m, nil
}
