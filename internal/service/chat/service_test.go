package chat_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigmarket_backend/internal/apperr"
	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/service/chat"
	"gigmarket_backend/internal/store/memory"
)

type fixture struct {
	svc      *chat.Service
	messages *memory.MessageStore
	buyer    *models.User
	seller   *models.User
	order    *models.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{messages: memory.NewMessageStore()}
	orders := memory.NewOrderStore()
	users := memory.NewUserStore()
	f.svc = chat.NewService(f.messages, orders, users)

	ctx := context.Background()
	f.buyer = &models.User{Name: "Alice", Role: models.RoleClient, IsActive: true}
	require.NoError(t, users.Create(ctx, f.buyer))
	f.seller = &models.User{Name: "Bob", Role: models.RoleFreelancer, IsActive: true}
	require.NoError(t, users.Create(ctx, f.seller))

	f.order = &models.Order{
		GigID:      uuid.New(),
		BuyerID:    f.buyer.ID,
		BuyerName:  f.buyer.Name,
		SellerID:   f.seller.ID,
		SellerName: f.seller.Name,
		Status:     models.StatusConfirmed,
	}
	require.NoError(t, orders.Create(ctx, f.order))
	return f
}

func TestAuthorize_ResolvesParty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, party, err := f.svc.Authorize(ctx, f.order.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SenderBuyer, party)

	_, party, err = f.svc.Authorize(ctx, f.order.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SenderSeller, party)

	_, _, err = f.svc.Authorize(ctx, f.order.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, _, err = f.svc.Authorize(ctx, uuid.New(), f.buyer.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPost_DerivesSenderIdentity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	msg, err := f.svc.Post(ctx, f.order.ID, f.seller.ID, "  work has started  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "work has started", msg.Text, "text is trimmed")
	assert.Equal(t, models.SenderSeller, msg.SenderType)
	assert.Equal(t, "Bob", msg.SenderName)
	assert.False(t, msg.Read)
}

func TestPost_RejectsEmptyText(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Post(context.Background(), f.order.ID, f.buyer.ID, "   ", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestPost_OutsiderPersistsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Post(ctx, f.order.ID, uuid.New(), "let me in", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	msgs, err := f.messages.ListByOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPost_WithAttachments(t *testing.T) {
	f := newFixture(t)

	msg, err := f.svc.Post(context.Background(), f.order.ID, f.buyer.ID, "see the brief", []models.Attachment{
		{Name: "brief.pdf", URL: "/uploads/brief.pdf", Type: "application/pdf"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.Attachments)
}

func TestFetchThread_MarksOtherPartyMessagesRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Post(ctx, f.order.ID, f.buyer.ID, "hello", nil)
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, f.order.ID, f.seller.ID, "hi there", nil)
	require.NoError(t, err)

	// the seller reads: the buyer's message flips, the seller's own does not
	msgs, err := f.svc.FetchThread(ctx, f.order.ID, f.seller.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.True(t, msgs[0].Read)
	assert.NotNil(t, msgs[0].ReadAt)
	assert.False(t, msgs[1].Read, "a sender's own messages are untouched by their read sweep")

	// the sweep persisted, not just decorated the response
	stored, err := f.messages.ListByOrder(ctx, f.order.ID)
	require.NoError(t, err)
	assert.True(t, stored[0].Read)
	assert.False(t, stored[1].Read)
}

func TestFetchThread_OutsiderForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FetchThread(context.Background(), f.order.ID, uuid.New())
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}
