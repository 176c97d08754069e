// Package order owns the order lifecycle: payment upload, admin
// verification, completion, client confirmation and the withdrawal
// sub-state machine. Every transition is a conditional write keyed on the
// expected current state, so concurrent conflicting transitions cannot
// interleave a stale read-modify-write.
package order

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"gigmarket_backend/internal/apperr"
	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/store"
)

type Service struct {
	Orders         store.OrderStore
	Users          store.UserStore
	Gigs           store.GigStore
	PaymentDetails store.PaymentDetailStore
}

func NewService(orders store.OrderStore, users store.UserStore, gigs store.GigStore, details store.PaymentDetailStore) *Service {
	return &Service{Orders: orders, Users: users, Gigs: gigs, PaymentDetails: details}
}

type CreateInput struct {
	GigID             uuid.UUID
	GigTitle          string
	SellerID          uuid.UUID
	Package           string
	Amount            float64
	Requirements      string
	DeliveryTime      int
	PaymentScreenshot string
}

// Create persists a new order for the buyer. Initial status depends on
// whether a payment screenshot came with the request.
func (s *Service) Create(ctx context.Context, buyer *models.User, in CreateInput) (*models.Order, error) {
	if in.GigID == uuid.Nil {
		return nil, apperr.Validation("gig id is required")
	}
	if in.SellerID == uuid.Nil {
		return nil, apperr.Validation("seller id is required")
	}
	if in.Amount <= 0 {
		return nil, apperr.Validation("amount is required")
	}
	if in.SellerID == buyer.ID {
		return nil, apperr.Validation("buyer and seller cannot be the same user")
	}

	sellerName := "Seller"
	if seller, err := s.Users.Get(ctx, in.SellerID); err == nil && seller != nil {
		sellerName = seller.Name
	}
	gigTitle := in.GigTitle
	if gigTitle == "" {
		gigTitle = "Gig Order"
		if gig, err := s.Gigs.Get(ctx, in.GigID); err == nil && gig != nil {
			gigTitle = gig.Title
		}
	}
	pkg := in.Package
	if pkg == "" {
		pkg = "standard"
	}

	o := &models.Order{
		GigID:        in.GigID,
		GigTitle:     gigTitle,
		BuyerID:      buyer.ID,
		BuyerName:    buyer.Name,
		SellerID:     in.SellerID,
		SellerName:   sellerName,
		Package:      pkg,
		Amount:       in.Amount,
		Requirements: in.Requirements,
		DeliveryTime: in.DeliveryTime,
		Status:       models.StatusPendingPayment,
	}
	if in.PaymentScreenshot != "" {
		now := time.Now()
		o.Status = models.StatusPendingVerify
		o.PaymentScreenshot = in.PaymentScreenshot
		o.PaymentUploadedAt = &now
	}
	if err := s.Orders.Create(ctx, o); err != nil {
		return nil, apperr.Internal("failed to create order", err)
	}
	return o, nil
}

// Get returns the order if the acting user is one of its parties.
func (s *Service) Get(ctx context.Context, id, actingUserID uuid.UUID) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := o.ParticipantType(actingUserID); !ok {
		return nil, apperr.Forbidden("you are not authorized to view this order")
	}
	return o, nil
}

// ListForUser returns the user's orders, optionally narrowed to one side.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, role string) ([]models.Order, error) {
	f := store.OrderFilter{}
	switch role {
	case "buyer":
		f.BuyerID = &userID
	case "seller":
		f.SellerID = &userID
	default:
		f.ParticipantID = &userID
	}
	orders, err := s.Orders.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal("failed to fetch orders", err)
	}
	return orders, nil
}

// ListSellerQueue is the seller's working view. Orders awaiting payment
// verification are excluded by construction: a seller never sees an order
// until an admin has confirmed the buyer's payment.
func (s *Service) ListSellerQueue(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	pendingVerify := models.StatusPendingVerify
	orders, err := s.Orders.List(ctx, store.OrderFilter{
		SellerID:      &sellerID,
		ExcludeStatus: &pendingVerify,
	})
	if err != nil {
		return nil, apperr.Internal("failed to fetch seller orders", err)
	}
	return orders, nil
}

// ListWithdrawalEligible returns the seller's completed orders that have no
// open or approved withdrawal yet.
func (s *Service) ListWithdrawalEligible(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	completed := models.StatusCompleted
	notRequested := false
	orders, err := s.Orders.List(ctx, store.OrderFilter{
		SellerID:   &sellerID,
		Status:     &completed,
		Withdrawal: &notRequested,
	})
	if err != nil {
		return nil, apperr.Internal("failed to fetch orders", err)
	}
	// A rejected withdrawal resets the request flag, so those orders
	// reappear here; approved ones keep the flag and stay out.
	return orders, nil
}

type UpdateInput struct {
	Requirements      *string
	PaymentScreenshot *string
	Status            *string
	ConfirmCompletion bool
}

// Update applies the per-party field whitelist. Anything outside it is
// rejected rather than merged through.
func (s *Service) Update(ctx context.Context, id, actingUserID uuid.UUID, in UpdateInput) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	party, ok := o.ParticipantType(actingUserID)
	if !ok {
		return nil, apperr.Forbidden("you are not authorized to update this order")
	}
	now := time.Now()

	if in.ConfirmCompletion {
		if party != models.SenderBuyer {
			return nil, apperr.Forbidden("only the buyer can confirm completion")
		}
		ok, err := s.Orders.UpdateWhere(ctx, id,
			map[string]any{"status": models.StatusCompleted},
			map[string]any{"client_confirmed_completion_at": now})
		if err != nil {
			return nil, apperr.Internal("failed to update order", err)
		}
		if !ok {
			return nil, apperr.InvalidState("order must be completed by seller before client can confirm")
		}
	}

	if in.PaymentScreenshot != nil {
		if party != models.SenderBuyer {
			return nil, apperr.Forbidden("only the buyer can upload a payment screenshot")
		}
		if *in.PaymentScreenshot == "" {
			return nil, apperr.Validation("payment screenshot is required")
		}
		// Attaching proof moves the order into the admin verification queue.
		ok, err := s.Orders.UpdateWhere(ctx, id,
			map[string]any{"status": models.StatusPendingPayment},
			map[string]any{
				"payment_screenshot":  *in.PaymentScreenshot,
				"payment_uploaded_at": now,
				"status":              models.StatusPendingVerify,
			})
		if err != nil {
			return nil, apperr.Internal("failed to update order", err)
		}
		if !ok {
			return nil, apperr.InvalidState("payment proof can only be attached while the order is pending payment")
		}
	}

	if in.Requirements != nil {
		if party != models.SenderBuyer {
			return nil, apperr.Forbidden("only the buyer can edit requirements")
		}
		if _, err := s.Orders.UpdateWhere(ctx, id, nil,
			map[string]any{"requirements": *in.Requirements}); err != nil {
			return nil, apperr.Internal("failed to update order", err)
		}
	}

	if in.Status != nil {
		if party != models.SenderSeller {
			return nil, apperr.Forbidden("only the seller can update the order status")
		}
		if models.OrderStatus(*in.Status) != models.StatusCompleted {
			return nil, apperr.Validation("sellers may only mark an order as Completed")
		}
		ok, err := s.Orders.UpdateWhere(ctx, id,
			map[string]any{"status": models.StatusConfirmed},
			map[string]any{"status": models.StatusCompleted, "completed_at": now})
		if err != nil {
			return nil, apperr.Internal("failed to update order", err)
		}
		if !ok {
			return nil, apperr.InvalidState("only payment-confirmed orders can be completed")
		}
	}

	return s.load(ctx, id)
}

// VerifyPayment is the admin gate that makes an order visible to the seller.
// A rejection deliberately leaves the order in Payment pending verify so the
// proof can be re-reviewed; there is no rejected terminal state.
func (s *Service) VerifyPayment(ctx context.Context, id uuid.UUID, verified bool) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != models.StatusPendingVerify {
		return nil, apperr.InvalidState("order is not awaiting payment verification")
	}
	if !verified {
		return o, nil
	}
	now := time.Now()
	ok, err := s.Orders.UpdateWhere(ctx, id,
		map[string]any{"status": models.StatusPendingVerify},
		map[string]any{"status": models.StatusConfirmed, "payment_verified_at": now})
	if err != nil {
		return nil, apperr.Internal("failed to verify payment", err)
	}
	if !ok {
		return nil, apperr.InvalidState("order is not awaiting payment verification")
	}
	return s.load(ctx, id)
}

// RequestWithdrawal opens the withdrawal sub-state for a completed order.
func (s *Service) RequestWithdrawal(ctx context.Context, id, actingUserID uuid.UUID) (*models.Order, error) {
	o, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.SellerID != actingUserID {
		return nil, apperr.Forbidden("only the seller can request a withdrawal for this order")
	}
	if o.Status != models.StatusCompleted {
		return nil, apperr.InvalidState("only completed orders can have withdrawal requests")
	}
	now := time.Now()
	ok, err := s.Orders.UpdateWhere(ctx, id,
		map[string]any{"status": models.StatusCompleted, "withdrawal_requested": false},
		map[string]any{
			"withdrawal_requested":    true,
			"withdrawal_status":       models.WithdrawalPending,
			"withdrawal_requested_at": now,
		})
	if err != nil {
		return nil, apperr.Internal("failed to request withdrawal", err)
	}
	if !ok {
		return nil, apperr.InvalidState("withdrawal already requested for this order")
	}
	return s.load(ctx, id)
}

// ProcessWithdrawal settles a pending withdrawal. A rejection clears the
// request flag so the seller may re-request later.
func (s *Service) ProcessWithdrawal(ctx context.Context, id uuid.UUID, action string) (*models.Order, error) {
	if action != "approve" && action != "reject" {
		return nil, apperr.Validation("action must be approve or reject")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	now := time.Now()
	conds := map[string]any{
		"withdrawal_requested": true,
		"withdrawal_status":    models.WithdrawalPending,
	}
	fields := map[string]any{"withdrawal_processed_at": now}
	if action == "approve" {
		fields["withdrawal_status"] = models.WithdrawalApproved
	} else {
		fields["withdrawal_status"] = models.WithdrawalRejected
		fields["withdrawal_requested"] = false
	}
	ok, err := s.Orders.UpdateWhere(ctx, id, conds, fields)
	if err != nil {
		return nil, apperr.Internal("failed to process withdrawal", err)
	}
	if !ok {
		return nil, apperr.InvalidState("no pending withdrawal request on this order")
	}
	return s.load(ctx, id)
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return nil, apperr.Internal("failed to fetch order", err)
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}
	return o, nil
}

// SellerInfo is the display join for admin listings. Resolution failures
// degrade to a placeholder instead of failing the listing.
type SellerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

var unknownSeller = SellerInfo{Name: "Unknown Seller"}

func (s *Service) sellerInfo(ctx context.Context, sellerID uuid.UUID) SellerInfo {
	u, err := s.Users.Get(ctx, sellerID)
	if err != nil || u == nil {
		if err != nil {
			log.Printf("orders: resolving seller %s: %v", sellerID, err)
		}
		return unknownSeller
	}
	info := SellerInfo{ID: u.ID.String(), Name: u.Name, Avatar: u.Avatar}
	if u.Email != nil {
		info.Email = *u.Email
	}
	return info
}

type PendingVerificationItem struct {
	Order  models.Order `json:"order"`
	Seller SellerInfo   `json:"seller"`
}

// ListPendingVerification is the admin queue of orders with uploaded but
// unverified payment proofs.
func (s *Service) ListPendingVerification(ctx context.Context) ([]PendingVerificationItem, error) {
	pendingVerify := models.StatusPendingVerify
	orders, err := s.Orders.List(ctx, store.OrderFilter{Status: &pendingVerify})
	if err != nil {
		return nil, apperr.Internal("failed to fetch orders", err)
	}
	items := make([]PendingVerificationItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, PendingVerificationItem{Order: o, Seller: s.sellerInfo(ctx, o.SellerID)})
	}
	return items, nil
}

type WithdrawalItem struct {
	Order         models.Order          `json:"order"`
	Seller        SellerInfo            `json:"seller"`
	PaymentDetail *models.PaymentDetail `json:"payment_detail,omitempty"`
}

// ListWithdrawalRequests returns open withdrawal requests joined with the
// seller identity and payout details for the admin to act on.
func (s *Service) ListWithdrawalRequests(ctx context.Context) ([]WithdrawalItem, error) {
	requested := true
	orders, err := s.Orders.List(ctx, store.OrderFilter{Withdrawal: &requested})
	if err != nil {
		return nil, apperr.Internal("failed to fetch withdrawal requests", err)
	}
	items := make([]WithdrawalItem, 0, len(orders))
	for _, o := range orders {
		if o.WithdrawalStatus != models.WithdrawalPending {
			continue
		}
		item := WithdrawalItem{Order: o, Seller: s.sellerInfo(ctx, o.SellerID)}
		if d, err := s.PaymentDetails.GetByUser(ctx, o.SellerID); err == nil {
			item.PaymentDetail = d
		} else {
			log.Printf("orders: resolving payment detail for seller %s: %v", o.SellerID, err)
		}
		items = append(items, item)
	}
	return items, nil
}

type HistoryItem struct {
	Order           models.Order `json:"order"`
	SellerCompleted bool         `json:"seller_completed"`
	ClientConfirmed bool         `json:"client_confirmed"`
}

// History is the admin view of orders that reached completion by any signal.
func (s *Service) History(ctx context.Context) ([]HistoryItem, error) {
	orders, err := s.Orders.List(ctx, store.OrderFilter{HistoryOnly: true})
	if err != nil {
		return nil, apperr.Internal("failed to fetch order history", err)
	}
	items := make([]HistoryItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, HistoryItem{
			Order:           o,
			SellerCompleted: o.Status == models.StatusCompleted || o.CompletedAt != nil,
			ClientConfirmed: o.ClientConfirmedCompletionAt != nil,
		})
	}
	return items, nil
}
