// Package memory provides map-backed store implementations. They mirror the
// conditional-write semantics of the GORM stores closely enough to exercise
// the services without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"gigmarket_backend/internal/models"
	"gigmarket_backend/internal/store"
)

// --- orders ---

type OrderStore struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	seq    int // breaks created_at ties for deterministic ordering
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (s *OrderStore) Create(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	if o.CreatedAt.IsZero() {
		s.seq++
		o.CreatedAt = now.Add(time.Duration(s.seq) * time.Microsecond)
	}
	o.UpdatedAt = now
	cp := *o
	s.orders[o.ID] = &cp
	return nil
}

func (s *OrderStore) Get(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (s *OrderStore) List(_ context.Context, f store.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if f.BuyerID != nil && o.BuyerID != *f.BuyerID {
			continue
		}
		if f.SellerID != nil && o.SellerID != *f.SellerID {
			continue
		}
		if f.ParticipantID != nil && o.BuyerID != *f.ParticipantID && o.SellerID != *f.ParticipantID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.ExcludeStatus != nil && o.Status == *f.ExcludeStatus {
			continue
		}
		if f.Withdrawal != nil && o.WithdrawalRequested != *f.Withdrawal {
			continue
		}
		if f.HistoryOnly && o.Status != models.StatusCompleted &&
			o.CompletedAt == nil && o.ClientConfirmedCompletionAt == nil {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *OrderStore) UpdateWhere(_ context.Context, id uuid.UUID, conds map[string]any, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	for col, v := range conds {
		if !orderColumnEquals(o, col, v) {
			return false, nil
		}
	}
	for col, v := range fields {
		setOrderColumn(o, col, v)
	}
	o.UpdatedAt = time.Now()
	return true, nil
}

func (s *OrderStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.orders)), nil
}

func orderColumnEquals(o *models.Order, col string, v any) bool {
	switch col {
	case "status":
		return o.Status == v.(models.OrderStatus)
	case "withdrawal_requested":
		return o.WithdrawalRequested == v.(bool)
	case "withdrawal_status":
		return o.WithdrawalStatus == v.(models.WithdrawalStatus)
	default:
		return false
	}
}

func setOrderColumn(o *models.Order, col string, v any) {
	switch col {
	case "status":
		o.Status = v.(models.OrderStatus)
	case "requirements":
		o.Requirements = v.(string)
	case "payment_screenshot":
		o.PaymentScreenshot = v.(string)
	case "payment_uploaded_at":
		o.PaymentUploadedAt = timePtr(v)
	case "payment_verified_at":
		o.PaymentVerifiedAt = timePtr(v)
	case "completed_at":
		o.CompletedAt = timePtr(v)
	case "client_confirmed_completion_at":
		o.ClientConfirmedCompletionAt = timePtr(v)
	case "withdrawal_requested":
		o.WithdrawalRequested = v.(bool)
	case "withdrawal_status":
		o.WithdrawalStatus = v.(models.WithdrawalStatus)
	case "withdrawal_requested_at":
		o.WithdrawalRequestedAt = timePtr(v)
	case "withdrawal_processed_at":
		o.WithdrawalProcessedAt = timePtr(v)
	}
}

func timePtr(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	default:
		return nil
	}
}

// --- users ---

type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func NewUserStore() *UserStore { return &UserStore{users: make(map[uuid.UUID]*models.User)} }

func (s *UserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *UserStore) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Email != nil && *u.Email == email })
}

func (s *UserStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (s *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Username != nil && *u.Username == username })
}

func (s *UserStore) FirstAdmin(_ context.Context) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.Role == models.RoleAdmin })
}

func (s *UserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *UserStore) ListByRole(_ context.Context, role models.Role) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *UserStore) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.UpdatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *UserStore) CountByRole(_ context.Context, role models.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, u := range s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// --- messages ---

type MessageStore struct {
	mu   sync.Mutex
	msgs []*models.Message
	seq  int
}

func NewMessageStore() *MessageStore { return &MessageStore{} }

func (s *MessageStore) Create(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		s.seq++
		m.CreatedAt = time.Now().Add(time.Duration(s.seq) * time.Microsecond)
	}
	cp := *m
	s.msgs = append(s.msgs, &cp)
	return nil
}

func (s *MessageStore) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Message
	for _, m := range s.msgs {
		if m.OrderID == orderID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MessageStore) MarkRead(_ context.Context, orderID, excludeSender uuid.UUID, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.msgs {
		if m.OrderID == orderID && m.SenderID != excludeSender && !m.Read {
			m.Read = true
			t := at
			m.ReadAt = &t
			n++
		}
	}
	return n, nil
}

// --- payment details ---

type PaymentDetailStore struct {
	mu      sync.Mutex
	details map[uuid.UUID]*models.PaymentDetail // keyed by user id
}

func NewPaymentDetailStore() *PaymentDetailStore {
	return &PaymentDetailStore{details: make(map[uuid.UUID]*models.PaymentDetail)}
}

func (s *PaymentDetailStore) Upsert(_ context.Context, d *models.PaymentDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if existing, ok := s.details[d.UserID]; ok {
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
	} else {
		if d.ID == uuid.Nil {
			d.ID = uuid.New()
		}
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	cp := *d
	s.details[d.UserID] = &cp
	return nil
}

func (s *PaymentDetailStore) GetByUser(_ context.Context, userID uuid.UUID) (*models.PaymentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[userID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *PaymentDetailStore) List(_ context.Context) ([]models.PaymentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentDetail
	for _, d := range s.details {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// --- gigs ---

type GigStore struct {
	mu   sync.Mutex
	gigs map[uuid.UUID]*models.Gig
}

func NewGigStore() *GigStore { return &GigStore{gigs: make(map[uuid.UUID]*models.Gig)} }

func (s *GigStore) Put(g *models.Gig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	cp := *g
	s.gigs[g.ID] = &cp
}

func (s *GigStore) Get(_ context.Context, id uuid.UUID) (*models.Gig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.gigs[id]
	if !ok {
		return nil, nil
	}
	cp := *g
	return &cp, nil
}

func (s *GigStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.gigs)), nil
}
