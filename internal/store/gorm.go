package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigmarket_backend/internal/models"
)

// --- orders ---

type GormOrderStore struct{ DB *gorm.DB }

func NewGormOrderStore(db *gorm.DB) *GormOrderStore { return &GormOrderStore{DB: db} }

func (s *GormOrderStore) Create(ctx context.Context, o *models.Order) error {
	return s.DB.WithContext(ctx).Create(o).Error
}

func (s *GormOrderStore) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := s.DB.WithContext(ctx).First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *GormOrderStore) List(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.SellerID != nil {
		q = q.Where("seller_id = ?", *f.SellerID)
	}
	if f.ParticipantID != nil {
		q = q.Where("buyer_id = ? OR seller_id = ?", *f.ParticipantID, *f.ParticipantID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.ExcludeStatus != nil {
		q = q.Where("status <> ?", *f.ExcludeStatus)
	}
	if f.Withdrawal != nil {
		q = q.Where("withdrawal_requested = ?", *f.Withdrawal)
	}
	if f.HistoryOnly {
		q = q.Where("status = ? OR completed_at IS NOT NULL OR client_confirmed_completion_at IS NOT NULL",
			models.StatusCompleted)
	}
	var orders []models.Order
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *GormOrderStore) UpdateWhere(ctx context.Context, id uuid.UUID, conds map[string]any, fields map[string]any) (bool, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	for col, v := range conds {
		q = q.Where(col+" = ?", v)
	}
	res := q.Updates(fields)
	return res.RowsAffected > 0, res.Error
}

func (s *GormOrderStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Order{}).Count(&n).Error
	return n, err
}

// --- users ---

type GormUserStore struct{ DB *gorm.DB }

func NewGormUserStore(db *gorm.DB) *GormUserStore { return &GormUserStore{DB: db} }

func (s *GormUserStore) Create(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Create(u).Error
}

func (s *GormUserStore) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *GormUserStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	return s.first(ctx, "phone = ?", phone)
}

func (s *GormUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.first(ctx, "username = ?", username)
}

func (s *GormUserStore) FirstAdmin(ctx context.Context) (*models.User, error) {
	return s.first(ctx, "role = ?", models.RoleAdmin)
}

func (s *GormUserStore) first(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := s.DB.WithContext(ctx).First(&u, query, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *GormUserStore) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	err := s.DB.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at DESC").
		Find(&users).Error
	return users, err
}

func (s *GormUserStore) Save(ctx context.Context, u *models.User) error {
	return s.DB.WithContext(ctx).Save(u).Error
}

func (s *GormUserStore) CountByRole(ctx context.Context, role models.Role) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", role).Count(&n).Error
	return n, err
}

// --- messages ---

type GormMessageStore struct{ DB *gorm.DB }

func NewGormMessageStore(db *gorm.DB) *GormMessageStore { return &GormMessageStore{DB: db} }

func (s *GormMessageStore) Create(ctx context.Context, m *models.Message) error {
	return s.DB.WithContext(ctx).Create(m).Error
}

func (s *GormMessageStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&msgs).Error
	return msgs, err
}

func (s *GormMessageStore) MarkRead(ctx context.Context, orderID, excludeSender uuid.UUID, at time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("order_id = ? AND sender_id <> ? AND read = false", orderID, excludeSender).
		Updates(map[string]any{"read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

// --- payment details ---

type GormPaymentDetailStore struct{ DB *gorm.DB }

func NewGormPaymentDetailStore(db *gorm.DB) *GormPaymentDetailStore {
	return &GormPaymentDetailStore{DB: db}
}

func (s *GormPaymentDetailStore) Upsert(ctx context.Context, d *models.PaymentDetail) error {
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"payment_method", "account_number", "account_holder_name",
			"bank_account_name", "bank_name", "branch_code", "iban_number", "updated_at",
		}),
	}).Create(d).Error
}

func (s *GormPaymentDetailStore) GetByUser(ctx context.Context, userID uuid.UUID) (*models.PaymentDetail, error) {
	var d models.PaymentDetail
	err := s.DB.WithContext(ctx).First(&d, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *GormPaymentDetailStore) List(ctx context.Context) ([]models.PaymentDetail, error) {
	var details []models.PaymentDetail
	err := s.DB.WithContext(ctx).Order("updated_at DESC").Find(&details).Error
	return details, err
}

// --- gigs ---

type GormGigStore struct{ DB *gorm.DB }

func NewGormGigStore(db *gorm.DB) *GormGigStore { return &GormGigStore{DB: db} }

func (s *GormGigStore) Get(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var g models.Gig
	err := s.DB.WithContext(ctx).First(&g, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GormGigStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Gig{}).Count(&n).Error
	return n, err
}
