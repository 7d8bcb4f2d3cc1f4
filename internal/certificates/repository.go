package certificates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository stores the issued-certificate register
type Repository interface {
	CreateIssuance(ctx context.Context, issuance *Issuance) error
	GetIssuance(ctx context.Context, id uuid.UUID) (*Issuance, error)
	FindBySHA256(ctx context.Context, sum string) (*Issuance, error)
	ListIssuances(ctx context.Context, filter IssuanceFilter) ([]Issuance, int64, error)
	SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a Postgres-backed register and migrates its table
func NewGormRepository(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&Issuance{}); err != nil {
		return nil, fmt.Errorf("failed to migrate issuances: %w", err)
	}
	return &gormRepository{db: db}, nil
}

func (r *gormRepository) CreateIssuance(ctx context.Context, issuance *Issuance) error {
	return r.db.WithContext(ctx).Create(issuance).Error
}

func (r *gormRepository) GetIssuance(ctx context.Context, id uuid.UUID) (*Issuance, error) {
	var issuance Issuance
	err := r.db.WithContext(ctx).First(&issuance, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issuance, nil
}

func (r *gormRepository) FindBySHA256(ctx context.Context, sum string) (*Issuance, error) {
	var issuance Issuance
	err := r.db.WithContext(ctx).Where("sha256 = ?", sum).Order("issued_at DESC").First(&issuance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &issuance, nil
}

func (r *gormRepository) ListIssuances(ctx context.Context, filter IssuanceFilter) ([]Issuance, int64, error) {
	query := r.db.WithContext(ctx).Model(&Issuance{})
	if filter.TaxID != nil {
		query = query.Where("tax_id = ?", *filter.TaxID)
	}
	if filter.From != nil {
		query = query.Where("issued_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("issued_at < ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("issued_at DESC")
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var items []Issuance
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *gormRepository) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	result := r.db.WithContext(ctx).Model(&Issuance{}).Where("id = ?", id).Update("archive_key", key)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// memoryRepository keeps the register in process memory when no database is
// configured
type memoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]Issuance
}

// NewMemoryRepository creates an in-process register
func NewMemoryRepository() Repository {
	return &memoryRepository{items: make(map[uuid.UUID]Issuance)}
}

func (r *memoryRepository) CreateIssuance(ctx context.Context, issuance *Issuance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[issuance.ID]; exists {
		return fmt.Errorf("issuance %s already exists", issuance.ID)
	}
	r.items[issuance.ID] = *issuance
	return nil
}

func (r *memoryRepository) GetIssuance(ctx context.Context, id uuid.UUID) (*Issuance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issuance, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &issuance, nil
}

func (r *memoryRepository) FindBySHA256(ctx context.Context, sum string) (*Issuance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Issuance
	for _, issuance := range r.items {
		if issuance.SHA256 != sum {
			continue
		}
		if found == nil || issuance.IssuedAt.After(found.IssuedAt) {
			match := issuance
			found = &match
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *memoryRepository) ListIssuances(ctx context.Context, filter IssuanceFilter) ([]Issuance, int64, error) {
	r.mu.RLock()
	items := make([]Issuance, 0, len(r.items))
	for _, issuance := range r.items {
		if matches(issuance, filter) {
			items = append(items, issuance)
		}
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		return items[i].IssuedAt.After(items[j].IssuedAt)
	})

	total := int64(len(items))
	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PageSize
		if start > len(items) {
			start = len(items)
		}
		end := start + filter.PageSize
		if end > len(items) {
			end = len(items)
		}
		items = items[start:end]
	}
	return items, total, nil
}

func (r *memoryRepository) SetArchiveKey(ctx context.Context, id uuid.UUID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	issuance, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	issuance.ArchiveKey = &key
	r.items[id] = issuance
	return nil
}

func matches(issuance Issuance, filter IssuanceFilter) bool {
	if filter.TaxID != nil && issuance.TaxID != *filter.TaxID {
		return false
	}
	if filter.From != nil && issuance.IssuedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !issuance.IssuedAt.Before(*filter.To) {
		return false
	}
	return true
}

// monthRange returns the first instant of the month containing t and of the
// following month
func monthRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}
