package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/validation"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductInput is the writable part of a product. Nil fields are left untouched on update.
type ProductInput struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Available   *bool            `json:"available"`
	Store       *uint            `json:"store"`
}

// ProductFilter narrows a product listing. Zero values mean no filter.
type ProductFilter struct {
	StoreID uint
	Page    int
}

type ProductService struct {
	db     *gorm.DB
	engine *policy.Engine
	owners *policy.OwnershipResolver
}

func NewProductService(db *gorm.DB, engine *policy.Engine, owners *policy.OwnershipResolver) *ProductService {
	return &ProductService{db: db, engine: engine, owners: owners}
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) (*ListResult[models.Product], error) {
	q := s.db.Model(&models.Product{})
	if f.StoreID != 0 {
		q = q.Where("store_id = ?", f.StoreID)
	}
	return fetchPage[models.Product](ctx, q, f.Page, "id")
}

// Get returns a product; a non-zero storeID scopes the lookup to that store.
func (s *ProductService) Get(ctx context.Context, id, storeID uint) (*models.Product, error) {
	var p models.Product
	q := s.db.WithContext(ctx)
	if storeID != 0 {
		q = q.Where("store_id = ?", storeID)
	}
	if err := q.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product")
		}
		return nil, err
	}
	return &p, nil
}

func (s *ProductService) Create(ctx context.Context, who policy.Identity, in ProductInput) (*models.Product, error) {
	if in.Store == nil {
		return nil, apperr.InvalidField("store", "required")
	}
	target, err := s.targetStore(ctx, *in.Store)
	if err != nil {
		return nil, err
	}
	facts := policy.Facts{StoreID: target.StoreID, TargetStoreOwnerID: target.StoreOwnerID}
	if err := s.engine.Authorize(ctx, who, gate.ActionCreate, policy.ResourceProduct, facts); err != nil {
		return nil, err
	}
	p := models.Product{StoreID: target.StoreID, Available: true}
	applyProductInput(&p, in)
	if err := validateProduct(&p, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Update edits a product. Moving it to another store requires owning both stores.
func (s *ProductService) Update(ctx context.Context, who policy.Identity, id, storeID uint, in ProductInput) (*models.Product, error) {
	facts, err := s.owners.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	if storeID != 0 && facts.StoreID != storeID {
		return nil, apperr.NotFound("product")
	}
	if in.Store != nil && *in.Store != facts.StoreID {
		target, err := s.targetStore(ctx, *in.Store)
		if err != nil {
			return nil, err
		}
		facts.TargetStoreOwnerID = target.StoreOwnerID
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionUpdate, policy.ResourceProduct, facts); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	applyProductInput(p, in)
	if err := validateProduct(p, in); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-deletes a product; order items keep pointing at it.
func (s *ProductService) Delete(ctx context.Context, who policy.Identity, id, storeID uint) error {
	facts, err := s.owners.Product(ctx, id)
	if err != nil {
		return err
	}
	if storeID != 0 && facts.StoreID != storeID {
		return apperr.NotFound("product")
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionDelete, policy.ResourceProduct, facts); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (s *ProductService) targetStore(ctx context.Context, storeID uint) (policy.Facts, error) {
	f, err := s.owners.Store(ctx, storeID)
	if errors.Is(err, apperr.ErrNotFound) {
		return policy.Facts{}, apperr.InvalidField("store", "does_not_exist")
	}
	return f, err
}

func applyProductInput(p *models.Product, in ProductInput) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Available != nil {
		p.Available = *in.Available
	}
	if in.Store != nil {
		p.StoreID = *in.Store
	}
}

func validateProduct(p *models.Product, in ProductInput) error {
	v := make(validation.Violations)
	validation.Required("name", p.Name, v)
	validation.MaxLen("name", p.Name, 50, v)
	if p.ID == 0 && in.Price == nil {
		v.Add("price", "required")
	}
	validation.Price("price", p.Price, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}
