package services

import (
	"context"
	"errors"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/validation"
	"gorm.io/gorm"
)

// StoreInput is the writable part of a store. Nil fields are left untouched on update.
type StoreInput struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Owner       *uint   `json:"owner"`
}

type StoreService struct {
	db     *gorm.DB
	engine *policy.Engine
	owners *policy.OwnershipResolver
}

func NewStoreService(db *gorm.DB, engine *policy.Engine, owners *policy.OwnershipResolver) *StoreService {
	return &StoreService{db: db, engine: engine, owners: owners}
}

func (s *StoreService) List(ctx context.Context, page int) (*ListResult[models.Store], error) {
	return fetchPage[models.Store](ctx, s.db.Model(&models.Store{}), page, "id")
}

func (s *StoreService) Get(ctx context.Context, id uint) (*models.Store, error) {
	var store models.Store
	if err := s.db.WithContext(ctx).First(&store, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("store")
		}
		return nil, err
	}
	return &store, nil
}

func (s *StoreService) Create(ctx context.Context, who policy.Identity, in StoreInput) (*models.Store, error) {
	facts := policy.Facts{DeclaredOwnerID: deref(in.Owner)}
	if err := s.engine.Authorize(ctx, who, gate.ActionCreate, policy.ResourceStore, facts); err != nil {
		return nil, err
	}
	store := models.Store{OwnerID: who.UserID}
	applyStoreInput(&store, in)
	if err := validateStore(&store); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// Update edits a store. Ownership cannot be transferred through the API.
func (s *StoreService) Update(ctx context.Context, who policy.Identity, id uint, in StoreInput) (*models.Store, error) {
	facts, err := s.owners.Store(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionUpdate, policy.ResourceStore, facts); err != nil {
		return nil, err
	}
	if in.Owner != nil && *in.Owner != facts.StoreOwnerID {
		return nil, apperr.InvalidField("owner", "read_only")
	}
	store, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStoreInput(store, in)
	if err := validateStore(store); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(store).Error; err != nil {
		return nil, err
	}
	return store, nil
}

// Delete always ends in a denial for existing stores; it exists so the API
// answers with the policy reason instead of a missing route.
func (s *StoreService) Delete(ctx context.Context, who policy.Identity, id uint) error {
	facts, err := s.owners.Store(ctx, id)
	if err != nil {
		return err
	}
	if err := s.engine.Authorize(ctx, who, gate.ActionDelete, policy.ResourceStore, facts); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.Store{}, id).Error
}

func applyStoreInput(store *models.Store, in StoreInput) {
	if in.Name != nil {
		store.Name = *in.Name
	}
	if in.Address != nil {
		store.Address = *in.Address
	}
	if in.PhoneNumber != nil {
		store.PhoneNumber = *in.PhoneNumber
	}
	if in.Email != nil {
		store.Email = *in.Email
	}
}

func validateStore(store *models.Store) error {
	v := make(validation.Violations)
	validation.Required("name", store.Name, v)
	validation.MaxLen("name", store.Name, 50, v)
	validation.Required("email", store.Email, v)
	validation.MaxLen("email", store.Email, 50, v)
	validation.Email("email", store.Email, v)
	validation.MaxLen("address", store.Address, 50, v)
	validation.MaxLen("phone_number", store.PhoneNumber, 10, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}
