package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/internal/policy"
	"github.com/diewo77/go-marketplace/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

// UserInput is the signup and profile payload. Nil fields are left untouched on update.
type UserInput struct {
	Email       *string `json:"email"`
	Username    *string `json:"username"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
}

type UserService struct {
	db         *gorm.DB
	engine     *policy.Engine
	identities *policy.IdentityResolver
}

func NewUserService(db *gorm.DB, engine *policy.Engine, identities *policy.IdentityResolver) *UserService {
	return &UserService{db: db, engine: engine, identities: identities}
}

// Signup registers a customer account.
func (s *UserService) Signup(ctx context.Context, in UserInput) (*models.User, error) {
	if err := s.engine.Authorize(ctx, policy.Anonymous(""), gate.ActionCreate, policy.ResourceUser, policy.Facts{}); err != nil {
		return nil, err
	}
	var u models.User
	if err := s.apply(&u, in, true); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, &u); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) Get(ctx context.Context, who policy.Identity, id uint) (*models.User, error) {
	if err := s.engine.Authorize(ctx, who, gate.ActionView, policy.ResourceUser, policy.Facts{UserID: id}); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Update edits a profile and drops the cached identity of that user.
func (s *UserService) Update(ctx context.Context, who policy.Identity, id uint, in UserInput) (*models.User, error) {
	if err := s.engine.Authorize(ctx, who, gate.ActionUpdate, policy.ResourceUser, policy.Facts{UserID: id}); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(u, in, false); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, u); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(u).Error; err != nil {
		return nil, err
	}
	s.identities.Invalidate(id)
	return u, nil
}

// Authenticate checks an e-mail and password pair.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.TrimSpace(email)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, gate.Unauthenticated("No active account found with the given credentials")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, gate.Unauthenticated("No active account found with the given credentials")
	}
	return &u, nil
}

// CreateSuperuser creates a staff superuser account, used by the CLI.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*models.User, error) {
	u := models.User{IsStaff: true, IsSuperuser: true}
	if err := s.apply(&u, UserInput{Email: &email, Password: &password}, true); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, &u); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) apply(u *models.User, in UserInput, creating bool) error {
	v := make(validation.Violations)
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
	validation.Required("email", u.Email, v)
	validation.MaxLen("email", u.Email, 254, v)
	validation.Email("email", u.Email, v)

	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			u.Username = nil
		} else {
			u.Username = &name
			validation.MaxLen("username", name, 50, v)
		}
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = *in.PhoneNumber
		validation.MaxLen("phone_number", u.PhoneNumber, 10, v)
	}

	switch {
	case in.Password != nil:
		if utf8.RuneCountInString(*in.Password) < minPasswordLen {
			v.Add("password", "too_short")
			break
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
	case creating:
		v.Add("password", "required")
	}

	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

func (s *UserService) ensureUnique(ctx context.Context, u *models.User) error {
	var n int64
	q := s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("email = ?", u.Email)
	if u.ID != 0 {
		q = q.Where("id <> ?", u.ID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("email_taken", "A user with that email already exists.")
	}
	if u.Username == nil {
		return nil
	}
	q = s.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("username = ?", *u.Username)
	if u.ID != 0 {
		q = q.Where("id <> ?", u.ID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("username_taken", "A user with that username already exists.")
	}
	return nil
}
