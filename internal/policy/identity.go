package policy

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-marketplace/auth"
	"github.com/diewo77/go-marketplace/gate"
	"github.com/diewo77/go-marketplace/internal/apperr"
	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/diewo77/go-marketplace/validation"
	"gorm.io/gorm"
)

// Kind is the coarse class of a caller.
type Kind int

const (
	KindAnonymous Kind = iota
	KindCustomer
	KindSeller
	KindSuperuser
)

func (k Kind) String() string {
	switch k {
	case KindCustomer:
		return "customer"
	case KindSeller:
		return "seller"
	case KindSuperuser:
		return "superuser"
	default:
		return "anonymous"
	}
}

// Identity is the resolved caller of a request. Kind picks the most privileged
// class, while the raw flags stay available: a seller can also buy as a customer.
type Identity struct {
	Kind        Kind
	UserID      uint
	Email       string
	IsSeller    bool
	IsStaff     bool
	IsSuperuser bool
}

// Anonymous returns a guest identity carrying the e-mail the request supplied.
func Anonymous(email string) Identity {
	return Identity{Kind: KindAnonymous, Email: strings.TrimSpace(email)}
}

// FromUser builds the identity of an authenticated user.
func FromUser(u *models.User) Identity {
	id := Identity{
		Kind:        KindCustomer,
		UserID:      u.ID,
		Email:       u.Email,
		IsSeller:    u.IsSeller,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
	switch {
	case u.IsSuperuser:
		id.Kind = KindSuperuser
	case u.IsSeller:
		id.Kind = KindSeller
	}
	return id
}

// Authenticated reports whether the caller presented a valid token.
func (i Identity) Authenticated() bool { return i.Kind != KindAnonymous }

// RequireEmail rejects an anonymous caller that did not supply a usable e-mail.
func RequireEmail(id Identity, reason string) error {
	if id.Authenticated() {
		return nil
	}
	if id.Email == "" {
		return apperr.MissingIdentity(reason)
	}
	v := make(validation.Violations)
	validation.Email("customer_email", id.Email, v)
	if !v.Empty() {
		return apperr.Invalid(v)
	}
	return nil
}

// RequestEmail picks the guest e-mail from the decoded payload, then the
// customer_email query parameter, then the X-Customer-Email header.
func RequestEmail(r *http.Request, payload string) string {
	if e := strings.TrimSpace(payload); e != "" {
		return e
	}
	if e := strings.TrimSpace(r.URL.Query().Get("customer_email")); e != "" {
		return e
	}
	return strings.TrimSpace(r.Header.Get("X-Customer-Email"))
}

// IdentityResolver turns the authenticated user id of a request into an Identity.
// User rows are cached for a short TTL and invalidated on profile updates.
type IdentityResolver struct {
	users *gate.CachedResolver[uint, models.User]
}

func NewIdentityResolver(db *gorm.DB, ttl time.Duration) *IdentityResolver {
	load := gate.ResolverFunc[uint, models.User](func(ctx context.Context, id uint) (models.User, error) {
		var u models.User
		err := db.WithContext(ctx).First(&u, id).Error
		return u, err
	})
	return &IdentityResolver{users: gate.NewCachedResolver[uint, models.User](load, ttl)}
}

// Resolve returns the caller identity. email is only used for anonymous callers.
// A token whose user no longer exists yields an unauthenticated denial.
func (r *IdentityResolver) Resolve(ctx context.Context, email string) (Identity, error) {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return Anonymous(email), nil
	}
	u, err := r.users.Resolve(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Identity{}, gate.Unauthenticated("User not found.")
	}
	if err != nil {
		return Identity{}, err
	}
	return FromUser(&u), nil
}

// Invalidate drops the cached row of a user after their flags change.
func (r *IdentityResolver) Invalidate(userID uint) {
	r.users.Invalidate(userID)
}
