package db

import (
	"errors"
	"fmt"
	"os"

	"github.com/diewo77/go-marketplace/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is the shape of a seed file.
type Fixtures struct {
	Users  []UserFixture  `yaml:"users"`
	Stores []StoreFixture `yaml:"stores"`
}

type UserFixture struct {
	Email       string `yaml:"email"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	PhoneNumber string `yaml:"phone_number"`
	IsSeller    bool   `yaml:"is_seller"`
	IsStaff     bool   `yaml:"is_staff"`
	IsSuperuser bool   `yaml:"is_superuser"`
}

type StoreFixture struct {
	Name        string           `yaml:"name"`
	Address     string           `yaml:"address"`
	PhoneNumber string           `yaml:"phone_number"`
	Email       string           `yaml:"email"`
	Owner       string           `yaml:"owner"` // owner e-mail
	Products    []ProductFixture `yaml:"products"`
}

type ProductFixture struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Available   *bool  `yaml:"available"`
}

// LoadFixtures parses a YAML seed file.
func LoadFixtures(path string) (*Fixtures, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f Fixtures
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &f, nil
}

// Seed inserts the fixtures. It is idempotent: users are matched by e-mail,
// stores by name and owner, products by name and store.
func Seed(conn *gorm.DB, f *Fixtures) error {
	return conn.Transaction(func(tx *gorm.DB) error {
		owners := make(map[string]uint, len(f.Users))
		for _, uf := range f.Users {
			u, err := seedUser(tx, uf)
			if err != nil {
				return err
			}
			owners[u.Email] = u.ID
		}
		for _, sf := range f.Stores {
			ownerID, ok := owners[sf.Owner]
			if !ok {
				var u models.User
				if err := tx.Where("email = ?", sf.Owner).First(&u).Error; err != nil {
					return fmt.Errorf("store %q: unknown owner %q", sf.Name, sf.Owner)
				}
				ownerID = u.ID
			}
			if err := seedStore(tx, sf, ownerID); err != nil {
				return err
			}
		}
		return nil
	})
}

func seedUser(tx *gorm.DB, uf UserFixture) (*models.User, error) {
	var existing models.User
	err := tx.Where("email = ?", uf.Email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(uf.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Email:       uf.Email,
		PhoneNumber: uf.PhoneNumber,
		Password:    string(hash),
		IsSeller:    uf.IsSeller,
		IsStaff:     uf.IsStaff,
		IsSuperuser: uf.IsSuperuser,
	}
	if uf.Username != "" {
		name := uf.Username
		u.Username = &name
	}
	if err := tx.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("seed user %s: %w", uf.Email, err)
	}
	return &u, nil
}

func seedStore(tx *gorm.DB, sf StoreFixture, ownerID uint) error {
	var store models.Store
	err := tx.Where("name = ? AND owner_id = ?", sf.Name, ownerID).First(&store).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		store = models.Store{Name: sf.Name, Address: sf.Address, PhoneNumber: sf.PhoneNumber, Email: sf.Email, OwnerID: ownerID}
		if err := tx.Create(&store).Error; err != nil {
			return fmt.Errorf("seed store %s: %w", sf.Name, err)
		}
	} else if err != nil {
		return err
	}

	for _, pf := range sf.Products {
		var count int64
		tx.Model(&models.Product{}).Where("name = ? AND store_id = ?", pf.Name, store.ID).Count(&count)
		if count > 0 {
			continue
		}
		price, err := decimal.NewFromString(pf.Price)
		if err != nil {
			return fmt.Errorf("product %s: bad price %q", pf.Name, pf.Price)
		}
		available := true
		if pf.Available != nil {
			available = *pf.Available
		}
		p := models.Product{Name: pf.Name, Description: pf.Description, Price: price, Available: available, StoreID: store.ID}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("seed product %s: %w", pf.Name, err)
		}
	}
	return nil
}
