package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// All lists every model managed by migrations.
func All() []any {
	return []any{
		&User{},
		&Strategy{},
		&BrokerCredential{},
		&Bot{},
		&Portfolio{},
		&Position{},
		&Evaluation{},
		&Trade{},
	}
}

// newID assigns a random identifier when the caller did not choose one.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// User owns bots, portfolios and trades. Accounts are managed by the hosted sign-in provider.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns an id
func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}
