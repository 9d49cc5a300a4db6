package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Branch is a physical store. Administration of branches lives outside this
// service; the row exists so products, sales and movements have an owner.
type Branch struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Address   *string   `gorm:"size:255"`
	Phone     *string   `gorm:"size:20"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (b *Branch) BeforeCreate(_ *gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// assignID fills a zero primary key. Keys are generated client-side so the
// same models work on Postgres and SQLite.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
