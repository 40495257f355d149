package model

import "time"

// User is an account identified only by its email address. There is no
// password; sign-in happens through one-time email links.
type User struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Email       string     `json:"email" gorm:"size:255;uniqueIndex;not null"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName keeps the table name explicit rather than relying on GORM
// pluralization.
func (User) TableName() string {
	return "users"
}
