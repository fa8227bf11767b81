package model

import "time"

type Project struct {
	ID          string `gorm:"primaryKey"`
	Key         string `gorm:"unique;not null;size:10"`
	Name        string `gorm:"not null;size:255"`
	Description string `gorm:"type:text"`
	OwnerID     string `gorm:"not null;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProjectMember struct {
	ProjectID string `gorm:"primaryKey"`
	UserID    string `gorm:"primaryKey;index"`
	Role      string `gorm:"not null;size:20"`
	CreatedAt time.Time
}

type Label struct {
	ID        string `gorm:"primaryKey"`
	ProjectID string `gorm:"not null;index"`
	Name      string `gorm:"not null;size:50"`
	Color     string `gorm:"size:7"`
	CreatedAt time.Time
}
