package model

import (
	"time"

	"gorm.io/gorm"
)

type Issue struct {
	ID          string `gorm:"primaryKey"`
	ProjectID   string `gorm:"not null;index"`
	Title       string `gorm:"not null;size:255"`
	Description string `gorm:"type:text"`
	Status      string `gorm:"not null;size:20;default:backlog"`
	Priority    string `gorm:"not null;size:20;default:medium"`
	ReporterID  string `gorm:"not null;index"`
	AssigneeID  *string
	Position    int `gorm:"not null;default:0"`

	// Last generated AI artifacts, one column per kind. Regeneration
	// overwrites in place; nil means never generated.
	AISummary        *string `gorm:"type:text"`
	AISuggestion     *string `gorm:"type:text"`
	AICommentSummary *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

type Comment struct {
	ID        string `gorm:"primaryKey"`
	IssueID   string `gorm:"not null;index"`
	AuthorID  string `gorm:"not null;index"`
	Body      string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Attachment struct {
	ID          string `gorm:"primaryKey"`
	IssueID     string `gorm:"not null;index"`
	UploaderID  string `gorm:"not null"`
	FileName    string `gorm:"not null;size:255"`
	ObjectName  string `gorm:"not null;size:512"`
	ContentType string `gorm:"size:100"`
	Size        int64
	CreatedAt   time.Time
}
