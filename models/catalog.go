package models

import (
	"time"

	"github.com/lib/pq"
)

// Question is a reusable question template.
type Question struct {
	Base
	Title        string         `gorm:"not null" json:"title"`
	Body         string         `gorm:"type:text;not null" json:"body"`
	Tags         pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"` // behavioral, system_design, algorithms...
	Difficulty   *string        `json:"difficulty,omitempty"`
	SampleAnswer *string        `gorm:"type:text" json:"sample_answer,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}

// Resource is a course, book or article suggested in feedback.
type Resource struct {
	Base
	Title     string         `gorm:"not null" json:"title"`
	URL       string         `gorm:"column:url;type:text;not null" json:"url"`
	Type      *string        `json:"type,omitempty"` // course/book/article
	Tags      pq.StringArray `gorm:"type:text[]" json:"tags,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (Resource) TableName() string {
	return "resources"
}
