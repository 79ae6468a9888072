package gormstore

import "time"

// documentModel is the documents table row.
type documentModel struct {
	ID        string    `gorm:"primaryKey;size:64"`
	Filename  string    `gorm:"size:512;not null"`
	Format    string    `gorm:"size:16;not null"`
	Title     string    `gorm:"size:512"`
	Metadata  string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index;not null"`
}

func (documentModel) TableName() string { return "documents" }

// turnModel is the turns table row.
type turnModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	SessionID string    `gorm:"size:64;index:idx_turns_session;not null"`
	Question  string    `gorm:"type:text;not null"`
	Answer    string    `gorm:"type:text;not null"`
	Model     string    `gorm:"size:128"`
	CreatedAt time.Time `gorm:"not null"`
}

func (turnModel) TableName() string { return "turns" }
