// Package snapshot is an optional persistence side-channel for document
// sessions: it stores the latest document snapshot plus the trailing
// delta history so a reconnecting client can replay from a known version
// instead of requesting full state. The OT engine itself stays storage
// agnostic — nothing in internal/ot or internal/document depends on this
// package.
package snapshot

import "time"

// DocumentSnapshot is the latest known wire-form of a document, keyed by
// its external document id.
type DocumentSnapshot struct {
	ID        uint      `gorm:"primarykey"`
	DocID     string    `gorm:"uniqueIndex;not null"`
	Content   []byte    `gorm:"type:blob;not null"` // document.Document, wire-form JSON
	Version   int       `gorm:"not null"`
	UpdatedAt time.Time
}

func (DocumentSnapshot) TableName() string { return "document_snapshots" }

// DeltaRecord is one entry in a document's trailing delta history.
type DeltaRecord struct {
	ID            uint   `gorm:"primarykey"`
	DocID         string `gorm:"index;not null"`
	Sequence      int    `gorm:"not null"`
	Payload       []byte `gorm:"type:blob;not null"` // delta.Delta, JSON-encoded
	BaseVersion   int    `gorm:"not null"`
	ResultVersion int    `gorm:"not null"`
	ClientID      string
	CreatedAt     time.Time
}

func (DeltaRecord) TableName() string { return "delta_records" }
