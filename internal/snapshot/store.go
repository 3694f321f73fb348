package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inkwell/internal/delta"
	"inkwell/internal/document"
)

// MaxHistory bounds how many trailing DeltaRecords a document keeps.
const MaxHistory = 1000

// ErrNotFound is returned when a document has no stored snapshot.
var ErrNotFound = errors.New("snapshot: document not found")

// Store persists document snapshots and their trailing delta history in
// a SQLite database via gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if necessary) a SQLite-backed Store at dsn and
// runs AutoMigrate for both models.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", dsn, err)
	}
	if err := db.AutoMigrate(&DocumentSnapshot{}, &DeltaRecord{}); err != nil {
		return nil, fmt.Errorf("snapshot: automigrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveSnapshot upserts docID's latest wire-form content and version.
func (s *Store) SaveSnapshot(docID string, doc document.Document) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("snapshot: marshal document: %w", err)
	}

	row := DocumentSnapshot{DocID: docID, Content: content, Version: doc.Version}
	return s.db.Where(DocumentSnapshot{DocID: docID}).
		Assign(DocumentSnapshot{Content: content, Version: doc.Version}).
		FirstOrCreate(&row).Error
}

// LoadSnapshot returns docID's last saved document, or ErrNotFound if
// none has ever been saved.
func (s *Store) LoadSnapshot(docID string) (document.Document, error) {
	var row DocumentSnapshot
	err := s.db.Where("doc_id = ?", docID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return document.Document{}, ErrNotFound
	}
	if err != nil {
		return document.Document{}, fmt.Errorf("snapshot: load %s: %w", docID, err)
	}

	var doc document.Document
	if err := json.Unmarshal(row.Content, &doc); err != nil {
		return document.Document{}, fmt.Errorf("snapshot: unmarshal document: %w", err)
	}
	return doc, nil
}

// AppendDelta records d as the next entry in docID's history and trims
// anything older than MaxHistory entries.
func (s *Store) AppendDelta(docID string, d delta.Delta) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("snapshot: marshal delta: %w", err)
	}

	var lastSeq int
	s.db.Model(&DeltaRecord{}).Where("doc_id = ?", docID).
		Select("COALESCE(MAX(sequence), 0)").Scan(&lastSeq)

	record := DeltaRecord{
		DocID:         docID,
		Sequence:      lastSeq + 1,
		Payload:       payload,
		BaseVersion:   d.BaseVersion,
		ResultVersion: d.ResultVersion,
		ClientID:      d.ClientID,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("snapshot: append delta: %w", err)
	}

	return s.trimHistory(docID)
}

// trimHistory deletes the oldest DeltaRecords for docID beyond MaxHistory,
// keeping only the most recent ones.
func (s *Store) trimHistory(docID string) error {
	var count int64
	if err := s.db.Model(&DeltaRecord{}).Where("doc_id = ?", docID).Count(&count).Error; err != nil {
		return err
	}
	if count <= MaxHistory {
		return nil
	}

	var cutoff int
	excess := count - MaxHistory
	err := s.db.Model(&DeltaRecord{}).Where("doc_id = ?", docID).
		Order("sequence ASC").
		Limit(1).Offset(int(excess - 1)).
		Pluck("sequence", &cutoff).Error
	if err != nil {
		return err
	}

	return s.db.Where("doc_id = ? AND sequence <= ?", docID, cutoff).Delete(&DeltaRecord{}).Error
}

// DeltasSince returns every stored delta for docID with ResultVersion
// greater than sinceVersion, in application order — what a reconnecting
// client replays instead of requesting the full document.
func (s *Store) DeltasSince(docID string, sinceVersion int) ([]delta.Delta, error) {
	var records []DeltaRecord
	err := s.db.Where("doc_id = ? AND result_version > ?", docID, sinceVersion).
		Order("sequence ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("snapshot: deltas since %d: %w", sinceVersion, err)
	}

	deltas := make([]delta.Delta, 0, len(records))
	for _, r := range records {
		var d delta.Delta
		if err := json.Unmarshal(r.Payload, &d); err != nil {
			return nil, fmt.Errorf("snapshot: unmarshal delta seq %d: %w", r.Sequence, err)
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}
