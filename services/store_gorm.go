package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// documentRow is the single table backing the document store: one JSON
// blob per (collection, doc_id). Filters are evaluated in memory after
// load, not pushed into SQL.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	DocID      string `gorm:"primaryKey;column:doc_id;size:255"`
	Data       []byte
	UpdatedAt  time.Time
}

func (documentRow) TableName() string {
	return "documents"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(dialector gorm.Dialector) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&documentRow{}); err != nil {
		log.Printf("Failed to migrate documents table: %v", err)
		return nil, err
	}

	return &GormStore{db: db}, nil
}

func postgresDialector() gorm.Dialector {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := os.Getenv("DB_HOST")
		if host == "" {
			host = "localhost"
		}
		port := os.Getenv("DB_PORT")
		if port == "" {
			port = "5432"
		}
		user := os.Getenv("DB_USER")
		if user == "" {
			user = "postgres"
		}
		password := os.Getenv("DB_PASSWORD")
		if password == "" {
			password = "postgres"
		}
		dbname := os.Getenv("DB_NAME")
		if dbname == "" {
			dbname = "tutor_api"
		}
		sslmode := os.Getenv("DB_SSLMODE")
		if sslmode == "" {
			sslmode = "disable"
		}

		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			host, user, password, dbname, port, sslmode)
	}
	return postgres.Open(dsn)
}

func (s *GormStore) Set(ctx context.Context, collection, docID string, data map[string]interface{}) error {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return err
	}

	row := documentRow{
		Collection: collection,
		DocID:      docID,
		Data:       raw,
		UpdatedAt:  time.Now().UTC(),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
		UpdateAll: true,
	}).Create(&row).Error
}

func (s *GormStore) Get(ctx context.Context, collection, docID string) (map[string]interface{}, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, docID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := sonic.Unmarshal(row.Data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update reads, merges and writes back. Callers serialize concurrent
// updates to the same document through the shared keyed mutexes.
func (s *GormStore) Update(ctx context.Context, collection, docID string, updates map[string]interface{}) error {
	doc, err := s.Get(ctx, collection, docID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	for k, v := range updates {
		doc[k] = v
	}
	return s.Set(ctx, collection, docID, doc)
}

func (s *GormStore) Delete(ctx context.Context, collection, docID string) error {
	return s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, docID).
		Delete(&documentRow{}).Error
}

func (s *GormStore) Query(ctx context.Context, collection string, filters []Filter) (map[string]map[string]interface{}, error) {
	all, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}

	out := map[string]map[string]interface{}{}
	for id, doc := range all {
		if matchesFilters(doc, filters) {
			out[id] = doc
		}
	}
	return out, nil
}

func (s *GormStore) GetAll(ctx context.Context, collection string) (map[string]map[string]interface{}, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := map[string]map[string]interface{}{}
	for _, row := range rows {
		var doc map[string]interface{}
		if err := sonic.Unmarshal(row.Data, &doc); err != nil {
			return nil, err
		}
		out[row.DocID] = doc
	}
	return out, nil
}
