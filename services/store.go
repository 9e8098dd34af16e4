package services

import (
	"context"
	"fmt"
	"os"

	appContext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"

	"github.com/little-lingo/tutor_api/shared"
)

// Filter is one predicate of a document query. Comparisons against numeric
// values coerce both sides to float64; everything else compares as strings.
type Filter struct {
	Field string
	Op    string
	Value interface{}
}

// DocumentStore is the persistence contract every domain service talks to.
// Get returns (nil, nil) when the document does not exist; callers turn
// that into their own not-found error.
type DocumentStore interface {
	Set(ctx context.Context, collection, docID string, data map[string]interface{}) error
	Get(ctx context.Context, collection, docID string) (map[string]interface{}, error)
	Update(ctx context.Context, collection, docID string, updates map[string]interface{}) error
	Delete(ctx context.Context, collection, docID string) error
	Query(ctx context.Context, collection string, filters []Filter) (map[string]map[string]interface{}, error)
	GetAll(ctx context.Context, collection string) (map[string]map[string]interface{}, error)
}

type StoreService struct {
	appContext.DefaultService

	store DocumentStore
	locks *shared.KeyedMutex

	driver string
}

const STORE_SVC = "store_svc"

func (svc StoreService) Id() string {
	return STORE_SVC
}

func (svc *StoreService) Store() DocumentStore {
	return svc.store
}

// Locks returns the per-document mutex set shared by every service doing
// read-modify-write cycles against the store.
func (svc *StoreService) Locks() *shared.KeyedMutex {
	return svc.locks
}

func (svc *StoreService) Configure(ctx *appContext.Context) error {
	svc.driver = os.Getenv("DOCSTORE_DRIVER")
	if svc.driver == "" {
		svc.driver = "memory"
	}
	svc.locks = shared.NewKeyedMutex()

	return svc.DefaultService.Configure(ctx)
}

// Start opens the configured backend. The driver is chosen once at boot;
// there is no per-call fallback between backends.
func (svc *StoreService) Start() (err error) {
	switch svc.driver {
	case "memory":
		svc.store = NewMemoryStore()
	case "sqlite":
		database := os.Getenv("DB_DATABASE")
		if database == "" {
			database = "tutor_api.db"
		}
		svc.store, err = NewGormStore(sqlite.Open(database))
	case "postgres":
		svc.store, err = NewGormStore(postgresDialector())
	default:
		return fmt.Errorf("unknown document store driver: %s", svc.driver)
	}
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"driver": svc.driver}).Info("Document store ready")
	return nil
}

func (svc *StoreService) Shutdown() {
}

// matchesFilters evaluates every predicate against the document; a missing
// field fails the filter.
func matchesFilters(doc map[string]interface{}, filters []Filter) bool {
	for _, f := range filters {
		val, ok := doc[f.Field]
		if !ok {
			return false
		}
		cmp, comparable := compareValues(val, f.Value)
		if !comparable {
			return false
		}
		switch f.Op {
		case "==":
			if cmp != 0 {
				return false
			}
		case "!=":
			if cmp == 0 {
				return false
			}
		case ">":
			if cmp <= 0 {
				return false
			}
		case ">=":
			if cmp < 0 {
				return false
			}
		case "<":
			if cmp >= 0 {
				return false
			}
		case "<=":
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func compareValues(a, b interface{}) (int, bool) {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		}
		return 0, true
	}

	ab, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		if ab == bb {
			return 0, true
		}
		return 1, true
	}

	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// copyDocument deep-copies via a sonic round-trip so callers can never
// mutate stored state through a returned map.
func copyDocument(doc map[string]interface{}) map[string]interface{} {
	raw, err := sonic.Marshal(doc)
	if err != nil {
		return nil
	}
	var out map[string]interface{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
