package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/shared/metrics"
)

// LedgerStore implements ledger.Store on PostgreSQL. Entries are only
// ever inserted; there is no update path.
type LedgerStore struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

// NewLedgerStore creates a new ledger store.
func NewLedgerStore(db *gorm.DB, m *metrics.Metrics) *LedgerStore {
	return &LedgerStore{db: db, metrics: m}
}

// Transactions returns every ledger entry for a certificate code,
// oldest first.
func (s *LedgerStore) Transactions(ctx context.Context, code string) ([]*model.GiftCertificateTransaction, error) {
	defer s.observe("ledger_select", time.Now())

	var txs []*model.GiftCertificateTransaction
	err := s.db.WithContext(ctx).
		Where("certificate_code = ?", code).
		Order("created_at ASC").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	return txs, nil
}

// Append inserts one ledger entry.
func (s *LedgerStore) Append(ctx context.Context, tx *model.GiftCertificateTransaction) error {
	defer s.observe("ledger_insert", time.Now())

	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordLedgerEntry(string(tx.TransactionType))
	}
	return nil
}

func (s *LedgerStore) observe(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
