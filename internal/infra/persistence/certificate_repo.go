package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/commercekit/payments/internal/domain/ledger"
	"github.com/commercekit/payments/internal/model"
	"github.com/commercekit/payments/internal/port/outbound"
)

// CertificateRepository loads and stores gift certificates.
type CertificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository creates a new certificate repository.
func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// FindByCode returns the certificate with the given code.
func (r *CertificateRepository) FindByCode(ctx context.Context, code string) (*model.GiftCertificate, error) {
	var cert model.GiftCertificate
	err := r.db.WithContext(ctx).First(&cert, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ledger.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &cert, nil
}

// Create inserts a new certificate.
func (r *CertificateRepository) Create(ctx context.Context, cert *model.GiftCertificate) error {
	if err := r.db.WithContext(ctx).Create(cert).Error; err != nil {
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.CertificateDatabasePort = (*CertificateRepository)(nil)
