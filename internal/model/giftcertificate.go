package model

import (
	"time"

	"github.com/google/uuid"
)

// GiftCertificate is a stored-value certificate. Its balance is never
// stored; it is derived from the transaction log.
type GiftCertificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code           string    `gorm:"uniqueIndex;not null"`
	PurchaseAmount int64     // face value in cents
	Currency       string    `gorm:"default:usd"`
	CreatedAt      time.Time

	// Relations
	Transactions []*GiftCertificateTransaction `gorm:"foreignKey:CertificateCode;references:Code"`
}

// TableName returns the database table name.
func (GiftCertificate) TableName() string {
	return "gift_certificates"
}

// GiftCertificateTransaction is one append-only ledger entry against a
// certificate. Entries are never updated or deleted.
type GiftCertificateTransaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CertificateCode   string          `gorm:"not null;index"`
	TransactionType   TransactionType `gorm:"not null"`
	Amount            int64           // in cents
	AuthorizationCode string          `gorm:"index"`
	CreatedAt         time.Time
}

// TableName returns the database table name.
func (GiftCertificateTransaction) TableName() string {
	return "gift_certificate_transactions"
}
