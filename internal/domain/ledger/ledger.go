// Package ledger manages the gift certificate transaction log. A
// certificate's balance is never stored: it is derived from the
// append-only log on every read, so the log is the single source of
// truth and entries are never updated or deleted.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/commercekit/payments/internal/domain/money"
	"github.com/commercekit/payments/internal/infra/lock"
	"github.com/commercekit/payments/internal/model"
)

// Store persists ledger entries.
type Store interface {
	// Transactions returns every entry for a certificate code.
	Transactions(ctx context.Context, code string) ([]*model.GiftCertificateTransaction, error)
	// Append appends one entry. Entries are immutable once written.
	Append(ctx context.Context, tx *model.GiftCertificateTransaction) error
}

// CodeGenerator produces authorization codes for new reservations.
type CodeGenerator interface {
	Generate() string
}

// UUIDCodeGenerator generates random authorization codes.
type UUIDCodeGenerator struct{}

// Generate returns a new random authorization code.
func (UUIDCodeGenerator) Generate() string {
	return uuid.NewString()
}

// Service exposes balance queries and the mutating ledger operations.
// Every mutation requires a lock token for the certificate being
// changed; callers acquire it from a lock.Provider and hold it across
// the read-check-append sequence.
type Service struct {
	store  Store
	codes  CodeGenerator
	now    func() time.Time
	logger *zap.Logger
}

// NewService creates a ledger service.
func NewService(store Store, codes CodeGenerator, logger *zap.Logger) *Service {
	if codes == nil {
		codes = UUIDCodeGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		codes:  codes,
		now:    time.Now,
		logger: logger,
	}
}

// Balance derives the certificate's available balance from its log:
// face value minus everything still allocated by authorizations.
func (s *Service) Balance(ctx context.Context, cert *model.GiftCertificate) (money.Money, error) {
	txs, err := s.store.Transactions(ctx, cert.Code)
	if err != nil {
		return money.Money{}, err
	}
	return s.balance(cert, txs)
}

func (s *Service) balance(cert *model.GiftCertificate, txs []*model.GiftCertificateTransaction) (money.Money, error) {
	allocated := int64(0)
	for _, tx := range txs {
		if tx.TransactionType != model.TransactionAuthorization {
			continue
		}
		a, err := allocatedAmount(txs, tx)
		if err != nil {
			return money.Money{}, err
		}
		allocated += a
	}
	return money.New(cert.PurchaseAmount-allocated, cert.Currency), nil
}

// PreAuthorize reserves amount against the certificate and returns the
// new authorization entry. Fails with ErrInsufficientBalance when the
// derived balance cannot cover the amount.
func (s *Service) PreAuthorize(ctx context.Context, tok lock.Token, cert *model.GiftCertificate, amount money.Money) (*model.GiftCertificateTransaction, error) {
	if err := s.checkMutation(tok, cert, amount); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx, cert.Code)
	if err != nil {
		return nil, err
	}
	balance, err := s.balance(cert, txs)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(balance) > 0 {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			ErrInsufficientBalance, balance, amount)
	}

	entry := &model.GiftCertificateTransaction{
		ID:                uuid.New(),
		CertificateCode:   cert.Code,
		TransactionType:   model.TransactionAuthorization,
		Amount:            amount.Amount(),
		AuthorizationCode: s.codes.Generate(),
		CreatedAt:         s.now(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("gift certificate pre-authorized",
		zap.String("code", cert.Code),
		zap.String("authorization_code", entry.AuthorizationCode),
		zap.Int64("amount", entry.Amount))
	return entry, nil
}

// Capture settles amount against a prior authorization. The amount may
// be less than what was reserved but never more, and each authorization
// can be captured at most once.
func (s *Service) Capture(ctx context.Context, tok lock.Token, cert *model.GiftCertificate, authCode string, amount money.Money) (*model.GiftCertificateTransaction, error) {
	if err := s.checkMutation(tok, cert, amount); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx, cert.Code)
	if err != nil {
		return nil, err
	}
	auth, err := s.requireOpenAuthorization(txs, authCode)
	if err != nil {
		return nil, err
	}
	if amount.Amount() > auth.Amount {
		return nil, fmt.Errorf("%w: reserved %d, requested %d",
			ErrReservedAmountExceeded, auth.Amount, amount.Amount())
	}

	entry := &model.GiftCertificateTransaction{
		ID:                uuid.New(),
		CertificateCode:   cert.Code,
		TransactionType:   model.TransactionCapture,
		Amount:            amount.Amount(),
		AuthorizationCode: authCode,
		CreatedAt:         s.now(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("gift certificate captured",
		zap.String("code", cert.Code),
		zap.String("authorization_code", authCode),
		zap.Int64("amount", entry.Amount))
	return entry, nil
}

// ReversePreAuthorization releases a reservation in full. Partial
// reversal is not supported: the amount must equal the authorized
// amount. If the authorization was already captured, the release is
// recorded as a refund of the captured funds instead.
func (s *Service) ReversePreAuthorization(ctx context.Context, tok lock.Token, cert *model.GiftCertificate, authCode string, amount money.Money) (*model.GiftCertificateTransaction, error) {
	if err := s.checkMutation(tok, cert, amount); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx, cert.Code)
	if err != nil {
		return nil, err
	}
	auth, err := authTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: authorization code %s", ErrNoMatchingAuthorization, authCode)
	}
	rev, err := reverseTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if rev != nil {
		return nil, fmt.Errorf("%w: authorization code %s", ErrAlreadyReversed, authCode)
	}
	capture, err := captureTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if capture != nil {
		// Funds already settled; release them as a refund.
		return s.refund(ctx, cert, txs, capture, amount)
	}
	if amount.Amount() != auth.Amount {
		return nil, fmt.Errorf("%w: authorized %d, requested %d",
			ErrReversalAmountMismatch, auth.Amount, amount.Amount())
	}

	entry := &model.GiftCertificateTransaction{
		ID:                uuid.New(),
		CertificateCode:   cert.Code,
		TransactionType:   model.TransactionReverseAuthorization,
		Amount:            amount.Amount(),
		AuthorizationCode: authCode,
		CreatedAt:         s.now(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("gift certificate authorization reversed",
		zap.String("code", cert.Code),
		zap.String("authorization_code", authCode),
		zap.Int64("amount", entry.Amount))
	return entry, nil
}

// ModifyPreAuthorization replaces an open reservation with one for a new
// amount, releasing the old reservation first so the balance check sees
// the freed funds. Returns the replacement authorization entry.
func (s *Service) ModifyPreAuthorization(ctx context.Context, tok lock.Token, cert *model.GiftCertificate, authCode string, amount money.Money) (*model.GiftCertificateTransaction, error) {
	if err := s.checkMutation(tok, cert, amount); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx, cert.Code)
	if err != nil {
		return nil, err
	}
	auth, err := s.requireOpenAuthorization(txs, authCode)
	if err != nil {
		return nil, err
	}
	balance, err := s.balance(cert, txs)
	if err != nil {
		return nil, err
	}
	// The old reservation is released below, so its amount counts
	// toward what the new one may reserve.
	if amount.Amount() > balance.Amount()+auth.Amount {
		return nil, fmt.Errorf("%w: balance %s, requested %s",
			ErrInsufficientBalance, balance, amount)
	}

	release := &model.GiftCertificateTransaction{
		ID:                uuid.New(),
		CertificateCode:   cert.Code,
		TransactionType:   model.TransactionReverseAuthorization,
		Amount:            auth.Amount,
		AuthorizationCode: authCode,
		CreatedAt:         s.now(),
	}
	if err := s.store.Append(ctx, release); err != nil {
		return nil, err
	}
	entry := &model.GiftCertificateTransaction{
		ID:                uuid.New(),
		CertificateCode:   cert.Code,
		TransactionType:   model.TransactionAuthorization,
		Amount:            amount.Amount(),
		AuthorizationCode: s.codes.Generate(),
		CreatedAt:         s.now(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("gift certificate authorization modified",
		zap.String("code", cert.Code),
		zap.String("old_authorization_code", authCode),
		zap.String("new_authorization_code", entry.AuthorizationCode),
		zap.Int64("amount", entry.Amount))
	return entry, nil
}

// Refund returns captured funds to the certificate. Partial refunds are
// allowed; together they may never exceed the captured amount.
func (s *Service) Refund(ctx context.Context, tok lock.Token, cert *model.GiftCertificate, authCode string, amount money.Money) (*model.GiftCertificateTransaction, error) {
	if err := s.checkMutation(tok, cert, amount); err != nil {
		return nil, err
	}
	txs, err := s.store.Transactions(ctx, cert.Code)
	if err != nil {
		return nil, err
	}
	capture, err := captureTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if capture == nil {
		return nil, fmt.Errorf("%w: authorization code %s", ErrNotCaptured, authCode)
	}
	return s.refund(ctx, cert, txs, capture, amount)
}

func (s *Service) refund(ctx context.Context, cert *model.GiftCertificate, txs []*model.GiftCertificateTransaction, capture *model.GiftCertificateTransaction, amount money.Money) (*model.GiftCertificateTransaction, error) {
	refunded := refundedTotal(txs, capture.AuthorizationCode)
	if amount.Amount()+refunded > capture.Amount {
		return nil, fmt.Errorf("%w: captured %d, already refunded %d, requested %d",
			ErrRefundExceedsCaptured, capture.Amount, refunded, amount.Amount())
	}

	entry := &model.GiftCertificateTransaction{
		ID:                uuid.New(),
		CertificateCode:   cert.Code,
		TransactionType:   model.TransactionRefund,
		Amount:            amount.Amount(),
		AuthorizationCode: capture.AuthorizationCode,
		CreatedAt:         s.now(),
	}
	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("gift certificate refunded",
		zap.String("code", cert.Code),
		zap.String("authorization_code", capture.AuthorizationCode),
		zap.Int64("amount", entry.Amount))
	return entry, nil
}

// requireOpenAuthorization finds an authorization that has been neither
// reversed nor captured.
func (s *Service) requireOpenAuthorization(txs []*model.GiftCertificateTransaction, authCode string) (*model.GiftCertificateTransaction, error) {
	auth, err := authTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		return nil, fmt.Errorf("%w: authorization code %s", ErrNoMatchingAuthorization, authCode)
	}
	rev, err := reverseTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if rev != nil {
		return nil, fmt.Errorf("%w: authorization code %s", ErrAlreadyReversed, authCode)
	}
	capture, err := captureTransaction(txs, authCode)
	if err != nil {
		return nil, err
	}
	if capture != nil {
		return nil, fmt.Errorf("%w: authorization code %s", ErrAlreadyCaptured, authCode)
	}
	return auth, nil
}

func (s *Service) checkMutation(tok lock.Token, cert *model.GiftCertificate, amount money.Money) error {
	if tok == nil || tok.Key() != cert.Code {
		return ErrLockNotHeld
	}
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if amount.Currency() != cert.Currency {
		return fmt.Errorf("%w: certificate %s, amount %s",
			ErrCurrencyMismatch, cert.Currency, amount.Currency())
	}
	return nil
}
