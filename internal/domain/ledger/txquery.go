package ledger

import (
	"fmt"

	"github.com/commercekit/payments/internal/model"
)

// uniqueByType finds the zero-or-one transaction of the given type for an
// authorization code. Two or more means the log has been corrupted.
func uniqueByType(txs []*model.GiftCertificateTransaction, authCode string, typ model.TransactionType) (*model.GiftCertificateTransaction, error) {
	var found *model.GiftCertificateTransaction
	for _, tx := range txs {
		if tx.AuthorizationCode != authCode || tx.TransactionType != typ {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w: found more than one %s transaction for authorization code %s",
				ErrLedgerCorrupt, typ, authCode)
		}
		found = tx
	}
	return found, nil
}

func authTransaction(txs []*model.GiftCertificateTransaction, authCode string) (*model.GiftCertificateTransaction, error) {
	return uniqueByType(txs, authCode, model.TransactionAuthorization)
}

func reverseTransaction(txs []*model.GiftCertificateTransaction, authCode string) (*model.GiftCertificateTransaction, error) {
	return uniqueByType(txs, authCode, model.TransactionReverseAuthorization)
}

func captureTransaction(txs []*model.GiftCertificateTransaction, authCode string) (*model.GiftCertificateTransaction, error) {
	return uniqueByType(txs, authCode, model.TransactionCapture)
}

// refundTransactions returns every refund recorded against an
// authorization code. Multiple partial refunds are legal.
func refundTransactions(txs []*model.GiftCertificateTransaction, authCode string) []*model.GiftCertificateTransaction {
	var out []*model.GiftCertificateTransaction
	for _, tx := range txs {
		if tx.AuthorizationCode == authCode && tx.TransactionType == model.TransactionRefund {
			out = append(out, tx)
		}
	}
	return out
}

func refundedTotal(txs []*model.GiftCertificateTransaction, authCode string) int64 {
	var total int64
	for _, tx := range refundTransactions(txs, authCode) {
		total += tx.Amount
	}
	return total
}

// allocatedAmount computes how much of the certificate one authorization
// still ties up: zero once reversed, the captured amount net of refunds
// once captured, otherwise the full authorized amount.
func allocatedAmount(txs []*model.GiftCertificateTransaction, auth *model.GiftCertificateTransaction) (int64, error) {
	rev, err := reverseTransaction(txs, auth.AuthorizationCode)
	if err != nil {
		return 0, err
	}
	if rev != nil {
		return 0, nil
	}
	capture, err := captureTransaction(txs, auth.AuthorizationCode)
	if err != nil {
		return 0, err
	}
	if capture != nil {
		net := capture.Amount - refundedTotal(txs, auth.AuthorizationCode)
		if net < 0 {
			return 0, fmt.Errorf("%w: refunds exceed the capture for authorization code %s",
				ErrLedgerCorrupt, auth.AuthorizationCode)
		}
		return net, nil
	}
	return auth.Amount, nil
}
