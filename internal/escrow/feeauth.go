package escrow

import (
	"math/big"
	"time"
)

const (
	// MinDeadlineSeconds is the shortest validity of a fee authorization.
	MinDeadlineSeconds = 60
	// MaxDeadlineSeconds is the longest validity of a fee authorization.
	MaxDeadlineSeconds = 86400
	// DefaultDeadlineSeconds is one hour.
	DefaultDeadlineSeconds = 3600
)

// NewFeeAuthorization creates a fee authorization that expires
// deadlineSeconds from now.
func NewFeeAuthorization(orderID, payer string, feeAmount *big.Int, deadlineSeconds int64) (FeeAuthorization, error) {
	return NewFeeAuthorizationAt(time.Now(), orderID, payer, feeAmount, deadlineSeconds)
}

// NewFeeAuthorizationAt is NewFeeAuthorization with an explicit current time.
func NewFeeAuthorizationAt(now time.Time, orderID, payer string, feeAmount *big.Int, deadlineSeconds int64) (FeeAuthorization, error) {
	if !IsAddress(payer) {
		return FeeAuthorization{}, validationErrorf("invalid payer address %q", payer)
	}
	if deadlineSeconds < MinDeadlineSeconds {
		return FeeAuthorization{}, validationErrorf("deadline too short: %ds, minimum: %ds", deadlineSeconds, MinDeadlineSeconds)
	}
	if deadlineSeconds > MaxDeadlineSeconds {
		return FeeAuthorization{}, validationErrorf("deadline too long: %ds, maximum: %ds", deadlineSeconds, MaxDeadlineSeconds)
	}
	if feeAmount == nil || feeAmount.Sign() < 0 {
		return FeeAuthorization{}, validationErrorf("invalid fee amount %v", feeAmount)
	}
	payer, _ = ChecksumAddress(payer)
	return FeeAuthorization{
		OrderID:   orderID,
		Payer:     payer,
		FeeAmount: new(big.Int).Set(feeAmount),
		Deadline:  now.Unix() + deadlineSeconds,
	}, nil
}
