package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrSignatureValidation  = errors.New("signature validation failed")
	ErrEntitlementNotFound  = errors.New("entitlement not found")
	ErrEntitlementCacheMiss = errors.New("entitlement not found in cache")

	ErrEntitlementCache      = errors.New("entitlement cache is not available")
	ErrLedgerProvider        = errors.New("ledger provider error")
	ErrLedgerCall            = errors.New("ledger call failed")
	ErrInvalidLedgerResponse = errors.New("invalid ledger response format")
)
