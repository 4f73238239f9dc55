package entity

import (
	"time"
)

// Entitlement is the authoritative record owned by the ledger.
// The validator only reads it and requests mutation.
type Entitlement struct {
	Id            string `json:"id"`
	ServiceId     string `json:"serviceId"`
	Buyer         string `json:"buyer"`
	TierId        uint64 `json:"tierId"`
	QuotaRequests uint64 `json:"quotaRequests"`
	QuotaUsed     uint64 `json:"quotaUsed"`
	PurchasedAt   int64  `json:"purchasedAt"`
	ExpiresAt     int64  `json:"expiresAt"`
	Active        bool   `json:"active"`
}

// Usable reports whether the entitlement authorizes access at the given
// moment. Deactivation and time-based expiry are independent conditions.
func (e Entitlement) Usable(now time.Time) bool {
	return e.Active && now.Unix() < e.ExpiresAt
}

// RemainingQuota never underflows even if the ledger record briefly
// violates the quota invariant during finalization.
func (e Entitlement) RemainingQuota() uint64 {
	if e.QuotaUsed >= e.QuotaRequests {
		return 0
	}
	return e.QuotaRequests - e.QuotaUsed
}

// CachedEntitlement is a time-bounded local copy of the ledger record.
// It is an optimization, never a second source of truth.
type CachedEntitlement struct {
	Id            string `json:"id"`
	ServiceId     string `json:"serviceId"`
	Buyer         string `json:"buyer"`
	TierId        uint64 `json:"tierId"`
	QuotaRequests uint64 `json:"quotaRequests"`
	QuotaUsed     uint64 `json:"quotaUsed"`
	PurchasedAt   int64  `json:"purchasedAt"`
	ExpiresAt     int64  `json:"expiresAt"`
	Active        bool   `json:"active"`
	// optional per-tier hint, preserved through cache round-trips
	RateLimitPerSecond uint32 `json:"rateLimitPerSecond,omitempty"`
}

func NewCachedEntitlement(e Entitlement) CachedEntitlement {
	return CachedEntitlement{
		Id:            e.Id,
		ServiceId:     e.ServiceId,
		Buyer:         e.Buyer,
		TierId:        e.TierId,
		QuotaRequests: e.QuotaRequests,
		QuotaUsed:     e.QuotaUsed,
		PurchasedAt:   e.PurchasedAt,
		ExpiresAt:     e.ExpiresAt,
		Active:        e.Active,
	}
}

func (c CachedEntitlement) Entitlement() Entitlement {
	return Entitlement{
		Id:            c.Id,
		ServiceId:     c.ServiceId,
		Buyer:         c.Buyer,
		TierId:        c.TierId,
		QuotaRequests: c.QuotaRequests,
		QuotaUsed:     c.QuotaUsed,
		PurchasedAt:   c.PurchasedAt,
		ExpiresAt:     c.ExpiresAt,
		Active:        c.Active,
	}
}
