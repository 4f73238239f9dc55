package domain

import (
	"inframint-validator-service/entity"
)

const (
	InvalidSignatureMessage   = "Invalid signature"
	InvalidEntitlementMessage = "Entitlement not found or invalid"
	QuotaExceededMessage      = "Quota exceeded"
)

type ValidateEntitlementRequest struct {
	EntitlementId string `validate:"required"`
	Signature     string
	Message       string
}

// SignaturePresent reports whether the caller actually supplied a
// signature. Both fields must be set, an empty string means absent.
func (r ValidateEntitlementRequest) SignaturePresent() bool {
	return r.Signature != "" && r.Message != ""
}

type ValidateEntitlementResponse struct {
	Valid       bool
	Error       string              `json:",omitempty"`
	Entitlement *entity.Entitlement `json:",omitempty"`
}

type ConsumeEntitlementRequest struct {
	EntitlementId string `validate:"required"`
	Amount        uint64 `validate:"required"`
	Signature     string `validate:"required"`
	Message       string `validate:"required"`
}

type ConsumeEntitlementResponse struct {
	Success        bool
	Error          string `json:",omitempty"`
	RemainingQuota uint64
}

type ValidateSignatureRequest struct {
	EntitlementId string `validate:"required"`
	Signature     string `validate:"required"`
	Message       string `validate:"required"`
}

type ValidateSignatureResponse struct {
	Valid bool
	Error string `json:",omitempty"`
}
