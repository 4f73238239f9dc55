package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"inframint-validator-service/domain"
	"inframint-validator-service/entity"
	"inframint-validator-service/ratelimit"
	"inframint-validator-service/signature"
)

type EntitlementCache interface {
	Get(ctx context.Context, entitlementId string) (*entity.CachedEntitlement, error)
	Set(ctx context.Context, cached entity.CachedEntitlement) error
	Delete(ctx context.Context, entitlementId string) error
}

type LedgerRepo interface {
	GetEntitlement(ctx context.Context, entitlementId string) (*entity.Entitlement, error)
	ConsumeEntitlement(ctx context.Context, entitlementId string, amount uint64, signature string, message string) error
}

type Validator struct {
	cache   EntitlementCache
	ledger  LedgerRepo
	limiter *ratelimit.Limiter
	locker  *entitlementLocker
	logger  log.Logger
	now     func() time.Time
}

func NewValidator(
	cache EntitlementCache,
	ledger LedgerRepo,
	limiter *ratelimit.Limiter,
	logger log.Logger,
) Validator {
	return Validator{
		cache:   cache,
		ledger:  ledger,
		limiter: limiter,
		locker:  newEntitlementLocker(),
		logger:  logger,
		now:     time.Now,
	}
}

func (s Validator) Validate(
	ctx context.Context,
	req domain.ValidateEntitlementRequest,
) (*domain.ValidateEntitlementResponse, error) {
	if !s.limiter.Check(req.EntitlementId) {
		return nil, errors.WithMessage(domain.ErrRateLimitExceeded, req.EntitlementId)
	}

	ent, err := s.resolve(ctx, req.EntitlementId)
	if errors.Is(err, domain.ErrEntitlementNotFound) {
		return &domain.ValidateEntitlementResponse{
			Valid: false,
			Error: domain.InvalidEntitlementMessage,
		}, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "resolve entitlement")
	}

	if !ent.Usable(s.now()) {
		return &domain.ValidateEntitlementResponse{
			Valid: false,
			Error: domain.InvalidEntitlementMessage,
		}, nil
	}

	if req.SignaturePresent() {
		ok, err := signature.Verify(ent.Buyer, req.Signature, req.Message)
		if err != nil {
			return nil, errors.WithMessagef(domain.ErrSignatureValidation, "%v", err)
		}
		if !ok {
			return &domain.ValidateEntitlementResponse{
				Valid: false,
				Error: domain.InvalidSignatureMessage,
			}, nil
		}
	}

	return &domain.ValidateEntitlementResponse{
		Valid:       true,
		Entitlement: ent,
	}, nil
}

// Consume runs the resolve, quota check and ledger commit under a
// per-entitlement lock, so concurrent calls for the same id are applied
// one after another and cannot overspend the quota.
func (s Validator) Consume(
	ctx context.Context,
	req domain.ConsumeEntitlementRequest,
) (*domain.ConsumeEntitlementResponse, error) {
	if !s.limiter.Check(req.EntitlementId) {
		return nil, errors.WithMessage(domain.ErrRateLimitExceeded, req.EntitlementId)
	}

	unlock := s.locker.Lock(req.EntitlementId)
	defer unlock()

	ent, err := s.resolve(ctx, req.EntitlementId)
	if errors.Is(err, domain.ErrEntitlementNotFound) {
		return &domain.ConsumeEntitlementResponse{
			Success: false,
			Error:   domain.InvalidEntitlementMessage,
		}, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "resolve entitlement")
	}
	if !ent.Usable(s.now()) {
		return &domain.ConsumeEntitlementResponse{
			Success: false,
			Error:   domain.InvalidEntitlementMessage,
		}, nil
	}

	ok, err := signature.Verify(ent.Buyer, req.Signature, req.Message)
	if err != nil {
		return nil, errors.WithMessagef(domain.ErrSignatureValidation, "%v", err)
	}
	if !ok {
		return &domain.ConsumeEntitlementResponse{
			Success: false,
			Error:   domain.InvalidSignatureMessage,
		}, nil
	}

	if ent.QuotaUsed+req.Amount > ent.QuotaRequests {
		return &domain.ConsumeEntitlementResponse{
			Success:        false,
			Error:          domain.QuotaExceededMessage,
			RemainingQuota: ent.RemainingQuota(),
		}, nil
	}

	err = s.ledger.ConsumeEntitlement(ctx, req.EntitlementId, req.Amount, req.Signature, req.Message)
	if err != nil {
		return nil, errors.WithMessage(err, "ledger consume entitlement")
	}

	remaining := ent.QuotaRequests - ent.QuotaUsed - req.Amount

	updated := *ent
	updated.QuotaUsed += req.Amount
	if updated.QuotaUsed >= updated.QuotaRequests {
		updated.Active = false
	}
	err = s.cache.Set(ctx, entity.NewCachedEntitlement(updated))
	if err != nil {
		s.logger.Error(ctx, "entitlement cache set", log.String("error", err.Error()))
	}

	return &domain.ConsumeEntitlementResponse{
		Success:        true,
		RemainingQuota: remaining,
	}, nil
}

func (s Validator) VerifySignature(
	ctx context.Context,
	req domain.ValidateSignatureRequest,
) (*domain.ValidateSignatureResponse, error) {
	if !s.limiter.Check(req.EntitlementId) {
		return nil, errors.WithMessage(domain.ErrRateLimitExceeded, req.EntitlementId)
	}

	ent, err := s.resolve(ctx, req.EntitlementId)
	if errors.Is(err, domain.ErrEntitlementNotFound) {
		return &domain.ValidateSignatureResponse{
			Valid: false,
			Error: domain.InvalidEntitlementMessage,
		}, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "resolve entitlement")
	}

	ok, err := signature.Verify(ent.Buyer, req.Signature, req.Message)
	if err != nil {
		return nil, errors.WithMessagef(domain.ErrSignatureValidation, "%v", err)
	}
	if !ok {
		return &domain.ValidateSignatureResponse{
			Valid: false,
			Error: domain.InvalidSignatureMessage,
		}, nil
	}

	return &domain.ValidateSignatureResponse{Valid: true}, nil
}

// resolve returns the entitlement from cache when present, otherwise
// reads the ledger and populates the cache. Cache failures degrade to
// a ledger read, they never fail the request.
func (s Validator) resolve(ctx context.Context, entitlementId string) (*entity.Entitlement, error) {
	cached, err := s.cache.Get(ctx, entitlementId)
	if err == nil {
		ent := cached.Entitlement()
		return &ent, nil
	}
	if !errors.Is(err, domain.ErrEntitlementCacheMiss) {
		s.logger.Error(ctx, "entitlement cache get", log.String("error", err.Error()))
	}

	ent, err := s.ledger.GetEntitlement(ctx, entitlementId)
	if err != nil {
		return nil, err
	}

	err = s.cache.Set(ctx, entity.NewCachedEntitlement(*ent))
	if err != nil {
		s.logger.Error(ctx, "entitlement cache set", log.String("error", err.Error()))
	}

	return ent, nil
}
