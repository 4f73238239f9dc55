package controller

import (
	"context"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"inframint-validator-service/domain"
)

type ValidatorService interface {
	Validate(ctx context.Context, req domain.ValidateEntitlementRequest) (*domain.ValidateEntitlementResponse, error)
	Consume(ctx context.Context, req domain.ConsumeEntitlementRequest) (*domain.ConsumeEntitlementResponse, error)
	VerifySignature(ctx context.Context, req domain.ValidateSignatureRequest) (*domain.ValidateSignatureResponse, error)
}

type Validator struct {
	service ValidatorService
	logger  log.Logger
}

func NewValidator(service ValidatorService, logger log.Logger) Validator {
	return Validator{
		service: service,
		logger:  logger,
	}
}

func (c Validator) ValidateEntitlement(
	ctx context.Context,
	req domain.ValidateEntitlementRequest,
) (*domain.ValidateEntitlementResponse, error) {
	resp, err := c.service.Validate(ctx, req)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}
	return resp, nil
}

func (c Validator) ConsumeEntitlement(
	ctx context.Context,
	req domain.ConsumeEntitlementRequest,
) (*domain.ConsumeEntitlementResponse, error) {
	resp, err := c.service.Consume(ctx, req)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}
	return resp, nil
}

func (c Validator) ValidateSignature(
	ctx context.Context,
	req domain.ValidateSignatureRequest,
) (*domain.ValidateSignatureResponse, error) {
	resp, err := c.service.VerifySignature(ctx, req)
	if err != nil {
		return nil, c.mapError(ctx, err)
	}
	return resp, nil
}

func (c Validator) mapError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrRateLimitExceeded):
		return status.Error(codes.ResourceExhausted, "rate limit exceeded")
	case errors.Is(err, domain.ErrSignatureValidation):
		return status.Error(codes.InvalidArgument, "malformed signature or public key")
	default:
		c.logger.Error(ctx, "validator", log.String("error", err.Error()))
		return status.Error(codes.Internal, "internal service error")
	}
}
