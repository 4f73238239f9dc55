package routes

import (
	"github.com/txix-open/isp-kit/cluster"
	"github.com/txix-open/isp-kit/log"
	"inframint-validator-service/controller"
	"inframint-validator-service/handler"
)

const (
	ValidateEntitlementEndpoint = "validator/validate_entitlement"
	ConsumeEntitlementEndpoint  = "validator/consume_entitlement"
	ValidateSignatureEndpoint   = "validator/validate_signature"
)

type Controllers struct {
	Validator controller.Validator
}

func Handler(logger log.Logger, requestLogEnable bool, c Controllers) *handler.Handler {
	h := handler.New(logger, requestLogEnable)
	handler.Register(h, ValidateEntitlementEndpoint, c.Validator.ValidateEntitlement)
	handler.Register(h, ConsumeEntitlementEndpoint, c.Validator.ConsumeEntitlement)
	handler.Register(h, ValidateSignatureEndpoint, c.Validator.ValidateSignature)
	return h
}

func EndpointDescriptors() []cluster.EndpointDescriptor {
	return []cluster.EndpointDescriptor{
		{
			Path:  ValidateEntitlementEndpoint,
			Inner: true,
		},
		{
			Path:  ConsumeEntitlementEndpoint,
			Inner: true,
		},
		{
			Path:  ValidateSignatureEndpoint,
			Inner: true,
		},
	}
}
