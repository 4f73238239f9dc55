package assembly

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/http/httpcli"
	"github.com/txix-open/isp-kit/log"
	"inframint-validator-service/conf"
	"inframint-validator-service/controller"
	"inframint-validator-service/handler"
	"inframint-validator-service/ratelimit"
	"inframint-validator-service/repository"
	"inframint-validator-service/routes"
	"inframint-validator-service/service"
)

type Locator struct {
	logger log.Logger
}

func NewLocator(logger log.Logger) Locator {
	return Locator{
		logger: logger,
	}
}

func (l Locator) Handler(config conf.Remote, redisCli redis.UniversalClient) (*handler.Handler, *ratelimit.Limiter) {
	cacheTtl := time.Duration(config.Caching.EntitlementTtlInSec) * time.Second
	var entitlementCache service.EntitlementCache
	if redisCli != nil {
		entitlementCache = repository.NewEntitlementCache(redisCli, cacheTtl)
	} else {
		entitlementCache = repository.NewLocalEntitlementCache(cacheTtl)
	}

	ledger := repository.NewLedger(
		httpcli.New(),
		config.Ledger.RpcUrl,
		config.Ledger.ContractAddress,
		time.Duration(config.Ledger.RequestTimeoutInSec)*time.Second,
		config.Ledger.Retries(),
	)

	limiter := ratelimit.New(
		time.Duration(config.RateLimit.WindowSizeInSec)*time.Second,
		config.RateLimit.MaxRequests,
	)

	validatorService := service.NewValidator(entitlementCache, ledger, limiter, l.logger)
	validatorController := controller.NewValidator(validatorService, l.logger)

	h := routes.Handler(l.logger, config.Logging.RequestLogEnable, routes.Controllers{
		Validator: validatorController,
	})

	return h, limiter
}
