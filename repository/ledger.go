package repository

import (
	"context"
	stdjson "encoding/json"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"github.com/txix-open/isp-kit/http/httpcli"
	"github.com/txix-open/isp-kit/json"
	"inframint-validator-service/domain"
	"inframint-validator-service/entity"
)

const (
	getObjectMethod   = "sui_getObject"
	consumeMethod     = "inframint_consumeEntitlement"
	objectNotExists   = "notExists"
	objectDeleted     = "deleted"
	jsonRpcVersion    = "2.0"
	moveObjectType    = "moveObject"
	initialRetryDelay = 200 * time.Millisecond
)

type rpcRequest struct {
	JsonRpc string `json:"jsonrpc"`
	Id      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	JsonRpc string             `json:"jsonrpc"`
	Id      int                `json:"id"`
	Result  stdjson.RawMessage `json:"result"`
	Error   *rpcError          `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type getObjectResult struct {
	Data  *objectData  `json:"data"`
	Error *objectError `json:"error"`
}

type objectData struct {
	ObjectId string         `json:"objectId"`
	Version  string         `json:"version"`
	Content  *objectContent `json:"content"`
}

type objectContent struct {
	DataType string            `json:"dataType"`
	Type     string            `json:"type"`
	Fields   entitlementFields `json:"fields"`
}

// Move u64 values arrive as decimal strings.
type entitlementFields struct {
	ServiceId     string `json:"service_id"`
	Buyer         string `json:"buyer"`
	TierId        string `json:"tier_id"`
	QuotaRequests string `json:"quota_requests"`
	QuotaUsed     string `json:"quota_used"`
	PurchasedAt   string `json:"purchased_at"`
	ExpiresAt     string `json:"expires_at"`
	Active        bool   `json:"active"`
}

type objectError struct {
	Code     string `json:"code"`
	ObjectId string `json:"object_id"`
}

type consumeResult struct {
	Status string `json:"status"`
	Digest string `json:"digest"`
}

type Ledger struct {
	cli             *httpcli.Client
	rpcUrl          string
	contractAddress string
	timeout         time.Duration
	maxTries        uint
	breaker         *gobreaker.CircuitBreaker
}

func NewLedger(cli *httpcli.Client, rpcUrl string, contractAddress string, timeout time.Duration, maxTries int) Ledger {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "ledger",
	})
	return Ledger{
		cli:             cli,
		rpcUrl:          rpcUrl,
		contractAddress: contractAddress,
		timeout:         timeout,
		maxTries:        uint(maxTries), //nolint:gosec
		breaker:         breaker,
	}
}

// GetEntitlement reads the entitlement object from the ledger node.
// Transient node failures are retried, a missing or malformed object is not.
func (r Ledger) GetEntitlement(ctx context.Context, entitlementId string) (*entity.Entitlement, error) {
	result, err := backoff.Retry(ctx, func() (*entity.Entitlement, error) {
		return r.getEntitlement(ctx, entitlementId)
	},
		backoff.WithBackOff(newExponentialBackOff()),
		backoff.WithMaxTries(r.maxTries),
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r Ledger) getEntitlement(ctx context.Context, entitlementId string) (*entity.Entitlement, error) {
	params := []any{
		entitlementId,
		map[string]any{
			"showContent": true,
		},
	}
	result := getObjectResult{}
	err := r.call(ctx, getObjectMethod, params, &result)
	if err != nil {
		return nil, err
	}

	if result.Error != nil {
		switch result.Error.Code {
		case objectNotExists, objectDeleted:
			return nil, backoff.Permanent(domain.ErrEntitlementNotFound)
		default:
			return nil, errors.WithMessagef(domain.ErrLedgerCall, "object error: %s", result.Error.Code)
		}
	}
	if result.Data == nil || result.Data.Content == nil {
		return nil, backoff.Permanent(errors.WithMessage(domain.ErrInvalidLedgerResponse, "object content is empty"))
	}
	if result.Data.Content.DataType != moveObjectType {
		return nil, backoff.Permanent(
			errors.WithMessagef(domain.ErrInvalidLedgerResponse, "unexpected data type: %s", result.Data.Content.DataType),
		)
	}

	ent, err := r.mapEntitlement(result.Data.ObjectId, result.Data.Content.Fields)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return ent, nil
}

// ConsumeEntitlement submits a sponsored consume transaction through the
// gateway method of the node. The call is never retried, a timed out
// transaction may still have been executed.
func (r Ledger) ConsumeEntitlement(
	ctx context.Context,
	entitlementId string,
	amount uint64,
	signature string,
	message string,
) error {
	params := []any{
		r.contractAddress,
		entitlementId,
		strconv.FormatUint(amount, 10),
		signature,
		message,
	}
	result := consumeResult{}
	err := r.call(ctx, consumeMethod, params, &result)
	if err != nil {
		return err
	}
	if result.Status != "success" {
		return errors.WithMessagef(domain.ErrLedgerCall, "consume status: %s", result.Status)
	}
	return nil
}

func (r Ledger) call(ctx context.Context, method string, params []any, result any) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req := rpcRequest{
		JsonRpc: jsonRpcVersion,
		Id:      1,
		Method:  method,
		Params:  params,
	}
	resp := rpcResponse{}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		_, err := r.cli.Post(r.rpcUrl).
			JsonRequestBody(req).
			JsonResponseBody(&resp).
			StatusCodeToError().
			Do(ctx)
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return backoff.Permanent(errors.WithMessagef(domain.ErrLedgerProvider, "circuit breaker: %v", err))
	}
	if err != nil {
		return errors.WithMessagef(domain.ErrLedgerCall, "%s: %v", method, err)
	}

	if resp.Error != nil {
		return errors.WithMessagef(domain.ErrLedgerCall, "%s: rpc error %d: %s", method, resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result) == 0 {
		return backoff.Permanent(errors.WithMessagef(domain.ErrInvalidLedgerResponse, "%s: empty result", method))
	}

	err = json.Unmarshal(resp.Result, result)
	if err != nil {
		return backoff.Permanent(errors.WithMessagef(domain.ErrInvalidLedgerResponse, "%s: unmarshal result: %v", method, err))
	}

	return nil
}

func (r Ledger) mapEntitlement(objectId string, fields entitlementFields) (*entity.Entitlement, error) {
	tierId, err := parseU64("tier_id", fields.TierId)
	if err != nil {
		return nil, err
	}
	quotaRequests, err := parseU64("quota_requests", fields.QuotaRequests)
	if err != nil {
		return nil, err
	}
	quotaUsed, err := parseU64("quota_used", fields.QuotaUsed)
	if err != nil {
		return nil, err
	}
	purchasedAt, err := parseU64("purchased_at", fields.PurchasedAt)
	if err != nil {
		return nil, err
	}
	expiresAt, err := parseU64("expires_at", fields.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &entity.Entitlement{
		Id:            objectId,
		ServiceId:     fields.ServiceId,
		Buyer:         fields.Buyer,
		TierId:        tierId,
		QuotaRequests: quotaRequests,
		QuotaUsed:     quotaUsed,
		PurchasedAt:   int64(purchasedAt), //nolint:gosec
		ExpiresAt:     int64(expiresAt),   //nolint:gosec
		Active:        fields.Active,
	}, nil
}

func parseU64(field string, value string) (uint64, error) {
	result, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.WithMessagef(domain.ErrInvalidLedgerResponse, "field %s: %v", field, err)
	}
	return result, nil
}

func newExponentialBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initialRetryDelay
	return b
}
