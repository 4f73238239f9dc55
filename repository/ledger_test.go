package repository_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/txix-open/isp-kit/http/httpcli"
	"github.com/txix-open/isp-kit/test"
	"github.com/txix-open/isp-kit/test/httpt"

	"inframint-validator-service/domain"
	"inframint-validator-service/repository"
)

type rpcRequest struct {
	JsonRpc string            `json:"jsonrpc"`
	Id      int               `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JsonRpc string `json:"jsonrpc"`
	Id      int    `json:"id"`
	Result  any    `json:"result,omitempty"`
	Error   any    `json:"error,omitempty"`
}

func entitlementObject(objectId string) map[string]any {
	return map[string]any{
		"data": map[string]any{
			"objectId": objectId,
			"version":  "42",
			"content": map[string]any{
				"dataType": "moveObject",
				"type":     "0xabc::entitlement::Entitlement",
				"fields": map[string]any{
					"service_id":     "svc-1",
					"buyer":          "8Zo5QH1nPbWHbDvixZ3Au7nJN7x3T2cu1v2EzEMJert9",
					"tier_id":        "3",
					"quota_requests": "1000",
					"quota_used":     "10",
					"purchased_at":   "1756600000",
					"expires_at":     "1788136000",
					"active":         true,
				},
			},
		},
	}
}

func TestGetEntitlement(t *testing.T) {
	t.Parallel()
	testInstance, require := test.New(t)

	node := httpt.NewMock(testInstance)
	node.POST("/", func(ctx context.Context, httpReq *http.Request, req rpcRequest) rpcResponse {
		require.EqualValues("sui_getObject", req.Method)
		return rpcResponse{JsonRpc: "2.0", Id: req.Id, Result: entitlementObject("0x1")}
	})

	ledger := repository.NewLedger(httpcli.New(), node.BaseURL(), "0xabc", time.Second, 3)
	ent, err := ledger.GetEntitlement(context.Background(), "0x1")
	require.NoError(err)
	require.EqualValues("0x1", ent.Id)
	require.EqualValues("svc-1", ent.ServiceId)
	require.EqualValues(3, ent.TierId)
	require.EqualValues(1000, ent.QuotaRequests)
	require.EqualValues(10, ent.QuotaUsed)
	require.EqualValues(1788136000, ent.ExpiresAt)
	require.True(ent.Active)
}

func TestGetEntitlementNotFound(t *testing.T) {
	t.Parallel()
	testInstance, require := test.New(t)

	calls := atomic.Int32{}
	node := httpt.NewMock(testInstance)
	node.POST("/", func(ctx context.Context, httpReq *http.Request, req rpcRequest) rpcResponse {
		calls.Add(1)
		return rpcResponse{
			JsonRpc: "2.0",
			Id:      req.Id,
			Result: map[string]any{
				"error": map[string]any{"code": "notExists", "object_id": "0x404"},
			},
		}
	})

	ledger := repository.NewLedger(httpcli.New(), node.BaseURL(), "0xabc", time.Second, 3)
	_, err := ledger.GetEntitlement(context.Background(), "0x404")
	require.ErrorIs(err, domain.ErrEntitlementNotFound)
	require.EqualValues(1, calls.Load())
}

func TestGetEntitlementRetriesTransientError(t *testing.T) {
	t.Parallel()
	testInstance, require := test.New(t)

	calls := atomic.Int32{}
	node := httpt.NewMock(testInstance)
	node.POST("/", func(ctx context.Context, httpReq *http.Request, req rpcRequest) rpcResponse {
		if calls.Add(1) == 1 {
			return rpcResponse{
				JsonRpc: "2.0",
				Id:      req.Id,
				Error:   map[string]any{"code": -32000, "message": "node is busy"},
			}
		}
		return rpcResponse{JsonRpc: "2.0", Id: req.Id, Result: entitlementObject("0x1")}
	})

	ledger := repository.NewLedger(httpcli.New(), node.BaseURL(), "0xabc", time.Second, 3)
	ent, err := ledger.GetEntitlement(context.Background(), "0x1")
	require.NoError(err)
	require.EqualValues("0x1", ent.Id)
	require.EqualValues(2, calls.Load())
}

func TestGetEntitlementInvalidQuotaFormat(t *testing.T) {
	t.Parallel()
	testInstance, require := test.New(t)

	calls := atomic.Int32{}
	node := httpt.NewMock(testInstance)
	node.POST("/", func(ctx context.Context, httpReq *http.Request, req rpcRequest) rpcResponse {
		calls.Add(1)
		object := entitlementObject("0x1")
		data := object["data"].(map[string]any)
		fields := data["content"].(map[string]any)["fields"].(map[string]any)
		fields["quota_requests"] = "not a number"
		return rpcResponse{JsonRpc: "2.0", Id: req.Id, Result: object}
	})

	ledger := repository.NewLedger(httpcli.New(), node.BaseURL(), "0xabc", time.Second, 3)
	_, err := ledger.GetEntitlement(context.Background(), "0x1")
	require.ErrorIs(err, domain.ErrInvalidLedgerResponse)
	require.EqualValues(1, calls.Load())
}

func TestConsumeEntitlement(t *testing.T) {
	t.Parallel()
	testInstance, require := test.New(t)

	node := httpt.NewMock(testInstance)
	node.POST("/", func(ctx context.Context, httpReq *http.Request, req rpcRequest) rpcResponse {
		require.EqualValues("inframint_consumeEntitlement", req.Method)
		require.Len(req.Params, 5)
		return rpcResponse{
			JsonRpc: "2.0",
			Id:      req.Id,
			Result:  map[string]any{"status": "success", "digest": "9x7"},
		}
	})

	ledger := repository.NewLedger(httpcli.New(), node.BaseURL(), "0xabc", time.Second, 3)
	err := ledger.ConsumeEntitlement(context.Background(), "0x1", 10, "sig", "msg")
	require.NoError(err)
}

func TestConsumeEntitlementFailedStatus(t *testing.T) {
	t.Parallel()
	testInstance, require := test.New(t)

	node := httpt.NewMock(testInstance)
	node.POST("/", func(ctx context.Context, httpReq *http.Request, req rpcRequest) rpcResponse {
		return rpcResponse{
			JsonRpc: "2.0",
			Id:      req.Id,
			Result:  map[string]any{"status": "failure"},
		}
	})

	ledger := repository.NewLedger(httpcli.New(), node.BaseURL(), "0xabc", time.Second, 3)
	err := ledger.ConsumeEntitlement(context.Background(), "0x1", 10, "sig", "msg")
	require.ErrorIs(err, domain.ErrLedgerCall)
}
