package handler

import (
	"context"

	"github.com/txix-open/isp-kit/grpc"
	"github.com/txix-open/isp-kit/grpc/isp"
	"github.com/txix-open/isp-kit/json"
	"github.com/txix-open/isp-kit/log"
	"github.com/txix-open/isp-kit/requestid"
	"github.com/txix-open/isp-kit/validator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type endpointFunc func(ctx context.Context, body []byte) ([]byte, error)

// Handler dispatches requests to registered endpoints by the method
// name passed in grpc metadata, request and response bodies are json.
type Handler struct {
	isp.UnimplementedBackendServiceServer
	logger           log.Logger
	requestLogEnable bool
	endpoints        map[string]endpointFunc
}

func New(logger log.Logger, requestLogEnable bool) *Handler {
	return &Handler{
		logger:           logger,
		requestLogEnable: requestLogEnable,
		endpoints:        make(map[string]endpointFunc),
	}
}

func (h *Handler) Request(ctx context.Context, message *isp.Message) (*isp.Message, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unimplemented, "metadata is expected in context")
	}

	endpoint, err := grpc.StringFromMd(grpc.ProxyMethodNameHeader, md)
	if err != nil {
		return nil, status.Error(codes.Unimplemented, "endpoint is not specified")
	}

	requestId, err := grpc.StringFromMd(requestid.Header, md)
	if err != nil || requestId == "" {
		requestId = requestid.Next()
	}
	ctx = requestid.ToContext(ctx, requestId)
	ctx = log.ToContext(ctx, log.String("requestId", requestId))

	handle, ok := h.endpoints[endpoint]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "unknown endpoint %s", endpoint)
	}

	requestBody := message.GetBytesBody()
	if h.requestLogEnable {
		h.logger.Debug(ctx, "request",
			log.String("endpoint", endpoint),
			log.ByteString("body", requestBody),
		)
	}

	responseBody, err := handle(ctx, requestBody)
	if err != nil {
		return nil, err
	}

	if h.requestLogEnable {
		h.logger.Debug(ctx, "response",
			log.String("endpoint", endpoint),
			log.ByteString("body", responseBody),
		)
	}

	return &isp.Message{
		Body: &isp.Message_BytesBody{BytesBody: responseBody},
	}, nil
}

// Register binds a typed endpoint function to a method name. The request
// is unmarshalled and validated before the function is called.
func Register[Req any, Resp any](
	h *Handler,
	endpoint string,
	fn func(ctx context.Context, req Req) (*Resp, error),
) {
	h.endpoints[endpoint] = func(ctx context.Context, body []byte) ([]byte, error) {
		var req Req
		err := json.Unmarshal(body, &req)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid request body")
		}

		err = validator.Default.ValidateToError(req)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return nil, err
		}

		responseBody, err := json.Marshal(resp)
		if err != nil {
			return nil, status.Error(codes.Internal, "marshal response")
		}
		return responseBody, nil
	}
}
