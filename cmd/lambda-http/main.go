package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"pulsescore-backend/internal/bootstrap"
	"pulsescore-backend/internal/shared/config"
	"pulsescore-backend/internal/shared/server/middleware"
	"pulsescore-backend/internal/shared/server/respond"
	"pulsescore-backend/internal/shared/telemetry"
)

type proxy interface {
	ProxyWithContext(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)
}

// coldStart builds the router on first use. A failed build is not cached,
// so the next invocation on the same container tries again.
type coldStart struct {
	mu    sync.Mutex
	build func() (proxy, error)
	ready proxy
}

func (s *coldStart) get() (proxy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready != nil {
		return s.ready, nil
	}
	p, err := s.build()
	if err != nil {
		return nil, err
	}
	s.ready = p
	return p, nil
}

func (s *coldStart) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p, err := s.get()
	if err != nil {
		telemetry.Error("lambda_http.bootstrap_failed", map[string]any{
			"error":      err.Error(),
			"request_id": req.RequestContext.RequestID,
			"route":      req.RouteKey,
		})
		return unavailable(req.RequestContext.RequestID), nil
	}
	return p.ProxyWithContext(ctx, req)
}

func unavailable(requestID string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{
		Code:    "service_unavailable",
		Message: "service is starting, try again shortly",
	}})
	headers := map[string]string{"Content-Type": "application/json", "Retry-After": "1"}
	if requestID != "" {
		headers[middleware.RequestIDHeader] = requestID
	}
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusServiceUnavailable,
		Headers:    headers,
		Body:       string(body),
	}
}

func buildProxy() (proxy, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	return ginadapter.NewV2(app.Router), nil
}

func main() {
	s := &coldStart{build: buildProxy}
	lambda.Start(s.handle)
}
