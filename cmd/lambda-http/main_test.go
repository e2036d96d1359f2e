package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulsescore-backend/internal/shared/server/respond"
)

type stubProxy struct{ calls int }

func (p *stubProxy) ProxyWithContext(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p.calls++
	return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusOK, Body: "ok"}, nil
}

func apiRequest(id string) events.APIGatewayV2HTTPRequest {
	req := events.APIGatewayV2HTTPRequest{RouteKey: "GET /healthz", RawPath: "/healthz"}
	req.RequestContext.RequestID = id
	return req
}

func TestColdStartRetriesAfterFailedBuild(t *testing.T) {
	stub := &stubProxy{}
	builds := 0
	s := &coldStart{build: func() (proxy, error) {
		builds++
		if builds == 1 {
			return nil, errors.New("database unreachable")
		}
		return stub, nil
	}}

	resp, err := s.handle(context.Background(), apiRequest("abc-1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "abc-1", resp.Headers["X-Request-Id"])
	assert.Equal(t, "1", resp.Headers["Retry-After"])
	var body respond.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, "service_unavailable", body.Error.Code)

	for i := 0; i < 2; i++ {
		resp, err = s.handle(context.Background(), apiRequest("abc-2"))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 2, builds)
	assert.Equal(t, 2, stub.calls)
}

func TestUnavailableWithoutRequestID(t *testing.T) {
	resp := unavailable("")
	assert.NotContains(t, resp.Headers, "X-Request-Id")
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
}
