// internal/pkg/httpclient/client.go

package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Resolver 把逻辑服务名解析成可访问的 base URL (例如 http://10.0.0.3:8080)。
type Resolver interface {
	Resolve(ctx context.Context, service string) (string, error)
}

// StaticResolver 使用配置文件中写死的地址
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, service string) (string, error) {
	base, ok := r[service]
	if !ok || base == "" {
		return "", fmt.Errorf("no address configured for service %q", service)
	}
	return strings.TrimRight(base, "/"), nil
}

// StatusError 表示下游服务返回了非 2xx 状态码。
// Message 取自响应体中的 "message" 字段，没有时退化为状态文本。
type StatusError struct {
	Service    string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.StatusCode, e.Message)
}

// Request 描述一次下游调用
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   any
}

// Client 是一个可追踪的、可注入的HTTP客户端
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
	resolver   Resolver
	timeout    time.Duration
}

// NewClient 创建一个新的客户端实例。
// http.Client 不设置 Timeout，单次调用的超时由 CallService 内部的 context 控制。
func NewClient(tracer trace.Tracer, resolver Resolver, timeout time.Duration) *Client {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &Client{
		Tracer:     tracer,
		HTTPClient: httpClient,
		resolver:   resolver,
		timeout:    timeout,
	}
}

// CallService 调用一个下游服务，out 不为 nil 时把 JSON 响应体解码进去。
// 服务发现、追踪、超时与错误翻译都在这里完成。
func (c *Client) CallService(ctx context.Context, service string, req Request, out any) error {
	ctx, span := c.Tracer.Start(ctx, fmt.Sprintf("call-%s", service), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	base, err := c.resolver.Resolve(ctx, service)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "service discovery failed")
		return errors.Wrapf(err, "resolve %s", service)
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return errors.Wrapf(err, "encode request to %s", service)
		}
		body = bytes.NewReader(payload)
	}

	target := base + req.Path
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "build request to %s", service)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", target),
		attribute.String("http.method", req.Method),
		attribute.String("peer.service", service),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return errors.Wrapf(err, "call %s %s", req.Method, target)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		span.RecordError(err)
		return errors.Wrapf(err, "read response from %s", service)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Service: service, StatusCode: resp.StatusCode, Message: remoteMessage(raw, resp.Status)}
		span.RecordError(statusErr)
		span.SetStatus(codes.Error, statusErr.Error())
		return statusErr
	}

	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			span.RecordError(err)
			return errors.Wrapf(err, "decode response from %s", service)
		}
	}
	return nil
}

func remoteMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}
