// Package notion wraps the notionapi SDK for the two calls the bot needs,
// creating a database page and querying a database, behind a circuit
// breaker with per-call metrics and spans.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskbot/config"
	"taskbot/pkg/circuitbreaker"
	"taskbot/pkg/metrics"
	"taskbot/pkg/otel"
	"taskbot/pkg/trace"
	"taskbot/pkg/util"

	"github.com/jomei/notionapi"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const defaultAPIHost = "api.notion.com"

type Client struct {
	api    *notionapi.Client
	cb     *circuitbreaker.CircuitBreaker
	logger *zap.Logger
}

func NewClient(cfg config.NotionConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if base, err := url.Parse(cfg.BaseURL); err == nil && base.Host != "" && base.Host != defaultAPIHost {
		httpClient.Transport = &rebaseTransport{base: base, next: http.DefaultTransport}
	}

	opts := []notionapi.ClientOption{notionapi.WithHTTPClient(httpClient)}
	if cfg.Version != "" {
		opts = append(opts, notionapi.WithVersion(cfg.Version))
	}

	cbConfig := circuitbreaker.Config{
		Name:                "notion",
		FailureThreshold:    5,
		SuccessThreshold:    1,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.RecordCircuitTransition(name, to.String())
		},
	}

	return &Client{
		api:    notionapi.NewClient(notionapi.Token(cfg.Token), opts...),
		cb:     circuitbreaker.NewCircuitBreaker(cbConfig),
		logger: logger,
	}
}

// CreatePage adds a page with props to the database.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
	var page *notionapi.Page
	err := c.call(ctx, "create_page", func(ctx context.Context) error {
		var err error
		page, err = c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(databaseID),
			},
			Properties: props,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// QueryDatabase returns one page of results.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	var resp *notionapi.DatabaseQueryResponse
	err := c.call(ctx, "query_database", func(ctx context.Context) error {
		var err error
		resp, err = c.api.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := otel.StartClientSpan(ctx, "notion."+operation,
		attribute.String("notion.operation", operation),
	)

	start := time.Now()
	err := c.cb.Execute(func() error {
		return asAPIError(fn(ctx))
	})
	latency := time.Since(start)
	status := util.ClassifyError(err)
	metrics.RecordStoreCallDuration(operation, status, latency)
	otel.EndSpan(span, err)

	if err != nil {
		c.logger.Error("Notion call failed",
			zap.String("trace_id", trace.FromContext(ctx)),
			zap.String("operation", operation),
			zap.String("status", status),
			zap.Duration("latency", latency),
			zap.Error(err),
		)
		return fmt.Errorf("notion %s: %w", operation, err)
	}
	return nil
}

// asAPIError maps SDK errors onto util.APIError so they are classified like
// every other collaborator's.
func asAPIError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return &util.APIError{
			Service:    "notion",
			StatusCode: apiErr.Status,
			Body:       strings.TrimSpace(string(apiErr.Code) + " " + apiErr.Message),
		}
	}
	return err
}

// rebaseTransport sends SDK requests to a different host, e.g. a proxy or
// a local fake.
type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.URL.Path = strings.TrimRight(t.base.Path, "/") + req.URL.Path
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
