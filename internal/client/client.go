// Package client is the HTTP client for the trip persistence API.
// Every call returns a typed error: domain.ErrTransport for network failures,
// domain.ErrDecode for malformed bodies, and *domain.StatusError for non-2xx
// responses (which matches domain.ErrNotFound on 404).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/pkordes/itinerary/internal/domain"
)

const tracerName = "github.com/pkordes/itinerary/internal/client"

// TripClient talks to the trip persistence API.
type TripClient struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
}

// Option configures a TripClient.
type Option func(*TripClient)

// WithHTTPClient replaces the default *http.Client (10s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(tc *TripClient) { tc.http = c }
}

// New constructs a TripClient for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *TripClient {
	c := &TripClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches a trip by id (GET /trip/{id}).
func (c *TripClient) Get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	ctx, span := c.tracer.Start(ctx, "TripClient.Get", trace.WithAttributes(attribute.String("trip.id", id.String())))
	defer span.End()

	trip, err := c.get(ctx, id)
	if err != nil {
		recordError(span, err)
		return domain.Trip{}, fmt.Errorf("client.TripClient.Get: %w", err)
	}
	return trip, nil
}

// Save stores the whole trip (POST /trip). The server keeps the last write.
func (c *TripClient) Save(ctx context.Context, trip domain.Trip) error {
	ctx, span := c.tracer.Start(ctx, "TripClient.Save", trace.WithAttributes(attribute.String("trip.id", trip.ID.String())))
	defer span.End()

	if err := c.save(ctx, trip); err != nil {
		recordError(span, err)
		return fmt.Errorf("client.TripClient.Save: %w", err)
	}
	return nil
}

func (c *TripClient) get(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	pathID, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return domain.Trip{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/trip/"+pathID, nil)
	if err != nil {
		return domain.Trip{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return domain.Trip{}, err
	}
	defer resp.Body.Close()

	var trip domain.Trip
	if err := json.NewDecoder(resp.Body).Decode(&trip); err != nil {
		return domain.Trip{}, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return trip, nil
}

func (c *TripClient) save(ctx context.Context, trip domain.Trip) error {
	body, err := json.Marshal(trip)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/trip", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends req and turns transport failures and non-2xx responses into
// typed errors. On success the caller owns resp.Body.
func (c *TripClient) do(req *http.Request) (*http.Response, error) {
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &domain.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
