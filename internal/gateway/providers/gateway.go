package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/genai-playground/gateway/internal/shared/database"
	"github.com/genai-playground/gateway/internal/shared/metrics"
	"github.com/genai-playground/gateway/internal/shared/models"
)

// Gateway orchestrates one image generation call: resolve the model, shape
// the payload, make a single upstream round trip, normalize the response,
// and persist a history record best-effort. No retries: upstream calls are
// not assumed idempotent since each may incur billable compute.
type Gateway struct {
	registry *Registry
	apiKey   string
	client   *http.Client
	history  database.HistoryStore
	metrics  *metrics.Collector
	logger   *zap.Logger
	now      func() time.Time
}

// NewGateway creates the generation gateway. The HTTP client carries the
// upstream timeout; job-style COMPLETED responses can take minutes.
func NewGateway(registry *Registry, apiKey string, timeout time.Duration, history database.HistoryStore, collector *metrics.Collector, logger *zap.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
		history:  history,
		metrics:  collector,
		logger:   logger,
		now:      time.Now,
	}
}

// Generate produces an image from a text prompt.
func (g *Gateway) Generate(ctx context.Context, username, prompt, model string) ([]byte, error) {
	return g.run(ctx, username, prompt, model, "")
}

// Edit produces an image from a prompt and a source image. Models without
// image-input support are rejected before any network call.
func (g *Gateway) Edit(ctx context.Context, username, prompt, model, sourceImage string) ([]byte, error) {
	if sourceImage == "" {
		return nil, &UnsupportedEditError{Model: model}
	}
	return g.run(ctx, username, prompt, model, sourceImage)
}

func (g *Gateway) run(ctx context.Context, username, prompt, model, sourceImage string) ([]byte, error) {
	if g.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	desc, err := g.registry.Resolve(model)
	if err != nil {
		return nil, err
	}

	payload, err := Shape(desc, prompt, sourceImage)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, desc.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := g.now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.countError(model, "transport")
		return nil, &UpstreamError{StatusCode: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		g.countError(model, "transport")
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: err.Error()}
	}
	if g.metrics != nil {
		g.metrics.UpstreamDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
	}

	image, err := Normalize(desc, resp.StatusCode, respBody)
	if err != nil {
		g.countError(model, errorKind(err))
		return nil, err
	}

	g.persist(ctx, username, prompt, model, image)
	return image, nil
}

// persist appends the history record. Failures are logged and counted but
// never propagated: generation success is independent of history
// durability.
func (g *Gateway) persist(ctx context.Context, username, prompt, model string, image []byte) {
	rec := &models.HistoryRecord{
		Username:  username,
		Prompt:    prompt,
		Model:     model,
		Timestamp: g.now().UTC(),
		ImageSize: len(image),
		ImageData: base64.StdEncoding.EncodeToString(image),
	}
	if err := g.history.Append(ctx, rec); err != nil {
		g.logger.Warn("failed to save history record",
			zap.String("username", username),
			zap.String("model", model),
			zap.Error(err))
		if g.metrics != nil {
			g.metrics.HistoryWriteFailures.Inc()
		}
	}
}

func (g *Gateway) countError(model, kind string) {
	if g.metrics != nil {
		g.metrics.UpstreamErrors.WithLabelValues(model, kind).Inc()
	}
}

func errorKind(err error) string {
	var upstream *UpstreamError
	var missing *MissingOutputError
	var malformed *MalformedImageError
	switch {
	case errors.As(err, &upstream):
		return "http"
	case errors.As(err, &missing):
		return "missing_output"
	case errors.As(err, &malformed):
		return "malformed_image"
	}
	return "other"
}
