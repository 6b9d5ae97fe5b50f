package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/commit-webhooks/config"
	"github.com/marcelsud/commit-webhooks/metrics"
	"github.com/marcelsud/commit-webhooks/providers"
	"github.com/marcelsud/commit-webhooks/webhook/dispatch"
	"github.com/marcelsud/commit-webhooks/webhook/event"
	"github.com/marcelsud/commit-webhooks/webhook/verification"
	"github.com/rs/zerolog"
)

/* Pipeline authenticates and applies one inbound delivery:
 * validate -> replay guard -> verify -> normalize -> dispatch -> respond
 * Every stage may end the request. Nothing reaches the dispatcher unless the
 * signature was verified and the body normalized.
 */

// UseCase is what the HTTP layer needs from the pipeline
type UseCase interface {
	Handle(ctx context.Context, req InboundRequest) Response
	Providers() []*providers.Provider
}

// Dispatcher applies a verified event
type Dispatcher interface {
	Dispatch(ctx context.Context, deliveryID string, ev event.Event) dispatch.Outcome
}

type route struct {
	provider   *providers.Provider
	verifier   *verification.Verifier
	secretErr  error
	normalizer event.Normalizer
	guard      ReplayGuard
}

type Pipeline struct {
	catalog    *providers.Catalog
	routes     map[string]*route
	dispatcher Dispatcher
	recorder   metrics.Recorder
	logger     zerolog.Logger
	verbose    bool
	now        func() time.Time
	newID      func() string
}

// Option customises a Pipeline
type Option func(*Pipeline)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// WithVerifier replaces the verifier built from the provider's secret
func WithVerifier(providerID string, v *verification.Verifier) Option {
	return func(p *Pipeline) {
		if r, ok := p.routes[providerID]; ok {
			r.verifier = v
			r.secretErr = nil
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the base logger
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline builds a route per provider. A secret that fails format checks
// does not stop startup: it is logged here and every request to that provider
// answers INVALID_SECRET_FORMAT.
func NewPipeline(cfg *config.Config, catalog *providers.Catalog, dispatcher Dispatcher, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		catalog:    catalog,
		routes:     make(map[string]*route),
		dispatcher: dispatcher,
		recorder:   metrics.Nop{},
		logger:     zerolog.Nop(),
		verbose:    !cfg.IsProduction(),
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}

	for _, prov := range catalog.List() {
		normalizer, err := event.ForScheme(prov.Scheme)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", prov.ID, err)
		}
		r := &route{
			provider:   prov,
			normalizer: normalizer,
			guard:      ReplayGuard{Tolerance: prov.Tolerance, Skew: prov.Skew},
		}
		r.verifier, r.secretErr = verification.ForProvider(prov, cfg.Secret(prov.SecretEnv))
		p.routes[prov.ID] = r
	}

	for _, opt := range opts {
		opt(p)
	}

	for _, r := range p.routes {
		if r.secretErr != nil {
			p.logger.Error().
				Str("provider", r.provider.ID).
				Str("secret_env", r.provider.SecretEnv).
				Err(r.secretErr).
				Msg("webhook secret is misconfigured, deliveries will be rejected")
		}
	}
	return p, nil
}

// Providers lists the configured providers in catalog order
func (p *Pipeline) Providers() []*providers.Provider {
	return p.catalog.List()
}

// Handle runs one delivery through the pipeline. It never panics on bad input
// and always returns a response to send back to the provider.
func (p *Pipeline) Handle(ctx context.Context, req InboundRequest) Response {
	start := p.now()
	requestID := p.newID()
	logger := p.logger.With().
		Str("request_id", requestID).
		Str("provider", req.Provider).
		Logger()
	ctx = logger.WithContext(ctx)

	resp := p.handle(ctx, &logger, req)
	resp.RequestID = requestID

	elapsed := p.now().Sub(start)
	if resp.Success {
		ms := elapsed.Milliseconds()
		resp.ProcessingTime = &ms
	}
	p.recorder.Request(ctx, req.Provider, resp.ErrorCode(), resp.Status)
	p.recorder.Duration(ctx, req.Provider, elapsed)
	return resp
}

func (p *Pipeline) handle(ctx context.Context, logger *zerolog.Logger, req InboundRequest) Response {
	r, ok := p.routes[req.Provider]
	if !ok {
		logger.Warn().Msg("delivery for unknown provider")
		return reject(http.StatusNotFound, UnknownProvider, fmt.Sprintf("unknown provider %q", req.Provider))
	}
	prov := r.provider

	// structural checks, all collected
	v := Validate(prov, req)
	if !v.Valid() {
		logger.Warn().Strs("errors", v.Errors).Strs("missing_headers", v.Missing).Msg("delivery failed validation")
		resp := reject(http.StatusBadRequest, ValidationFailed, "request failed validation", v.Errors...)
		resp.Warnings = v.Warnings
		return resp
	}
	warnings := v.Warnings
	meta := v.Metadata

	// replay guard, before any cryptographic work
	if prov.Scheme.Timestamped() {
		warning, err := r.guard.Check(meta.Timestamp, p.now())
		if err != nil {
			logger.Warn().Int64("timestamp", meta.Timestamp).Str("delivery_id", meta.DeliveryID).Err(err).Msg("stale delivery rejected")
			return reject(http.StatusBadRequest, TimestampTooOld, "delivery timestamp is outside the tolerance window")
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
	} else {
		logger.Debug().Str("replay_guard", "upstream_dedup").Msg("scheme has no timestamp, replay protection is the provider's delivery id")
	}
	for _, w := range warnings {
		logger.Warn().Str("delivery_id", meta.DeliveryID).Msg(w)
	}

	body, err := readBody(req.Body, prov.MaxBodyBytes)
	if err != nil {
		logger.Warn().Err(err).Msg("reading delivery body")
		resp := reject(http.StatusBadRequest, ValidationFailed, "request failed validation", err.Error())
		resp.Warnings = warnings
		return resp
	}

	if r.secretErr != nil {
		logger.Error().Str("secret_env", prov.SecretEnv).Err(r.secretErr).Msg("webhook secret is misconfigured")
		return reject(http.StatusInternalServerError, InvalidSecretFormat, "webhook secret is misconfigured")
	}

	result := r.verifier.Verify(verification.Delivery{
		ID:        meta.DeliveryID,
		Timestamp: meta.RawTimestamp,
		Signature: meta.Signature,
		Body:      body,
	})
	p.recorder.Verification(ctx, prov.ID, result.Strategy.String(), result.Verified)
	if !result.Verified {
		logger.Error().
			Str("delivery_id", meta.DeliveryID).
			AnErr("primary_error", result.PrimaryErr).
			AnErr("fallback_error", result.FallbackErr).
			Msg("signature verification failed under both strategies")
		resp := reject(http.StatusBadRequest, SignatureVerificationFailed, "signature verification failed")
		if p.verbose {
			resp.Diagnostics = diagnostics(result)
		}
		return resp
	}
	if result.Strategy == verification.Fallback {
		logger.Warn().AnErr("primary_error", result.PrimaryErr).Msg("primary verification failed, fallback verified the delivery")
	}

	ev, err := r.normalizer.Normalize(prov.ID, body, req.ReceivedAt)
	if err != nil {
		logger.Warn().Str("delivery_id", meta.DeliveryID).Err(err).Msg("verified delivery is malformed")
		return reject(http.StatusBadRequest, MalformedEvent, "event is missing required fields", err.Error())
	}

	if ev.Kind == event.Unrecognized {
		logger.Info().Str("event_type", ev.Type).Str("delivery_id", meta.DeliveryID).Msg("unrecognized event acknowledged")
		p.recorder.Outcome(ctx, prov.ID, ev.Kind.String(), dispatch.Ignored.String())
		return accept(ev.Type, dispatch.Ignored.String(), "event type is not handled", warnings)
	}

	out := p.dispatcher.Dispatch(ctx, meta.DeliveryID, ev)
	p.recorder.Outcome(ctx, prov.ID, ev.Kind.String(), out.Status.String())

	switch out.Status {
	case dispatch.Failed:
		logger.Error().
			Str("event_kind", ev.Kind.String()).
			Str("delivery_id", meta.DeliveryID).
			Err(out.Err).
			Msg("verified event failed to apply")
		resp := accept(ev.Kind.String(), out.Status.String(), "event acknowledged but not applied", warnings)
		resp.Error = ProcessingError
		if p.verbose {
			resp.Diagnostics = []string{out.Reason}
		}
		return resp
	case dispatch.AlreadyApplied:
		return accept(ev.Kind.String(), out.Status.String(), "event already applied", warnings)
	case dispatch.Ignored:
		return accept(ev.Type, out.Status.String(), "event type is not handled", warnings)
	default:
		logger.Info().Str("event_kind", ev.Kind.String()).Str("delivery_id", meta.DeliveryID).Msg("event applied")
		return accept(ev.Kind.String(), out.Status.String(), "event applied", warnings)
	}
}

func accept(eventType, outcome, message string, warnings []string) Response {
	return Response{
		Status:    http.StatusOK,
		Success:   true,
		Message:   message,
		EventType: eventType,
		Outcome:   outcome,
		Warnings:  warnings,
	}
}

func diagnostics(r verification.Result) []string {
	var out []string
	if r.PrimaryErr != nil {
		out = append(out, "primary: "+r.PrimaryErr.Error())
	}
	if r.FallbackErr != nil {
		out = append(out, "fallback: "+r.FallbackErr.Error())
	}
	return out
}

var errBodyTooLarge = errors.New("request body exceeds maximum size")

// readBody reads at most max bytes. A chunked body with no declared length is
// cut off one byte past the cap so oversize bodies are detected without being
// buffered.
func readBody(body io.Reader, max int64) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("request body is empty")
	}
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(body, max+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if n > max {
		return nil, errBodyTooLarge
	}
	if n == 0 {
		return nil, fmt.Errorf("request body is empty")
	}
	return buf.Bytes(), nil
}
