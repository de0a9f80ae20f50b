package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hookwatch/internal/payload"
	"hookwatch/internal/rules"
	"hookwatch/pkg/channel"
)

// maxResponseDump caps the response body kept for failure records.
const maxResponseDump = 4 << 10

// Options configures a Dispatcher.
type Options struct {
	DefaultWebhook string
	Policy         RetryPolicy
	Timeout        time.Duration
	Client         *http.Client // optional, Timeout is ignored when set
	Logger         zerolog.Logger
}

// Request is one relay job.
type Request struct {
	Endpoint string
	Payload  payload.Payload
	Message  channel.Message
}

// Result describes the outcome of Deliver.
type Result struct {
	ID         string
	Endpoint   string
	Attempts   int
	StatusCode int
	Delivered  bool
	Err        error
	Duration   time.Duration
}

// Dispatcher POSTs payloads to webhooks.
type Dispatcher struct {
	client         *http.Client
	policy         RetryPolicy
	defaultWebhook string
	logger         zerolog.Logger
	stats          Stats
	wg             sync.WaitGroup
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &Dispatcher{
		client:         client,
		policy:         opts.Policy,
		defaultWebhook: opts.DefaultWebhook,
		logger:         opts.Logger.With().Str("component", "delivery").Logger(),
	}
}

// Endpoint resolves the webhook for rule, falling back to the default.
func (d *Dispatcher) Endpoint(rule *rules.ChannelRule) string {
	if rule != nil && rule.WebhookURL() != "" {
		return rule.WebhookURL()
	}
	return d.defaultWebhook
}

// Stats returns the live counters.
func (d *Dispatcher) Stats() *Stats {
	return &d.stats
}

// Dispatch delivers req on its own goroutine. Failures are logged, never
// returned to the caller.
func (d *Dispatcher) Dispatch(req Request) {
	d.stats.dispatched.Add(1)
	d.stats.inFlight.Add(1)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer d.stats.inFlight.Add(-1)
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().Interface("panic", r).Str("channel_id", req.Message.ChannelID).
					Msg("delivery panicked")
			}
		}()
		d.Deliver(context.Background(), req)
	}()
}

// Wait blocks until every dispatched delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("delivery: %d still in flight: %w", d.stats.inFlight.Load(), ctx.Err())
	}
}

// Deliver POSTs req.Payload and retries per the policy. It logs exactly one
// record for the outcome: "Sent" on success or "Failure" once retries are
// exhausted.
func (d *Dispatcher) Deliver(ctx context.Context, req Request) Result {
	start := time.Now()
	res := Result{
		ID:       uuid.NewString(),
		Endpoint: req.Endpoint,
	}
	if res.Endpoint == "" {
		res.Endpoint = d.defaultWebhook
	}
	log := d.logger.With().
		Str("delivery_id", res.ID).
		Str("channel_id", req.Message.ChannelID).
		Str("message_id", req.Message.ID).
		Logger()

	body, err := req.Payload.JSON()
	if err == nil && res.Endpoint == "" {
		err = ErrNoEndpoint
	}
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		d.stats.recordResult(res)
		d.logFailure(log, res, req, body)
		return res
	}

	for retry := 0; ; retry++ {
		res.Attempts++
		code, err := d.post(ctx, res.Endpoint, body)
		res.StatusCode = code
		res.Err = err
		if err == nil {
			break
		}
		if !d.policy.ShouldRetry(retry, err) {
			break
		}

		delay := d.policy.NextDelay(retry)
		log.Debug().Err(err).Int("attempt", res.Attempts).Dur("delay", delay).Msg("retrying webhook")
		if err := sleepContext(ctx, delay); err != nil {
			res.Err = err
			break
		}
	}

	res.Delivered = res.Err == nil
	res.Duration = time.Since(start)
	d.stats.recordResult(res)

	if res.Delivered {
		log.Info().
			Str("event", "sent").
			Int("attempts", res.Attempts).
			Int("status", res.StatusCode).
			Msgf("Sent: %s", body)
		return res
	}
	d.logFailure(log, res, req, body)
	return res
}

// post sends one attempt. A non-2xx answer returns a *StatusError.
func (d *Dispatcher) post(ctx context.Context, endpoint string, body []byte) (int, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, NonRetryable(fmt.Errorf("delivery: build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("delivery: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil
	}

	return resp.StatusCode, &StatusError{
		Code:     resp.StatusCode,
		Status:   resp.Status,
		Response: dumpResponse(resp),
	}
}

// dumpResponse renders the status line, headers and at most maxResponseDump
// bytes of body. The declared length is replaced so DumpResponse does not
// reject a truncated body.
func dumpResponse(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseDump))
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.TransferEncoding = nil
	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return resp.Status
	}
	return string(dump)
}

func (d *Dispatcher) logFailure(log zerolog.Logger, res Result, req Request, body []byte) {
	event := log.Error().
		Str("event", "failed").
		Str("endpoint", RedactURL(res.Endpoint)).
		Int("attempts", res.Attempts).
		Int("status", res.StatusCode).
		Err(res.Err)

	var statusErr *StatusError
	if errors.As(res.Err, &statusErr) {
		event = event.Str("response", statusErr.Response)
	}
	if msg, err := json.Marshal(req.Message); err == nil {
		event = event.RawJSON("source_message", msg)
	}
	if len(body) > 0 {
		event = event.RawJSON("payload", body)
	}

	if statusErr != nil {
		event.Msgf("Failure: %s", statusErr.Status)
		return
	}
	event.Msgf("Failure: %v", res.Err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
