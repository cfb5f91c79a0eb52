package webhook

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/resilience"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var (
	errWebhookTransient = crerr.New("webhook transient failure")
	ErrQueueFull        = crerr.New("webhook queue full")
)

var tracer = otel.Tracer("ctf-scoreboard/external/webhook")

const (
	defaultQueueSize   = 256
	defaultMaxAttempts = 3
	maxLoggedBody      = 2048
)

type Config struct {
	URL            string
	Token          string
	Timeout        time.Duration
	QueueSize      int
	MaxAttempts    int
	RetryBackoff   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Announcement is the JSON body posted for every solve.
type Announcement struct {
	Type             string `json:"type"`
	EventID          string `json:"eventId"`
	TeamID           int64  `json:"teamId"`
	ChallengeID      string `json:"challengeId"`
	CTFID            string `json:"ctfId"`
	Points           int    `json:"points"`
	TimeTakenSeconds int64  `json:"timeTakenSeconds"`
	OccurredAt       string `json:"occurredAt"`
}

// Announcer posts solve announcements to an outbound webhook, such as a class
// chat channel. Delivery is asynchronous: OnScoreEvent only enqueues.
type Announcer struct {
	client      *fasthttp.Client
	url         string
	token       string
	timeout     time.Duration
	maxAttempts int
	backoff     time.Duration
	queue       chan Announcement
	breaker     *resilience.CircuitBreaker
	logger      *logging.Logger
	now         func() time.Time

	closeOnce sync.Once
	closed    atomic.Bool
	mu        sync.RWMutex
	done      chan struct{}

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

func NewAnnouncer(cfg Config, logger *logging.Logger) (*Announcer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid WEBHOOK_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	breaker := resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("webhook circuit changed", "from", string(from), "to", string(to))
	})

	return &Announcer{
		client: &fasthttp.Client{
			Name:                "ctf-scoreboard-webhook",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		url:         target,
		token:       strings.TrimSpace(cfg.Token),
		timeout:     timeout,
		maxAttempts: maxAttempts,
		backoff:     backoff,
		queue:       make(chan Announcement, queueSize),
		breaker:     breaker,
		logger:      logger,
		now:         time.Now,
		done:        make(chan struct{}),
	}, nil
}

// OnScoreEvent enqueues correct solves. Other kinds are ignored.
func (a *Announcer) OnScoreEvent(ctx context.Context, event usecase.ScoreEvent) {
	if event.Kind != usecase.ScoreEventSolved {
		return
	}
	item := Announcement{
		Type:             "solve",
		EventID:          event.EventID,
		TeamID:           event.TeamID,
		ChallengeID:      event.ChallengeID,
		CTFID:            event.CTFID,
		Points:           event.Points,
		TimeTakenSeconds: event.TimeTakenSeconds,
		OccurredAt:       a.now().UTC().Format(time.RFC3339),
	}
	if err := a.Enqueue(item); err != nil {
		a.logger.WarnContext(ctx, "webhook announcement dropped",
			"event_id", event.EventID,
			"team_id", event.TeamID,
			"error", err,
		)
	}
}

func (a *Announcer) Enqueue(item Announcement) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed.Load() {
		return crerr.New("webhook announcer closed")
	}
	select {
	case a.queue <- item:
		return nil
	default:
		a.dropped.Add(1)
		return ErrQueueFull
	}
}

// Run delivers queued announcements until ctx is done or Close drains the
// queue.
func (a *Announcer) Run(ctx context.Context) {
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-a.queue:
			if !ok {
				return
			}
			if err := a.deliver(ctx, item); err != nil {
				a.logger.WarnContext(ctx, "webhook delivery failed",
					"event_id", item.EventID,
					"team_id", item.TeamID,
					"challenge_id", item.ChallengeID,
					"error", err,
				)
				continue
			}
			a.delivered.Add(1)
		}
	}
}

// Close stops accepting announcements and waits for Run to flush.
func (a *Announcer) Close(ctx context.Context) error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed.Store(true)
		close(a.queue)
		a.mu.Unlock()
	})
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Announcer) Delivered() uint64 { return a.delivered.Load() }

func (a *Announcer) Dropped() uint64 { return a.dropped.Load() }

func (a *Announcer) deliver(ctx context.Context, item Announcement) error {
	ctx, span := tracer.Start(ctx, "webhook.Announcer.deliver")
	defer span.End()

	body, err := sonic.Marshal(item)
	if err != nil {
		return crerr.Wrap(err, "marshal webhook announcement")
	}

	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("webhook.url", a.url),
			attribute.String("webhook.event_id", item.EventID),
			attribute.Int64("webhook.team_id", item.TeamID),
			attribute.String("webhook.request_curl_preview", buildCurlPreview(a.url, truncateForLog(string(body), maxLoggedBody), a.token != "")),
		)
	}

	var lastErr error
retry:
	for attempt := 1; attempt <= a.maxAttempts; attempt++ {
		lastErr = a.breaker.Execute(func() error {
			return a.post(body)
		}, isTransient)
		if lastErr == nil {
			a.logger.InfoContext(ctx, "webhook announcement delivered",
				"event_id", item.EventID,
				"team_id", item.TeamID,
				"attempt", attempt,
			)
			return nil
		}
		if !isTransient(lastErr) || attempt == a.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(a.backoff * time.Duration(1<<(attempt-1))):
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	span.SetAttributes(attribute.String("webhook.circuit_state", string(a.breaker.State())))
	return lastErr
}

func (a *Announcer) post(body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(a.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	req.SetBody(body)

	if err := a.client.DoTimeout(req, resp, a.timeout); err != nil {
		return crerr.Mark(crerr.Wrapf(err, "post webhook url=%s", a.url), errWebhookTransient)
	}

	status := resp.StatusCode()
	if status/100 == 2 {
		return nil
	}
	callErr := crerr.Newf("post webhook status=%d body=%s", status, truncateForLog(strings.TrimSpace(string(resp.Body())), 512))
	if isRetryableStatus(status) {
		return crerr.Mark(callErr, errWebhookTransient)
	}
	return callErr
}

func isTransient(err error) bool {
	return crerr.Is(err, errWebhookTransient)
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == fasthttp.StatusRequestTimeout ||
		statusCode == fasthttp.StatusTooManyRequests ||
		statusCode >= fasthttp.StatusInternalServerError
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return candidate, nil
}

func buildCurlPreview(target, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(target))
	if withToken {
		appendPart("-H " + shellQuote("Authorization: Bearer ***"))
	}
	appendPart("-H " + shellQuote("Content-Type: application/json"))
	appendPart("-d " + shellQuote(body))
	appendPart("# bytes=" + strconv.Itoa(len(body)))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
