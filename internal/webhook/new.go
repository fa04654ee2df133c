package webhook

import (
	"sync"

	"ci-integration-agent/config"
	pkgLog "ci-integration-agent/pkg/log"
)

// maxRecentEvents bounds the observability ring.
const maxRecentEvents = 100

// Processor verifies, parses and queues CI webhooks, and dispatches queued events to
// registered handlers from a single consumer goroutine.
type Processor struct {
	cfg             config.WebhookConfig
	l               pkgLog.Logger
	parser          *Parser
	security        *SecurityValidator
	signatureHeader string
	maxQueueSize    int
	queue           chan queueItem

	// mu guards stats, recent and seq.
	mu     sync.Mutex
	stats  Stats
	recent []RecentEvent
	seq    uint64

	handlersMu sync.RWMutex
	handlers   []registeredHandler

	stateMu sync.Mutex
	state   State
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New builds a stopped processor. The queue exists from construction, so events accepted
// before Start are dispatched once the consumer loop is up.
func New(cfg config.IntegrationConfig, l pkgLog.Logger) *Processor {
	wh := cfg.Webhook

	maxQueueSize := wh.MaxQueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = config.DefaultMaxQueueSize
	}
	header := wh.SignatureHeader
	if header == "" {
		header = config.DefaultSignatureHeader
	}

	return &Processor{
		cfg:    wh,
		l:      l,
		parser: NewParser(),
		security: NewSecurityValidator(SecurityConfig{
			Secret:          wh.Secret.Reveal(),
			AllowedIPs:      wh.AllowedIPs,
			RateLimitPerMin: wh.RateLimitPerMin,
		}),
		signatureHeader: header,
		maxQueueSize:    maxQueueSize,
		queue:           make(chan queueItem, maxQueueSize),
		recent:          make([]RecentEvent, 0, maxRecentEvents),
		handlers:        make([]registeredHandler, 0),
		state:           StateStopped,
	}
}

// Security exposes the validator so the HTTP layer can apply the allow-list and rate limit.
func (p *Processor) Security() *SecurityValidator {
	return p.security
}
