package pairing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/xrplto/wallet/internal/common"
	"github.com/xrplto/wallet/internal/logging"
	"github.com/xrplto/wallet/internal/model"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 150

	cancelTimeout = 5 * time.Second
)

// ErrInvalidState is returned when an operation is not allowed in the current state.
var ErrInvalidState = errors.New("invalid pairing session state")

// Backend is the provider side of a push/QR pairing.
type Backend interface {
	CreateLogin(ctx context.Context) (*model.LoginTicket, error)
	LoginStatus(ctx context.Context, uuid string) (*model.LoginStatus, error)
	CancelLogin(ctx context.Context, uuid string) error
}

// Options tunes a session. Zero values take the defaults.
type Options struct {
	PollInterval time.Duration
	MaxAttempts  int
	Clock        clock.Clock
}

// Session is one push/QR pairing handshake. All of its counters, timers and
// the in-flight guard live here; sessions never share state.
type Session struct {
	ID        string
	Provider  model.Provider
	QRPayload string
	DeepLink  string

	backend     Backend
	clock       clock.Clock
	interval    time.Duration
	maxAttempts int
	log         *logrus.Entry

	// inFlight is set while a status check is outstanding. At most one check
	// per session exists at any time; ticks that find it set are skipped.
	inFlight atomic.Bool

	mu                sync.Mutex
	state             State
	attemptsRemaining int
	profile           *model.AccountProfile
	ticker            *clock.Ticker
	onResolved        func(*Session)
	stop              chan struct{}
	done              chan struct{}
}

// New returns an idle session for provider.
func New(backend Backend, provider model.Provider, opts Options) *Session {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Session{
		Provider:          provider,
		backend:           backend,
		clock:             opts.Clock,
		interval:          opts.PollInterval,
		maxAttempts:       opts.MaxAttempts,
		attemptsRemaining: opts.MaxAttempts,
		log:               logging.Component("pairing").WithField("provider", provider),
		stop:              make(chan struct{}),
		done:              make(chan struct{}),
	}
}

// Initiate creates a session and asks the provider for a pairing ticket.
func Initiate(ctx context.Context, backend Backend, provider model.Provider, opts Options) (*Session, error) {
	s := New(backend, provider, opts)
	if err := s.Initiate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Initiate calls the provider's create-pairing endpoint: Idle -> Initiated.
func (s *Session) Initiate(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: initiate from %s", ErrInvalidState, st)
	}
	s.mu.Unlock()

	ticket, err := s.backend.CreateLogin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create pairing: %w", err)
	}
	if ticket.UUID == "" {
		return errors.New("failed to create pairing: empty correlation id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		// cancelled while the request was in flight
		return fmt.Errorf("%w: initiate from %s", ErrInvalidState, s.state)
	}
	s.ID = ticket.UUID
	s.QRPayload = ticket.QRURL
	s.DeepLink = string(ticket.Next)
	s.state = StateInitiated
	s.log = s.log.WithField("session", s.ID)
	s.log.Debug("pairing initiated")
	return nil
}

// StartPolling moves an initiated session to Polling and checks the provider
// every poll interval. onResolved, if set, runs once after the terminal
// transition (it does not run for Cancel). Cancelling ctx cancels the session.
func (s *Session) StartPolling(ctx context.Context, onResolved func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateInitiated {
		return fmt.Errorf("%w: start polling from %s", ErrInvalidState, s.state)
	}
	s.state = StatePolling
	s.onResolved = onResolved
	s.ticker = s.clock.Ticker(s.interval)
	go s.run(ctx, s.ticker.C)
	return nil
}

func (s *Session) run(ctx context.Context, ticks <-chan time.Time) {
	for {
		select {
		case <-s.stop:
			return
		case <-ctx.Done():
			cctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
			s.Cancel(cctx)
			cancel()
			return
		case <-ticks:
			s.tick(ctx)
		}
	}
}

// tick consumes one attempt and launches a status check, unless one is
// still outstanding.
func (s *Session) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Debug("status check in flight, skipping tick")
		return
	}

	s.mu.Lock()
	if s.state != StatePolling {
		s.mu.Unlock()
		s.inFlight.Store(false)
		return
	}
	s.attemptsRemaining--
	s.mu.Unlock()

	go s.check(ctx)
}

func (s *Session) check(ctx context.Context) {
	defer s.inFlight.Store(false)

	status, err := s.backend.LoginStatus(ctx, s.ID)

	s.mu.Lock()
	if s.state != StatePolling {
		// late response for a session that already resolved or was cancelled
		s.mu.Unlock()
		return
	}

	next := StatePolling
	switch {
	case err != nil:
		s.log.WithError(err).Warn("status check failed, will retry")
	case status == nil:
		// no answer yet
	case status.Profile != nil:
		profile := *status.Profile
		profile.Provider = s.Provider
		s.profile = &profile
		next = StateConfirmed
	case status.Status == model.LoginStatusRejected:
		next = StateRejected
	case status.Status == model.LoginStatusExpired:
		next = StateExpired
	}
	if next == StatePolling && s.attemptsRemaining <= 0 {
		next = StateExpired
	}
	if next == StatePolling {
		s.mu.Unlock()
		return
	}

	s.finishLocked(next)
	cb := s.onResolved
	s.mu.Unlock()

	s.log.WithField("state", next).Info("pairing resolved")
	if cb != nil {
		cb(s)
	}
}

// finishLocked performs the single terminal transition. The ticker is
// stopped before the new state is visible.
func (s *Session) finishLocked(state State) {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	close(s.stop)
	s.state = state
	close(s.done)
}

// Cancel moves a non-terminal session to Cancelled and tells the provider,
// ignoring any error from that call. Cancelling a terminal session is a no-op.
func (s *Session) Cancel(ctx context.Context) {
	s.mu.Lock()
	if s.state.Terminal() {
		s.mu.Unlock()
		return
	}
	s.finishLocked(StateCancelled)
	id := s.ID
	s.mu.Unlock()

	if id == "" {
		return
	}
	if err := s.backend.CancelLogin(ctx, id); err != nil {
		s.log.WithError(err).Debug("cancel notification failed")
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AttemptsRemaining returns how many status checks are left.
func (s *Session) AttemptsRemaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptsRemaining
}

// Profile returns the resolved profile once the session is Confirmed.
func (s *Session) Profile() *model.AccountProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Done is closed on the terminal transition.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// QRCode renders the QR payload as a base64 PNG.
func (s *Session) QRCode(size int) (string, error) {
	if s.QRPayload == "" {
		return "", errors.New("session has no QR payload")
	}
	return common.QRCodePNG(s.QRPayload, size)
}
