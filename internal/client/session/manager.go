// Package session owns the process-wide authentication state: who is signed
// in, their profile, and the loading/readiness flags the UI keys off.
//
// Every input, whether the initial session resolution at start or an auth
// event pushed by the backend, funnels through the same transition, applied
// under one lock. Inputs may race; whichever completes last wins, and a
// generation counter discards results that became stale mid-flight.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/framezapp/framez/internal/client/backend"
	"github.com/framezapp/framez/internal/client/deeplink"
	"github.com/framezapp/framez/internal/client/models"
	"github.com/framezapp/framez/internal/logging"
)

// Status is the coarse authentication state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusResolving     Status = "resolving"
	StatusAnonymous     Status = "anonymous"
	StatusAuthenticated Status = "authenticated"
)

// Snapshot is an immutable view of the session state.
//
// IsReady latches true after the first resolution completes and never
// reverts, so the UI is never stuck on a spinner across later sign-in/out
// cycles; IsLoading toggles per fetch.
type Snapshot struct {
	Status   Status
	Identity *backend.Identity
	Profile  *models.Profile

	// ProfilePending is true while authenticated but the profile bootstrap
	// has not finished yet.
	ProfilePending bool

	IsLoading bool
	IsReady   bool
}

// ProfileEnsurer lazily creates or fetches the profile for an identity.
type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, identity backend.Identity) (*models.Profile, error)
}

// Options tunes the manager's timeouts and notification hook.
type Options struct {
	// ProfileTimeout bounds each profile bootstrap round-trip.
	ProfileTimeout time.Duration
	// SignOutWait is how long ExpectSignOut waits for the backend's
	// SIGNED_OUT event before clearing local state optimistically.
	SignOutWait time.Duration
	// Notice receives informational one-liners (e.g. email confirmed).
	// May be nil.
	Notice func(msg string)
}

// Manager is the session state machine. It is the sole writer of the
// in-memory session and profile.
type Manager struct {
	client backend.Client
	boot   ProfileEnsurer
	log    logging.Logger
	opts   Options

	mu          sync.Mutex
	snap        Snapshot
	gen         uint64
	closed      bool
	sub         backend.Subscription
	signOutWait *time.Timer
	watchers    map[int]chan Snapshot
	nextWatcher int
}

func NewManager(client backend.Client, boot ProfileEnsurer, log logging.Logger, opts Options) *Manager {
	if opts.ProfileTimeout <= 0 {
		opts.ProfileTimeout = 10 * time.Second
	}
	if opts.SignOutWait <= 0 {
		opts.SignOutWait = 5 * time.Second
	}
	return &Manager{
		client:   client,
		boot:     boot,
		log:      log,
		opts:     opts,
		snap:     Snapshot{Status: StatusUninitialized, IsLoading: true},
		watchers: make(map[int]chan Snapshot),
	}
}

// Start subscribes to pushed auth events and performs the initial session
// resolution. Subscribing first means an event racing the resolution is never
// lost: both paths apply the same transition, and the later one wins.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.snap.Status != StatusUninitialized || m.closed {
		m.mu.Unlock()
		return
	}
	m.snap.Status = StatusResolving
	m.snap.IsLoading = true
	m.mu.Unlock()
	m.notify()

	sub := m.client.OnAuthStateChange(func(event backend.AuthEvent, s *backend.Session) {
		m.handleAuthEvent(ctx, event, s)
	})
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	m.sub = sub
	m.mu.Unlock()

	s, err := m.client.GetSession(ctx)
	if err != nil {
		// The state machine itself never fails: settle anonymous, ready.
		m.log.Warn(ctx, "initial session resolution failed", "error", err)
		s = nil
	}
	m.apply(ctx, s)
}

func (m *Manager) handleAuthEvent(ctx context.Context, event backend.AuthEvent, s *backend.Session) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	m.log.Debug(ctx, "auth event", "event", string(event))

	switch event {
	case backend.EventSignedOut:
		m.apply(ctx, nil)
	default:
		// SIGNED_IN, USER_UPDATED, TOKEN_REFRESHED all carry the session.
		m.apply(ctx, s)
	}
}

// apply is the single transition. A nil session means anonymous; a non-nil
// session enters the authenticated state and kicks off the profile bootstrap
// for its generation.
func (m *Manager) apply(ctx context.Context, s *backend.Session) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.gen++
	gen := m.gen

	// Any transition settles the pending sign-out question, so a stale timer
	// must never outlive it and clear a fresh sign-in.
	if m.signOutWait != nil {
		m.signOutWait.Stop()
		m.signOutWait = nil
	}

	if s == nil {
		m.snap.Status = StatusAnonymous
		m.snap.Identity = nil
		m.snap.Profile = nil
		m.snap.ProfilePending = false
		m.snap.IsLoading = false
		m.snap.IsReady = true
		m.mu.Unlock()
		m.notify()
		return
	}

	identity := s.User
	sameIdentity := m.snap.Identity != nil && m.snap.Identity.ID == identity.ID
	m.snap.Status = StatusAuthenticated
	m.snap.Identity = &identity
	if !sameIdentity {
		m.snap.Profile = nil
	}
	m.snap.ProfilePending = true
	m.snap.IsLoading = true
	m.mu.Unlock()
	m.notify()

	go m.bootstrapProfile(ctx, gen, identity)
}

func (m *Manager) bootstrapProfile(ctx context.Context, gen uint64, identity backend.Identity) {
	bctx, cancel := context.WithTimeout(ctx, m.opts.ProfileTimeout)
	defer cancel()

	profile, err := m.boot.EnsureProfile(bctx, identity)
	if err != nil {
		// Profile is best-effort: report, leave profile nil, do not block
		// the authenticated state.
		m.log.Warn(ctx, "profile bootstrap failed", "user", identity.ID, "error", err)
		profile = nil
	}

	m.mu.Lock()
	if m.closed || gen != m.gen {
		// A later transition superseded this fetch; its result is stale.
		m.mu.Unlock()
		return
	}
	if profile != nil {
		m.snap.Profile = profile
	}
	m.snap.ProfilePending = false
	m.snap.IsLoading = false
	m.snap.IsReady = true
	m.mu.Unlock()
	m.notify()
}

// RefreshProfile re-runs the profile bootstrap for the current identity,
// e.g. after the user edits their profile.
func (m *Manager) RefreshProfile(ctx context.Context) {
	m.mu.Lock()
	if m.closed || m.snap.Identity == nil {
		m.mu.Unlock()
		return
	}
	identity := *m.snap.Identity
	gen := m.gen
	m.snap.ProfilePending = true
	m.snap.IsLoading = true
	m.mu.Unlock()
	m.notify()

	go m.bootstrapProfile(ctx, gen, identity)
}

// ExpectSignOut arms a bounded wait for the backend's SIGNED_OUT event. If
// none arrives within the window, local state is cleared optimistically so
// the user is never stuck signed-in after a sign-out request.
func (m *Manager) ExpectSignOut(ctx context.Context) {
	m.mu.Lock()
	// Nothing to wait for when the sign-out event already landed.
	if m.closed || m.signOutWait != nil || m.snap.Status != StatusAuthenticated {
		m.mu.Unlock()
		return
	}
	m.signOutWait = time.AfterFunc(m.opts.SignOutWait, func() {
		m.mu.Lock()
		armed := m.signOutWait != nil
		m.signOutWait = nil
		stillAuthed := m.snap.Status == StatusAuthenticated
		m.mu.Unlock()
		if armed && stillAuthed {
			m.log.Warn(ctx, "no sign-out event from backend, clearing local state")
			m.apply(ctx, nil)
		}
	})
	m.mu.Unlock()
}

// HandleDeepLink inspects an externally delivered URL for an
// email-confirmation marker. The link is informational only: the state
// transition must come through the backend's own auth event, because the URL
// may arrive before, after, or without one.
func (m *Manager) HandleDeepLink(ctx context.Context, raw string) {
	notice, ok := deeplink.Parse(raw)
	if !ok {
		return
	}
	m.log.Info(ctx, "deep link received", "kind", string(notice.Kind))
	if notice.Kind == deeplink.KindEmailConfirmed && m.opts.Notice != nil {
		m.opts.Notice("Your email has been verified. You can now log in to your account.")
	}
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// Watch returns a channel of state snapshots and a cancel function. The
// channel is buffered; a slow reader misses intermediate snapshots but can
// always recover the latest via Snapshot.
func (m *Manager) Watch() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Snapshot, 8)
	if m.closed {
		close(ch)
		return ch, func() {}
	}
	id := m.nextWatcher
	m.nextWatcher++
	m.watchers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			if _, ok := m.watchers[id]; ok {
				delete(m.watchers, id)
				close(ch)
			}
			m.mu.Unlock()
		})
	}
	return ch, cancel
}

func (m *Manager) notify() {
	m.mu.Lock()
	snap := m.snap
	chans := make([]chan Snapshot, 0, len(m.watchers))
	for _, ch := range m.watchers {
		chans = append(chans, ch)
	}
	m.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close releases the auth event subscription and marks the manager dead.
// Late-arriving events and in-flight profile fetches are discarded.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	if m.signOutWait != nil {
		m.signOutWait.Stop()
		m.signOutWait = nil
	}
	sub := m.sub
	for id, ch := range m.watchers {
		delete(m.watchers, id)
		close(ch)
	}
	m.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}
