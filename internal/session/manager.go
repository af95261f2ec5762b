// Package session owns the authenticated-session lifecycle: login, logout,
// the periodic liveness probe, and the pre-expiry warning with its forced
// redirect to the login route.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cochinpm/client/internal/httpclient"
	"github.com/cochinpm/client/pkg/constants"
	apperrors "github.com/cochinpm/client/pkg/errors"
	"github.com/cochinpm/client/pkg/models"
)

// State is the session lifecycle state
type State string

const (
	StateUnknown         State = "unknown"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
	StateWarning         State = "warning"
)

// Notifier surfaces session events to the UI layer. Implementations render
// the warning notice and perform the navigation; the manager only decides
// when.
type Notifier interface {
	OnStateChange(state State)
	// OnWarning announces the pre-expiry notice with the remaining countdown
	OnWarning(remaining time.Duration)
	// OnRedirect requests navigation to the given client route
	OnRedirect(target string)
}

// NopNotifier ignores all events
type NopNotifier struct{}

func (NopNotifier) OnStateChange(State)     {}
func (NopNotifier) OnWarning(time.Duration) {}
func (NopNotifier) OnRedirect(string)       {}

// Config carries the session tunables; zero values fall back to the
// constants package.
type Config struct {
	SessionDuration time.Duration
	CheckInterval   time.Duration
	WarningLead     time.Duration
}

func (c Config) withDefaults() Config {
	if c.SessionDuration == 0 {
		c.SessionDuration = constants.SessionDuration
	}
	if c.CheckInterval == 0 {
		c.CheckInterval = constants.SessionCheckInterval
	}
	if c.WarningLead == 0 {
		c.WarningLead = constants.SessionWarningLead
	}
	return c
}

// Snapshot is the observable session state
type Snapshot struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
	AuthError       string
	SessionStart    time.Time
	State           State
}

// Manager drives the session state machine. It implements
// httpclient.SessionListener so every successful response slides the expiry
// window and every AuthExpired classification tears the session down.
type Manager struct {
	client   *httpclient.Client
	cfg      Config
	notifier Notifier

	mu           sync.Mutex
	state        State
	user         *models.User
	authError    string
	isLoading    bool
	sessionStart time.Time
	warnDeadline time.Time

	warnTimer      *time.Timer
	countdownTimer *time.Timer

	probeStop chan struct{}
	probeWG   sync.WaitGroup
}

// NewManager creates a session manager bound to the given client. The
// manager installs itself as the client's session listener.
func NewManager(client *httpclient.Client, cfg Config, notifier Notifier) *Manager {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	m := &Manager{
		client:   client,
		cfg:      cfg.withDefaults(),
		notifier: notifier,
		state:    StateUnknown,
	}
	client.SetListener(m)
	return m
}

// Initialize performs the mount-time check: fetch the CSRF cookie, then
// probe the auth endpoint. A 401 on the probe is the Unauthenticated state,
// not an error.
func (m *Manager) Initialize(ctx context.Context) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if err := m.fetchCSRF(ctx); err != nil {
		m.toUnauthenticated("", false)
		return err
	}

	var check models.AuthCheckResponse
	if err := m.client.Get(ctx, constants.APIAuthCheck, &check); err != nil {
		if apperrors.IsAuthExpired(err) {
			// HandleAuthError already ran via the listener
			return nil
		}
		m.toUnauthenticated("", false)
		return err
	}
	if check.IsAuthenticated && check.User != nil {
		m.becomeAuthenticated(check.User)
		return nil
	}
	m.toUnauthenticated("", false)
	return nil
}

// GetCSRFToken returns the current CSRF token, fetching the cookie from the
// backend if the jar does not hold one yet.
func (m *Manager) GetCSRFToken(ctx context.Context) (string, error) {
	if token := m.client.CSRFToken(); token != "" {
		return token, nil
	}
	if err := m.fetchCSRF(ctx); err != nil {
		return "", err
	}
	return m.client.CSRFToken(), nil
}

func (m *Manager) fetchCSRF(ctx context.Context) error {
	// Side-effectful GET: the response sets the csrftoken cookie on the jar
	var resp models.CSRFResponse
	return m.client.Get(ctx, constants.APIAuthCSRF, &resp)
}

// Login authenticates with the backend. A CSRF token is obtained first if
// the jar has none.
func (m *Manager) Login(ctx context.Context, creds models.Credentials) error {
	m.setLoading(true)
	defer m.setLoading(false)

	if _, err := m.GetCSRFToken(ctx); err != nil {
		return err
	}

	var resp models.LoginResponse
	if err := m.client.Post(ctx, constants.APIAuthLogin, creds, &resp); err != nil {
		m.mu.Lock()
		m.authError = err.Error()
		m.mu.Unlock()
		return err
	}
	m.becomeAuthenticated(resp.User)
	return nil
}

// Logout notifies the server best-effort and always clears local state,
// even when the network call fails.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.client.Post(ctx, constants.APIAuthLogout, struct{}{}, nil)
	if err != nil {
		log.Printf("logout request failed, clearing local session anyway: %v", err)
	}
	m.toUnauthenticated("", false)
	return err
}

// InitializeSession slides the session clock forward: the warning deadline
// becomes now + (SessionDuration - WarningLead). It is a no-op once the
// session is Unauthenticated so a late response can never revive it.
func (m *Manager) InitializeSession() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated && m.state != StateWarning {
		return
	}
	revived := m.state == StateWarning
	m.state = StateAuthenticated
	m.sessionStart = time.Now()
	m.resetWarningTimerLocked()
	if revived {
		m.notifier.OnStateChange(StateAuthenticated)
	}
}

// HandleAuthError tears the session down after an AuthExpired error
func (m *Manager) HandleAuthError(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.toUnauthenticated(msg, true)
}

// OnActivity implements httpclient.SessionListener
func (m *Manager) OnActivity() { m.InitializeSession() }

// OnAuthExpired implements httpclient.SessionListener
func (m *Manager) OnAuthExpired(err error) { m.HandleAuthError(err) }

// RedirectNow serves the warning notice's immediate-redirect action: the
// session ends and the notifier navigates to the login route.
func (m *Manager) RedirectNow() {
	m.toUnauthenticated("", true)
}

// Snapshot returns a copy of the observable session state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		User:            m.user,
		IsAuthenticated: m.state == StateAuthenticated || m.state == StateWarning,
		IsLoading:       m.isLoading,
		AuthError:       m.authError,
		SessionStart:    m.sessionStart,
		State:           m.state,
	}
}

// State returns the current lifecycle state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// WarningDeadline returns the instant the pre-expiry warning will fire
func (m *Manager) WarningDeadline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warnDeadline
}

// Close tears down all timers and the probe loop
func (m *Manager) Close() {
	m.mu.Lock()
	m.clearTimersLocked()
	m.stopProbeLocked()
	m.mu.Unlock()
	m.probeWG.Wait()
}

func (m *Manager) setLoading(v bool) {
	m.mu.Lock()
	m.isLoading = v
	m.mu.Unlock()
}

func (m *Manager) becomeAuthenticated(user *models.User) {
	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = user
	m.authError = ""
	m.sessionStart = time.Now()
	m.resetWarningTimerLocked()
	m.startProbeLocked()
	m.mu.Unlock()
	m.notifier.OnStateChange(StateAuthenticated)
}

func (m *Manager) toUnauthenticated(authError string, redirect bool) {
	m.mu.Lock()
	wasActive := m.state == StateAuthenticated || m.state == StateWarning
	m.state = StateUnauthenticated
	m.user = nil
	m.authError = authError
	m.sessionStart = time.Time{}
	m.warnDeadline = time.Time{}
	m.clearTimersLocked()
	m.stopProbeLocked()
	m.mu.Unlock()

	m.notifier.OnStateChange(StateUnauthenticated)
	if redirect && wasActive {
		m.notifier.OnRedirect(constants.RouteLogin)
	}
}

// resetWarningTimerLocked (re)schedules the one-shot pre-expiry warning.
// Callers hold m.mu.
func (m *Manager) resetWarningTimerLocked() {
	m.clearTimersLocked()
	lead := m.cfg.SessionDuration - m.cfg.WarningLead
	m.warnDeadline = time.Now().Add(lead)
	m.warnTimer = time.AfterFunc(lead, m.onWarningDeadline)
}

func (m *Manager) onWarningDeadline() {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.state = StateWarning
	lead := m.cfg.WarningLead
	m.countdownTimer = time.AfterFunc(lead, m.onCountdownExpired)
	m.mu.Unlock()

	m.notifier.OnStateChange(StateWarning)
	m.notifier.OnWarning(lead)
}

func (m *Manager) onCountdownExpired() {
	m.mu.Lock()
	if m.state != StateWarning {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()
	m.toUnauthenticated("", true)
}

func (m *Manager) clearTimersLocked() {
	if m.warnTimer != nil {
		m.warnTimer.Stop()
		m.warnTimer = nil
	}
	if m.countdownTimer != nil {
		m.countdownTimer.Stop()
		m.countdownTimer = nil
	}
}

// startProbeLocked launches the periodic liveness probe. Callers hold m.mu.
func (m *Manager) startProbeLocked() {
	if m.probeStop != nil {
		return
	}
	stop := make(chan struct{})
	m.probeStop = stop
	m.probeWG.Add(1)
	go m.probeLoop(stop)
}

func (m *Manager) stopProbeLocked() {
	if m.probeStop != nil {
		close(m.probeStop)
		m.probeStop = nil
	}
}

func (m *Manager) probeLoop(stop chan struct{}) {
	defer m.probeWG.Done()

	ticker := time.NewTicker(m.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probeOnce()
		case <-stop:
			return
		}
	}
}

func (m *Manager) probeOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var check models.AuthCheckResponse
	if err := m.client.Get(ctx, constants.APIAuthCheck, &check); err != nil {
		if apperrors.IsAuthExpired(err) {
			// listener already tore the session down
			return
		}
		log.Printf("session probe failed: %v", err)
		return
	}
	if !check.IsAuthenticated {
		m.toUnauthenticated("", true)
	}
}
