// Package session owns the identity lifecycle of the running application:
// one signed-in user per process, restored from local storage at startup,
// revalidated against the backend and cleared on logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kaayjang/kaayjang-web/internal/app/models"
	"github.com/kaayjang/kaayjang-web/internal/app/observability/metrics"
	"github.com/kaayjang/kaayjang-web/internal/pkg/storage"
)

// Storage keys. Both are always written and removed together.
const (
	keyToken = "token"
	keyUser  = "user"
)

// GenericAuthFailure is shown when the backend rejects credentials without
// a message of its own.
const GenericAuthFailure = "Invalid email or password"

const defaultRevalidateTimeout = 10 * time.Second

// Backend is the subset of the REST client the session needs.
type Backend interface {
	Me(ctx context.Context, token string) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
}

// Event is published to subscribers after every committed transition.
type Event struct {
	Status   Status
	Previous Status
	Reason   Trigger
	User     *models.User
	Epoch    uint64
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	Status Status
	Token  string
	User   *models.User
	Epoch  uint64
}

type Option func(*Manager)

// WithClock sets the clock used to check token expiry.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithRevalidateTimeout bounds the startup GET /auth/me call.
func WithRevalidateTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.revalidateTimeout = d
		}
	}
}

type subscriber struct {
	id int
	fn func(Event)
}

// Manager is the single source of truth for who is signed in.
//
// Transitions are serialised by mu. Every transition that changes the
// credential bumps epoch; a backend answer obtained under an older epoch is
// discarded instead of being applied.
type Manager struct {
	backend           Backend
	store             storage.Store
	logger            *zap.Logger
	clock             clockwork.Clock
	validate          *validator.Validate
	revalidateTimeout time.Duration
	flight            singleflight.Group

	mu          sync.Mutex
	status      Status
	token       string
	user        *models.User
	epoch       uint64
	initialized bool
	subs        []subscriber
	nextSubID   int

	// notifyMu keeps subscriber delivery in commit order.
	notifyMu  sync.Mutex
	ready     chan struct{}
	readyOnce sync.Once
}

func NewManager(backend Backend, store storage.Store, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		backend:           backend,
		store:             store,
		logger:            logger.Named("session"),
		clock:             clockwork.NewRealClock(),
		validate:          newValidator(),
		revalidateTimeout: defaultRevalidateTimeout,
		status:            StatusInitializing,
		ready:             make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Initialize restores the persisted session. It is safe to call more than
// once; only the first call does anything. When a credential is restored the
// manager becomes Optimistic and revalidates it in the background; Ready is
// closed once that settles.
func (m *Manager) Initialize(ctx context.Context) {
	l := m.logger.With(zap.String("method", "Initialize"))

	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = true

	// A login or logout already decided the state.
	if m.status != StatusInitializing {
		m.mu.Unlock()
		m.markReady()
		return
	}

	token, user, err := m.loadPersisted()
	switch {
	case err != nil:
		l.Warn("Discarding unusable persisted session", zap.Error(err))
		m.purge()
		m.unlockAndPublish(m.transition(TriggerNothingStored))
		m.markReady()
		return
	case token == "":
		l.Debug("No persisted session")
		m.unlockAndPublish(m.transition(TriggerNothingStored))
		m.markReady()
		return
	case m.tokenExpired(token):
		l.Info("Persisted token has expired")
		m.purge()
		m.unlockAndPublish(m.transition(TriggerNothingStored))
		m.markReady()
		return
	}

	m.token = token
	m.user = user
	epoch := m.epoch
	m.unlockAndPublish(m.transition(TriggerRestored))
	l.Info("Restored persisted session", zap.String("userID", user.ID))

	go func() {
		defer m.markReady()
		if err := m.revalidate(ctx, epoch, token); err != nil {
			l.Info("Startup revalidation did not confirm the session", zap.Error(err))
		}
	}()
}

// Revalidate asks the backend for the current identity of the held token.
// Authentication failures end the session.
func (m *Manager) Revalidate(ctx context.Context) error {
	m.mu.Lock()
	if !m.status.HasIdentity() {
		m.mu.Unlock()
		return models.ErrNotAuthenticated
	}
	epoch, token := m.epoch, m.token
	m.mu.Unlock()
	return m.revalidate(ctx, epoch, token)
}

func (m *Manager) revalidate(ctx context.Context, epoch uint64, token string) error {
	l := m.logger.With(zap.String("method", "revalidate"), zap.Uint64("epoch", epoch))

	ctx, cancel := context.WithTimeout(ctx, m.revalidateTimeout)
	defer cancel()
	ctx, span := otel.Tracer("SessionManager").Start(ctx, "SessionManager.Revalidate",
		trace.WithAttributes(attribute.Int64("epoch", int64(epoch))))
	defer span.End()

	// Concurrent revalidations of the same epoch share one request.
	v, err, _ := m.flight.Do(fmt.Sprintf("me:%d", epoch), func() (any, error) {
		return m.backend.Me(ctx, token)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revalidation failed")
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		l.Debug("Discarding stale revalidation result")
		return models.ErrSessionSuperseded
	}

	switch {
	case err == nil:
		m.user = v.(*models.User).Clone()
		m.persist()
		m.unlockAndPublish(m.transition(TriggerRevalidated))
		span.SetStatus(codes.Ok, "session confirmed")
		return nil
	case models.IsAuthenticationError(err):
		l.Info("Backend rejected the stored credential", zap.Error(err))
		m.epoch++
		m.clear()
		m.purge()
		m.unlockAndPublish(m.transition(TriggerRejected))
		return err
	default:
		// Persisted state is kept so that the next start retries.
		l.Warn("Backend unreachable during revalidation", zap.Error(err))
		if m.status == StatusOptimistic {
			m.epoch++
			m.clear()
		}
		m.unlockAndPublish(m.transition(TriggerUnreachable))
		return err
	}
}

// Login exchanges credentials for a session. On failure the current session,
// in memory and on disk, is left as it was.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	l := m.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	ctx, span := otel.Tracer("SessionManager").Start(ctx, "SessionManager.Login", trace.WithAttributes(
		attribute.String("email", email),
	))
	defer span.End()

	req := models.LoginRequest{Email: email, Password: password}
	if err := m.validate.Struct(req); err != nil {
		l.Debug("Login input rejected locally", zap.Error(err))
		span.SetStatus(codes.Error, "invalid input")
		return nil, &models.AuthenticationError{Message: GenericAuthFailure}
	}

	epoch := m.Epoch()
	resp, err := m.backend.Login(ctx, req)
	m.recordAuth(ctx, "login", err)
	if err != nil {
		err = loginFailure(err)
		l.Warn("Login failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		return nil, err
	}

	user, err := m.signIn(epoch, resp)
	if err != nil {
		l.Info("Login result discarded", zap.Error(err))
		span.SetStatus(codes.Error, "superseded")
		return nil, err
	}

	l.Info("Login successful", zap.String("userID", user.ID))
	span.SetStatus(codes.Ok, "logged in")
	return user, nil
}

// Register creates an account and signs it in. The payload is validated
// locally before anything is sent.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	l := m.logger.With(zap.String("method", "Register"), zap.String("email", req.Email))
	l.Debug("Attempting registration")

	ctx, span := otel.Tracer("SessionManager").Start(ctx, "SessionManager.Register", trace.WithAttributes(
		attribute.String("email", req.Email),
		attribute.String("role", string(req.Role)),
	))
	defer span.End()

	if err := m.validate.Struct(req); err != nil {
		regErr := validationFailure(err)
		l.Debug("Registration input rejected locally", zap.Error(err))
		span.SetStatus(codes.Error, "invalid input")
		return nil, regErr
	}

	epoch := m.Epoch()
	resp, err := m.backend.Register(ctx, req)
	m.recordAuth(ctx, "register", err)
	if err != nil {
		err = registerFailure(err)
		l.Warn("Registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
		return nil, err
	}

	user, err := m.signIn(epoch, resp)
	if err != nil {
		l.Info("Registration result discarded", zap.Error(err))
		span.SetStatus(codes.Error, "superseded")
		return nil, err
	}

	l.Info("Registration successful", zap.String("userID", user.ID))
	span.SetStatus(codes.Ok, "registered")
	return user, nil
}

func (m *Manager) signIn(epoch uint64, resp *models.AuthResponse) (*models.User, error) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil, models.ErrSessionSuperseded
	}
	m.epoch++
	m.token = resp.AccessToken
	m.user = resp.User.Clone()
	m.persist()
	user := m.user.Clone()
	m.unlockAndPublish(m.transition(TriggerSignedIn))
	return user, nil
}

// Logout ends the session. It always succeeds, also when nobody is signed in.
func (m *Manager) Logout() {
	m.mu.Lock()
	userID := ""
	if m.user != nil {
		userID = m.user.ID
	}
	m.epoch++
	m.clear()
	m.purge()
	m.unlockAndPublish(m.transition(TriggerSignedOut))
	m.logger.Info("Logged out", zap.String("userID", userID))
}

// Expire ends the session when the backend rejected the credential held at
// epoch. It reports whether anything changed; a later session is never
// touched.
func (m *Manager) Expire(epoch uint64) bool {
	m.mu.Lock()
	if m.epoch != epoch || !m.status.HasIdentity() {
		m.mu.Unlock()
		return false
	}
	m.epoch++
	m.clear()
	m.purge()
	m.unlockAndPublish(m.transition(TriggerExpired))
	m.logger.Info("Session expired", zap.Uint64("epoch", epoch))
	return true
}

// UpdateIdentity merges update into the signed-in identity and persists it
// with the current token. It does not call the backend. epoch is the one the
// caller read alongside the token it saved the update with; when the session
// has since changed hands the update is dropped with ErrSessionSuperseded.
func (m *Manager) UpdateIdentity(epoch uint64, update models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	if !m.status.HasIdentity() {
		m.mu.Unlock()
		return nil, models.ErrNotAuthenticated
	}
	if m.epoch != epoch {
		m.mu.Unlock()
		return nil, models.ErrSessionSuperseded
	}
	u := m.user.Clone()
	update.Apply(u)
	m.user = u
	m.persist()
	out := u.Clone()
	m.unlockAndPublish(m.transition(TriggerIdentityUpdated))
	return out, nil
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Status: m.status, Token: m.token, User: m.user.Clone(), Epoch: m.epoch}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// User returns a copy of the identity, or nil when nobody is signed in.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user.Clone()
}

func (m *Manager) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

func (m *Manager) IsAuthenticated() bool {
	return m.Status().HasIdentity()
}

// Ready is closed once Initialize has settled the startup state.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Subscribe registers fn for every committed transition and returns a func
// that removes it. fn runs on the goroutine that committed the transition and
// must not call Login, Register, Logout or UpdateIdentity synchronously.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			for i, s := range m.subs {
				if s.id == id {
					m.subs = append(m.subs[:i:i], m.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// transition moves to the next status. The caller holds mu.
func (m *Manager) transition(t Trigger) (Event, bool) {
	next, ok := Next(m.status, t)
	if !ok {
		m.logger.Warn("Ignoring invalid session transition",
			zap.Stringer("status", m.status), zap.Stringer("trigger", t))
		return Event{}, false
	}
	prev := m.status
	m.status = next
	metrics.Get().SessionTransitionsTotal.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("to", next.String()),
		attribute.String("reason", t.String()),
	))
	return Event{Status: next, Previous: prev, Reason: t, User: m.user.Clone(), Epoch: m.epoch}, true
}

// unlockAndPublish releases mu and delivers ev to the subscribers registered
// at commit time.
func (m *Manager) unlockAndPublish(ev Event, ok bool) {
	if !ok {
		m.mu.Unlock()
		return
	}
	m.notifyMu.Lock()
	subs := make([]subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()
	defer m.notifyMu.Unlock()

	for _, s := range subs {
		s.fn(ev)
	}
}

func (m *Manager) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func (m *Manager) clear() {
	m.token = ""
	m.user = nil
}

func (m *Manager) loadPersisted() (string, *models.User, error) {
	vals, err := m.store.Load(keyToken, keyUser)
	if err != nil {
		return "", nil, err
	}
	token, raw := vals[keyToken], vals[keyUser]
	if token == "" && raw == "" {
		return "", nil, nil
	}
	if token == "" || raw == "" {
		return "", nil, fmt.Errorf("%w: token and user must both be present", models.ErrMalformedSession)
	}
	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return "", nil, fmt.Errorf("%w: %v", models.ErrMalformedSession, err)
	}
	if user.ID == "" {
		return "", nil, fmt.Errorf("%w: user has no id", models.ErrMalformedSession)
	}
	return token, &user, nil
}

func (m *Manager) persist() {
	raw, err := json.Marshal(m.user)
	if err != nil {
		m.logger.Error("Failed to encode identity", zap.Error(err))
		return
	}
	if err := m.store.Save(map[string]string{keyToken: m.token, keyUser: string(raw)}); err != nil {
		m.logger.Error("Failed to persist session", zap.Error(err))
	}
}

func (m *Manager) purge() {
	if err := m.store.Delete(keyToken, keyUser); err != nil {
		m.logger.Error("Failed to remove persisted session", zap.Error(err))
	}
}

// tokenExpired reports whether token is a JWT whose exp is not in the
// future. Opaque tokens never expire locally; the signature is the
// backend's business.
func (m *Manager) tokenExpired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(m.clock.Now())
}

func (m *Manager) recordAuth(ctx context.Context, op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.Get().AuthRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

func loginFailure(err error) error {
	if models.IsNetworkError(err) {
		return err
	}
	var authErr *models.AuthenticationError
	if errors.As(err, &authErr) {
		if authErr.Message == "" {
			return &models.AuthenticationError{Status: authErr.Status, Message: GenericAuthFailure}
		}
		return authErr
	}
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return &models.AuthenticationError{Status: apiErr.Status, Message: GenericAuthFailure}
	}
	return &models.AuthenticationError{Message: GenericAuthFailure}
}

func registerFailure(err error) error {
	if models.IsNetworkError(err) {
		return err
	}
	var regErr *models.RegistrationError
	if errors.As(err, &regErr) {
		return regErr
	}
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return &models.RegistrationError{Status: apiErr.Status, Message: apiErr.Message}
	}
	var authErr *models.AuthenticationError
	if errors.As(err, &authErr) {
		return &models.RegistrationError{Status: authErr.Status, Message: authErr.Message}
	}
	return &models.RegistrationError{Message: err.Error()}
}

func validationFailure(err error) *models.RegistrationError {
	out := &models.RegistrationError{Message: "invalid registration data"}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			out.Fields = append(out.Fields, models.FieldError{Field: fe.Field(), Error: fe.Tag()})
		}
	}
	return out
}
