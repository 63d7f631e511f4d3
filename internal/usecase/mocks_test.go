//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"wallet-flows/internal/domain"
	"wallet-flows/internal/domain/model"
	"wallet-flows/internal/domain/ports/repository"
	"wallet-flows/internal/domain/ports/service"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// syncEffects runs every submitted effect inline, which makes the
// credentials flow fully synchronous under test.
type syncEffects struct{}

func (syncEffects) Submit(task func(ctx context.Context) error) error {
	return task(context.Background())
}

// =============================
// Auth services
// =============================

type MockLoginService struct {
	mu        sync.Mutex
	LoginGUIDs []string
	Codes      []string

	LoginFunc         func(ctx context.Context, walletIdentifier string) error
	LoginWithCodeFunc func(ctx context.Context, walletIdentifier, code string) error
}

var _ service.LoginService = (*MockLoginService)(nil)

func (m *MockLoginService) Login(ctx context.Context, walletIdentifier string) error {
	m.mu.Lock()
	m.LoginGUIDs = append(m.LoginGUIDs, walletIdentifier)
	m.mu.Unlock()
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, walletIdentifier)
	}
	return nil
}

func (m *MockLoginService) LoginWithCode(ctx context.Context, walletIdentifier, code string) error {
	m.mu.Lock()
	m.Codes = append(m.Codes, code)
	m.mu.Unlock()
	if m.LoginWithCodeFunc != nil {
		return m.LoginWithCodeFunc(ctx, walletIdentifier, code)
	}
	return nil
}

type MockEmailAuthService struct {
	AuthorizeEmailFunc func(ctx context.Context) error
}

var _ service.EmailAuthorizationService = (*MockEmailAuthService)(nil)

func (m *MockEmailAuthService) AuthorizeEmail(ctx context.Context) error {
	if m.AuthorizeEmailFunc != nil {
		return m.AuthorizeEmailFunc(ctx)
	}
	return domain.ErrNotFound
}

type MockSessionTokenService struct {
	mu    sync.Mutex
	Calls int

	SetupSessionTokenFunc func(ctx context.Context) error
}

var _ service.SessionTokenService = (*MockSessionTokenService)(nil)

func (m *MockSessionTokenService) SetupSessionToken(ctx context.Context) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.SetupSessionTokenFunc != nil {
		return m.SetupSessionTokenFunc(ctx)
	}
	return nil
}

type MockSMSService struct {
	mu    sync.Mutex
	Calls int

	RequestCodeFunc func(ctx context.Context) error
}

var _ service.SMSService = (*MockSMSService)(nil)

func (m *MockSMSService) RequestCode(ctx context.Context) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.RequestCodeFunc != nil {
		return m.RequestCodeFunc(ctx)
	}
	return nil
}

type MockDeviceVerification struct {
	mu         sync.Mutex
	EmailCodes []string

	AuthorizeLoginFunc func(ctx context.Context, emailCode string) error
}

var _ service.DeviceVerificationService = (*MockDeviceVerification)(nil)

func (m *MockDeviceVerification) AuthorizeLogin(ctx context.Context, emailCode string) error {
	m.mu.Lock()
	m.EmailCodes = append(m.EmailCodes, emailCode)
	m.mu.Unlock()
	if m.AuthorizeLoginFunc != nil {
		return m.AuthorizeLoginFunc(ctx, emailCode)
	}
	return nil
}

// MockDecryptionLauncher captures every password handed off to the
// wallet-crypto collaborator.
type MockDecryptionLauncher struct {
	mu        sync.Mutex
	Passwords []string
}

var _ service.WalletDecryptionLauncher = (*MockDecryptionLauncher)(nil)

func (m *MockDecryptionLauncher) DecryptWalletWithPassword(password string) {
	m.mu.Lock()
	m.Passwords = append(m.Passwords, password)
	m.mu.Unlock()
}

func (m *MockDecryptionLauncher) Handed() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Passwords))
	copy(out, m.Passwords)
	return out
}

// =============================
// Buy-flow services
// =============================

type MockPairsService struct {
	FetchPairsFunc func(ctx context.Context) (model.SupportedPairs, error)
}

var _ service.SupportedPairsService = (*MockPairsService)(nil)

func (m *MockPairsService) FetchPairs(ctx context.Context) (model.SupportedPairs, error) {
	if m.FetchPairsFunc != nil {
		return m.FetchPairsFunc(ctx)
	}
	return model.SupportedPairs{Pairs: []string{"USD-BTC"}}, nil
}

type MockPendingOrdersService struct {
	PendingOrderDetailsFunc func(ctx context.Context) (*model.OrderDetails, error)
}

var _ service.PendingOrderDetailsService = (*MockPendingOrdersService)(nil)

func (m *MockPendingOrdersService) PendingOrderDetails(ctx context.Context) (*model.OrderDetails, error) {
	if m.PendingOrderDetailsFunc != nil {
		return m.PendingOrderDetailsFunc(ctx)
	}
	return nil, nil
}

type MockKYCTiersService struct {
	FetchTiersFunc func(ctx context.Context) (model.KYCTiers, error)
}

var _ service.KYCTiersService = (*MockKYCTiersService)(nil)

func (m *MockKYCTiersService) FetchTiers(ctx context.Context) (model.KYCTiers, error) {
	if m.FetchTiersFunc != nil {
		return m.FetchTiersFunc(ctx)
	}
	return model.KYCTiers{IsTier2Approved: true}, nil
}

type MockAlertPresenter struct {
	mu     sync.Mutex
	Errors int
}

var _ service.AlertPresenter = (*MockAlertPresenter)(nil)

func (m *MockAlertPresenter) Error(ctx context.Context) {
	m.mu.Lock()
	m.Errors++
	m.mu.Unlock()
}

func (m *MockAlertPresenter) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Errors
}

// memEventCache is a small in-memory event cache used by unit tests.
type memEventCache struct {
	mu    sync.Mutex
	store map[repository.EventCacheKey]bool

	getErr error
	setErr error
}

var _ repository.EventCache = (*memEventCache)(nil)

func newMemEventCache() *memEventCache {
	return &memEventCache{store: make(map[repository.EventCacheKey]bool)}
}

func (m *memEventCache) Get(ctx context.Context, key repository.EventCacheKey) (bool, error) {
	if m.getErr != nil {
		return false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[key], nil
}

func (m *memEventCache) Set(ctx context.Context, key repository.EventCacheKey, value bool) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key] = value
	return nil
}

// =============================
// PIN collaborators
// =============================

type MockPinInteractor struct {
	mu        sync.Mutex
	Persisted []model.Pin
	Created   []model.PinPayload

	CreateFunc   func(ctx context.Context, payload model.PinPayload) error
	ValidateFunc func(ctx context.Context, payload model.PinPayload) (string, error)
	PasswordFunc func(ctx context.Context, pinDecryptionKey string) (string, error)
}

var _ service.PinInteractor = (*MockPinInteractor)(nil)

func (m *MockPinInteractor) Create(ctx context.Context, payload model.PinPayload) error {
	m.mu.Lock()
	m.Created = append(m.Created, payload)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, payload)
	}
	return nil
}

func (m *MockPinInteractor) Validate(ctx context.Context, payload model.PinPayload) (string, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, payload)
	}
	return "decryption-key", nil
}

func (m *MockPinInteractor) Password(ctx context.Context, pinDecryptionKey string) (string, error) {
	if m.PasswordFunc != nil {
		return m.PasswordFunc(ctx, pinDecryptionKey)
	}
	return "wallet-password", nil
}

func (m *MockPinInteractor) Persist(pin model.Pin) {
	m.mu.Lock()
	m.Persisted = append(m.Persisted, pin)
	m.mu.Unlock()
}

type MockBiometry struct {
	Kind             service.BiometryType
	AuthenticateFunc func(ctx context.Context, reason string) error
}

var _ service.BiometryProvider = (*MockBiometry)(nil)

func (m *MockBiometry) ConfiguredType() service.BiometryType { return m.Kind }

func (m *MockBiometry) Authenticate(ctx context.Context, reason string) error {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, reason)
	}
	return nil
}

// memAppSettings is the in-memory keychain stand-in.
type memAppSettings struct {
	mu     sync.Mutex
	pin    model.Pin
	pinKey string
	paired bool
}

var _ service.AppSettings = (*memAppSettings)(nil)

func (m *memAppSettings) Pin() (model.Pin, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pin, m.pin != ""
}

func (m *memAppSettings) PinKey() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pinKey, m.pinKey != ""
}

func (m *memAppSettings) SetPin(pin model.Pin) {
	m.mu.Lock()
	m.pin = pin
	m.mu.Unlock()
}

func (m *memAppSettings) IsPairedWithWallet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paired
}

type MockCredentialsStore struct {
	mu      sync.Mutex
	Backups []string
	Erased  int

	BackupFunc func(ctx context.Context, pinDecryptionKey string) error
	EraseFunc  func(ctx context.Context) error
}

var _ service.CredentialsStore = (*MockCredentialsStore)(nil)

func (m *MockCredentialsStore) Backup(ctx context.Context, pinDecryptionKey string) error {
	m.mu.Lock()
	m.Backups = append(m.Backups, pinDecryptionKey)
	m.mu.Unlock()
	if m.BackupFunc != nil {
		return m.BackupFunc(ctx, pinDecryptionKey)
	}
	return nil
}

func (m *MockCredentialsStore) Erase(ctx context.Context) error {
	m.mu.Lock()
	m.Erased++
	m.mu.Unlock()
	if m.EraseFunc != nil {
		return m.EraseFunc(ctx)
	}
	return nil
}

func (m *MockCredentialsStore) EraseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Erased
}

type stubReachability struct{ online bool }

var _ service.Reachability = (*stubReachability)(nil)

func (s *stubReachability) HasInternetConnection() bool { return s.online }

// MockAttemptRepo records audit rows in memory.
type MockAttemptRepo struct {
	mu      sync.Mutex
	Records []model.LoginAttempt

	RecordFunc func(ctx context.Context, attempt *model.LoginAttempt) error
}

var _ repository.LoginAttemptRepository = (*MockAttemptRepo)(nil)

func (m *MockAttemptRepo) Record(ctx context.Context, attempt *model.LoginAttempt) error {
	m.mu.Lock()
	m.Records = append(m.Records, *attempt)
	m.mu.Unlock()
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, attempt)
	}
	return nil
}

func (m *MockAttemptRepo) CountFailuresSince(ctx context.Context, walletGUID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, rec := range m.Records {
		if rec.WalletGUID == walletGUID && rec.Outcome != model.AttemptSucceeded && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (m *MockAttemptRepo) Recorded() []model.LoginAttempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.LoginAttempt, len(m.Records))
	copy(out, m.Records)
	return out
}
