package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/socialid/internal/dbx"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/memory"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/people"
)

// --- store fakes ---

// countingManager counts every repository access made through it.
type countingManager struct {
	*memory.Manager
	mu    sync.Mutex
	calls int
}

func (m *countingManager) inc() {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
}

func (m *countingManager) People(db dbx.DBTX) people.Repository {
	m.inc()
	return m.Manager.People(db)
}

func (m *countingManager) Credentials(db dbx.DBTX) credentials.Repository {
	m.inc()
	return m.Manager.Credentials(db)
}

func (m *countingManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	m.inc()
	return m.Manager.WithTx(ctx, fn)
}

func (m *countingManager) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failingCredentials wraps a credentials repository and fails lookups.
type failingCredentials struct {
	credentials.Repository
	err error
}

func (f failingCredentials) FindByUserAndPlatform(ctx context.Context, userID string, platform models.Platform) (*models.Credential, error) {
	return nil, f.err
}

func (f failingCredentials) FindByID(ctx context.Context, id string) (*models.Credential, error) {
	return nil, f.err
}

func (f failingCredentials) List(ctx context.Context, filter models.CredentialFilter) ([]*models.Credential, error) {
	return nil, f.err
}

type faultyManager struct {
	*memory.Manager
	credErr error
}

func (m *faultyManager) Credentials(db dbx.DBTX) credentials.Repository {
	return failingCredentials{Repository: m.Manager.Credentials(db), err: m.credErr}
}

// racingManager lets a competing claim commit right before the first
// transaction starts.
type racingManager struct {
	*memory.Manager
	once    sync.Once
	compete func()
}

func (m *racingManager) WithTx(ctx context.Context, fn dbx.TxFunc) error {
	m.once.Do(m.compete)
	return m.Manager.WithTx(ctx, fn)
}

// --- platform fakes ---

type fakeVerifier struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
	err      error
	block    bool
	calls    int
}

func (f *fakeVerifier) Verify(ctx context.Context, username, publicKey string) (*models.Profile, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.Lookup(ctx, username)
}

func (f *fakeVerifier) Lookup(ctx context.Context, username string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[username]
	if !ok {
		return nil, errUnknownUser
	}
	cp := *p
	return &cp, nil
}

func (f *fakeVerifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSyncer struct {
	mu    sync.Mutex
	ids   []string
	err   error
	block chan struct{}
}

func (f *fakeSyncer) Sync(ctx context.Context, accountID string) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, accountID)
	return f.err
}

func (f *fakeSyncer) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}
