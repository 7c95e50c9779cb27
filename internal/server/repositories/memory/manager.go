// Package memory is an in-process RepositoryManager. It enforces the same
// uniqueness rules as the PostgreSQL schema and is used for local runs
// (database_dsn "memory") and service tests.
package memory

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/socialid/internal/dbx"
	"github.com/dmitrijs2005/socialid/internal/server/models"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/people"
	"github.com/dmitrijs2005/socialid/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

var errNoSQL = errors.New("memory store: sql not supported")

type personKey struct {
	platform  models.Platform
	accountID string
}

type credKey struct {
	owner    string
	platform models.Platform
}

type state struct {
	people       map[string]models.Person
	personByAcct map[personKey]string
	creds        map[string]models.Credential
	credByPerson map[credKey]string
	credByUser   map[credKey]string
}

func newState() *state {
	return &state{
		people:       map[string]models.Person{},
		personByAcct: map[personKey]string{},
		creds:        map[string]models.Credential{},
		credByPerson: map[credKey]string{},
		credByUser:   map[credKey]string{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.people {
		c.people[k] = v
	}
	for k, v := range s.personByAcct {
		c.personByAcct[k] = v
	}
	for k, v := range s.creds {
		c.creds[k] = v
	}
	for k, v := range s.credByPerson {
		c.credByPerson[k] = v
	}
	for k, v := range s.credByUser {
		c.credByUser[k] = v
	}
	return c
}

// Manager holds all data behind one mutex. A transaction holds the mutex for
// its whole duration and restores a snapshot when fn fails.
type Manager struct {
	mu    sync.Mutex
	data  *state
	now   func() time.Time
	newID func() string
}

var _ repomanager.RepositoryManager = (*Manager)(nil)

func NewManager() *Manager {
	return &Manager{data: newState(), now: time.Now, newID: uuid.NewString}
}

func (m *Manager) RunMigrations(ctx context.Context) error {
	return nil
}

// DB returns the non-transactional handle. Repositories bound to it lock per
// call.
func (m *Manager) DB() dbx.DBTX {
	return handle{}
}

func (m *Manager) People(db dbx.DBTX) people.Repository {
	return &peopleRepo{m: m, inTx: isTx(db)}
}

func (m *Manager) Credentials(db dbx.DBTX) credentials.Repository {
	return &credentialsRepo{m: m, inTx: isTx(db)}
}

// WithTx serializes with every other access to the store. Repositories must
// be obtained from the tx handle passed to fn.
func (m *Manager) WithTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.data.clone()
	defer func() {
		if p := recover(); p != nil {
			m.data = snapshot
			panic(p)
		}
		if err != nil {
			m.data = snapshot
		}
	}()

	return fn(ctx, handle{tx: true})
}

// lock acquires the store mutex unless the caller already runs inside WithTx.
func (m *Manager) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// handle satisfies dbx.DBTX so the memory store fits the repository-manager
// shape. It carries no connection.
type handle struct {
	tx bool
}

func (handle) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, errNoSQL
}

func (handle) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errNoSQL
}

func (handle) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

func isTx(db dbx.DBTX) bool {
	h, ok := db.(handle)
	return ok && h.tx
}
