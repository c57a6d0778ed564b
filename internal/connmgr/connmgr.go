// Package connmgr manages the lifecycle of the single live MongoDB
// connection (spec.md §3 "ConnectionState", §4.6 "Connection manager"). It
// generalizes the teacher's bare Connect/DB globals into a retrying,
// lockable connection manager.
package connmgr

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Status names a ConnectionState phase.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Reconnecting
	Failed
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

const (
	baseBackoff = 100 * time.Millisecond
	maxBackoff  = 5 * time.Second
	maxAttempts = 6
)

// Manager owns the single live client/database pair plus its connection
// state, guarded by an RWMutex (spec.md §3 "SharedState").
type Manager struct {
	mu sync.RWMutex

	status   Status
	uri      string
	dbName   string
	client   *mongo.Client
	db       *mongo.Database
	clientID string
	lastErr  error
}

// New returns an unconnected Manager.
func New() *Manager { return &Manager{status: Disconnected} }

// Connect dials uri/dbName, retrying with exponential backoff (100ms base,
// doubling, capped at 5s) up to maxAttempts times (spec.md §4.6).
func (m *Manager) Connect(ctx context.Context, uri, dbName, clientID string) error {
	m.mu.Lock()
	m.status = Connecting
	m.uri, m.dbName, m.clientID = uri, dbName, clientID
	m.mu.Unlock()

	backoff := baseBackoff
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
		}

		clientOpts := options.Client().ApplyURI(uri)
		client, err := mongo.Connect(clientOpts)
		if err != nil {
			lastErr = fmt.Errorf("connect: %w", err)
			continue
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			lastErr = fmt.Errorf("ping: %w", err)
			continue
		}

		m.mu.Lock()
		m.client = client
		m.db = client.Database(dbName)
		m.status = Connected
		m.lastErr = nil
		m.mu.Unlock()
		return nil
	}

	m.mu.Lock()
	m.status = Failed
	m.lastErr = lastErr
	m.mu.Unlock()
	return fmt.Errorf("connmgr: exhausted %d attempts: %w", maxAttempts, lastErr)
}

// ConnectLazy creates the client handle without pinging the server,
// leaving Status Disconnected (spec.md §6 "--no-connect": start without
// connecting; the REPL's first command still needs a usable Database()
// handle rather than a nil one, so the client is built eagerly and
// validated lazily on first use instead of at startup).
func (m *Manager) ConnectLazy(uri, dbName, clientID string) error {
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	m.mu.Lock()
	m.uri, m.dbName, m.clientID = uri, dbName, clientID
	m.client = client
	m.db = client.Database(dbName)
	m.status = Disconnected
	m.mu.Unlock()
	return nil
}

// Reconnect re-establishes the connection using the last URI/dbName,
// transitioning through Reconnecting rather than Disconnected so callers can
// distinguish an initial connect from a recovery attempt.
func (m *Manager) Reconnect(ctx context.Context) error {
	m.mu.RLock()
	uri, dbName, clientID := m.uri, m.dbName, m.clientID
	m.mu.RUnlock()
	if uri == "" {
		return fmt.Errorf("connmgr: no prior connection to reconnect")
	}
	m.mu.Lock()
	m.status = Reconnecting
	m.mu.Unlock()
	return m.Connect(ctx, uri, dbName, clientID)
}

// Disconnect closes the underlying client, if any.
func (m *Manager) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		m.status = Disconnected
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client, m.db = nil, nil
	m.status = Disconnected
	return err
}

// Database returns the current database handle, or nil if disconnected.
func (m *Manager) Database() *mongo.Database {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// Client returns the current client handle, or nil if disconnected.
func (m *Manager) Client() *mongo.Client {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.client
}

// UseDatabase switches the live database without reconnecting (shell "use
// <db>" builtin; spec.md §4.2).
func (m *Manager) UseDatabase(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return fmt.Errorf("connmgr: not connected")
	}
	m.dbName = name
	m.db = m.client.Database(name)
	return nil
}

// Status reports the current connection phase and, for Failed, the last
// error observed.
func (m *Manager) Status() (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status, m.lastErr
}

// DatabaseName returns the currently selected database name.
func (m *Manager) DatabaseName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dbName
}

// ClientID returns the client identifier used to tag killable operations
// (spec.md §4.8 "mongosh-<client_id>-<uuid>").
func (m *Manager) ClientID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clientID
}

// HealthCheck pings the live client, reporting Failed and recording the
// error on failure rather than tearing down the connection.
func (m *Manager) HealthCheck(ctx context.Context) error {
	client := m.Client()
	if client == nil {
		return fmt.Errorf("connmgr: not connected")
	}
	if err := client.Ping(ctx, nil); err != nil {
		m.mu.Lock()
		m.status = Failed
		m.lastErr = err
		m.mu.Unlock()
		return err
	}
	return nil
}

// SanitizeURI masks the password component of a mongodb(+srv):// URI so it
// is safe to log or echo back to the user (spec.md §4.11 "never log
// credentials").
func SanitizeURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return redactByPattern(uri)
	}
	if u.User == nil {
		return uri
	}
	username := u.User.Username()
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(username, "****")
	}
	return u.String()
}

// redactByPattern is a best-effort fallback for URIs url.Parse rejects.
func redactByPattern(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := strings.Index(uri, "://")
	if scheme < 0 || scheme+3 >= at {
		return uri
	}
	creds := uri[scheme+3 : at]
	colon := strings.Index(creds, ":")
	if colon < 0 {
		return uri
	}
	return uri[:scheme+3] + creds[:colon] + ":****" + uri[at:]
}
