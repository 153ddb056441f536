package repo

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Pool hands out dedicated connections from the shared database pool. It is
// safe for concurrent use; the underlying *sql.DB does the synchronization.
type Pool struct {
	db *gorm.DB
}

// NewPool wraps an opened GORM handle.
func NewPool(db *gorm.DB) *Pool {
	return &Pool{db: db}
}

// DB returns the pool-wide handle (migrations, health checks).
func (p *Pool) DB() *gorm.DB { return p.db }

// Client is a single connection borrowed from a Pool. DB is a GORM session
// bound to that connection; it must not be used after Release.
type Client struct {
	DB   *gorm.DB
	conn *sql.Conn
}

// Acquire checks out one connection for the lifetime of a request. It fails
// when the pool is closed, the server is unreachable, or ctx is done.
func (p *Pool) Acquire(ctx context.Context) (*Client, error) {
	sqlDB, err := p.db.DB()
	if err != nil {
		return nil, err
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	// Context forces a fresh Statement, so pinning ConnPool does not leak
	// into the shared handle.
	sess := p.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	sess.Statement.ConnPool = conn
	return &Client{DB: sess, conn: conn}, nil
}

// Release returns the connection to the pool. It is safe to call twice.
func (c *Client) Release() {
	if c == nil || c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
}

// Close shuts the whole pool down. Subsequent Acquire calls fail.
func (p *Pool) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
