package gateway

import (
	"context"

	"github.com/dmitrijs2005/carfinder/internal/models"
)

// Tables is the relational capability: filtered reads and partial inserts.
type Tables interface {
	// Select decodes every row of table matching f into dst, which must be a
	// pointer to a slice. Row order is whatever the backend returns.
	Select(ctx context.Context, table string, f Filter, dst any) error
	// Insert stores record. Columns the backend defaults (id, created_at)
	// must be absent from record or are ignored.
	Insert(ctx context.Context, table string, record map[string]any) error
}

// UploadOptions control how an object is written.
type UploadOptions struct {
	ContentType string
	// Upsert allows replacing an existing object. When false, writing to an
	// existing key fails with ErrObjectExists.
	Upsert bool
}

// Storage is the binary object capability.
type Storage interface {
	Upload(ctx context.Context, bucket, key string, data []byte, opts UploadOptions) error
	Remove(ctx context.Context, bucket string, keys ...string) error
	// PublicURL returns the permanent public address of key. It does not
	// check that the object exists.
	PublicURL(bucket, key string) string
}

// Auth is the session capability.
type Auth interface {
	// CurrentSession returns the active session or nil when anonymous.
	CurrentSession() *models.Session
	SignUp(ctx context.Context, email, password string) (*models.Session, error)
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
	// SignOut drops the local session even when the remote call fails.
	SignOut(ctx context.Context) error
	// UpdateUserMetadata merges patch into the user's metadata. The change is
	// not visible through CurrentSession until RefreshSession succeeds.
	UpdateUserMetadata(ctx context.Context, patch map[string]any) error
	RefreshSession(ctx context.Context) (*models.Session, error)
}

// Gateway is the single configured handle to the backend.
type Gateway interface {
	Tables
	Storage
	Auth
	Close() error
}
