package gateway

import (
	"context"
	"sync/atomic"

	"github.com/dmitrijs2005/carfinder/internal/models"
)

type holder struct{ g Gateway }

// Handle is the process-wide gateway reference handed to repositories.
// Every call made while no gateway is set fails with ErrUninitialized.
type Handle struct {
	cur atomic.Pointer[holder]
}

// NewHandle returns a Handle serving g. A nil g yields an uninitialized handle.
func NewHandle(g Gateway) *Handle {
	h := &Handle{}
	if g != nil {
		h.cur.Store(&holder{g: g})
	}
	return h
}

func (h *Handle) get() (Gateway, error) {
	if h == nil {
		return nil, ErrUninitialized
	}
	p := h.cur.Load()
	if p == nil {
		return nil, ErrUninitialized
	}
	return p.g, nil
}

// Initialized reports whether a gateway is attached.
func (h *Handle) Initialized() bool {
	_, err := h.get()
	return err == nil
}

func (h *Handle) Select(ctx context.Context, table string, f Filter, dst any) error {
	g, err := h.get()
	if err != nil {
		return err
	}
	return g.Select(ctx, table, f, dst)
}

func (h *Handle) Insert(ctx context.Context, table string, record map[string]any) error {
	g, err := h.get()
	if err != nil {
		return err
	}
	return g.Insert(ctx, table, record)
}

func (h *Handle) Upload(ctx context.Context, bucket, key string, data []byte, opts UploadOptions) error {
	g, err := h.get()
	if err != nil {
		return err
	}
	return g.Upload(ctx, bucket, key, data, opts)
}

func (h *Handle) Remove(ctx context.Context, bucket string, keys ...string) error {
	g, err := h.get()
	if err != nil {
		return err
	}
	return g.Remove(ctx, bucket, keys...)
}

func (h *Handle) PublicURL(bucket, key string) string {
	g, err := h.get()
	if err != nil {
		return ""
	}
	return g.PublicURL(bucket, key)
}

func (h *Handle) CurrentSession() *models.Session {
	g, err := h.get()
	if err != nil {
		return nil
	}
	return g.CurrentSession()
}

func (h *Handle) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	g, err := h.get()
	if err != nil {
		return nil, err
	}
	return g.SignUp(ctx, email, password)
}

func (h *Handle) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	g, err := h.get()
	if err != nil {
		return nil, err
	}
	return g.SignIn(ctx, email, password)
}

func (h *Handle) SignOut(ctx context.Context) error {
	g, err := h.get()
	if err != nil {
		return err
	}
	return g.SignOut(ctx)
}

func (h *Handle) UpdateUserMetadata(ctx context.Context, patch map[string]any) error {
	g, err := h.get()
	if err != nil {
		return err
	}
	return g.UpdateUserMetadata(ctx, patch)
}

func (h *Handle) RefreshSession(ctx context.Context) (*models.Session, error) {
	g, err := h.get()
	if err != nil {
		return nil, err
	}
	return g.RefreshSession(ctx)
}

// Close closes the attached gateway and detaches it. Later calls fail with
// ErrUninitialized; closing twice is a no-op.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	p := h.cur.Swap(nil)
	if p == nil {
		return nil
	}
	return p.g.Close()
}
