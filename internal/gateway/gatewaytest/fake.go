// Package gatewaytest provides an in-memory gateway.Gateway for tests.
//
// The fake keeps tables as JSON-shaped rows, evaluates gateway.Filter trees
// with the same semantics as the real backends (eq, case-insensitive LIKE,
// or), assigns id and created_at on insert, and implements e-mail/password
// auth with metadata merge and explicit refresh.
package gatewaytest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/carfinder/internal/gateway"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/google/uuid"
)

type account struct {
	user     models.User
	password string
}

// Call records one invocation for assertions.
type Call struct {
	Op    string
	Table string
	Key   string
}

// Fake is a goroutine-safe in-memory backend.
type Fake struct {
	mu       sync.Mutex
	tables   map[string][]map[string]any
	nextID   int64
	objects  map[string][]byte
	upserts  map[string]bool
	accounts map[string]*account
	session  *models.Session
	calls    []Call

	// Now supplies server-side timestamps.
	Now func() time.Time
	// Fail, when set, is consulted before every operation; a non-nil return
	// is reported as the operation's error.
	Fail func(op string) error
	// BaseURL prefixes public object URLs.
	BaseURL string
}

// New returns an empty backend.
func New() *Fake {
	return &Fake{
		tables:   map[string][]map[string]any{},
		objects:  map[string][]byte{},
		upserts:  map[string]bool{},
		accounts: map[string]*account{},
		Now:      time.Now,
		BaseURL:  "https://fake.local/storage/v1/object/public",
	}
}

var _ gateway.Gateway = (*Fake)(nil)

func (f *Fake) record(op, table, key string) error {
	f.calls = append(f.calls, Call{Op: op, Table: table, Key: key})
	if f.Fail != nil {
		return f.Fail(op)
	}
	return nil
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CountCalls returns how many times op was invoked.
func (f *Fake) CountCalls(op string) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Rows returns a copy of the stored rows of table.
func (f *Fake) Rows(table string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.tables[table]))
	for _, r := range f.tables[table] {
		c := make(map[string]any, len(r))
		for k, v := range r {
			c[k] = v
		}
		out = append(out, c)
	}
	return out
}

// Object returns the bytes stored under bucket/key.
func (f *Fake) Object(bucket, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[bucket+"/"+key]
	return b, ok
}

// Seed inserts rows directly, bypassing auth and call recording.
func (f *Fake) Seed(table string, rows ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		f.insertLocked(table, r)
	}
}

func (f *Fake) insertLocked(table string, record map[string]any) {
	f.nextID++
	row := make(map[string]any, len(record)+2)
	for k, v := range record {
		row[k] = normalize(v)
	}
	row["id"] = f.nextID
	row["created_at"] = f.Now().UTC().Format(time.RFC3339Nano)
	f.tables[table] = append(f.tables[table], row)
}

// normalize turns typed pointers into their JSON form so stored rows look
// like decoded backend rows.
func normalize(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func (f *Fake) Select(ctx context.Context, table string, flt gateway.Filter, dst any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("select", table, ""); err != nil {
		return err
	}
	matched := make([]map[string]any, 0)
	for _, row := range f.tables[table] {
		if Match(flt, row) {
			matched = append(matched, row)
		}
	}
	b, err := json.Marshal(matched)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

func (f *Fake) Insert(ctx context.Context, table string, record map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("insert", table, ""); err != nil {
		return err
	}
	f.insertLocked(table, record)
	return nil
}

func (f *Fake) Upload(ctx context.Context, bucket, key string, data []byte, opts gateway.UploadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("upload", bucket, key); err != nil {
		return err
	}
	k := bucket + "/" + key
	if _, exists := f.objects[k]; exists && !opts.Upsert {
		return &gateway.RemoteError{Status: http.StatusConflict, Code: "Duplicate", Message: "The resource already exists"}
	}
	f.objects[k] = append([]byte(nil), data...)
	f.upserts[k] = opts.Upsert
	return nil
}

func (f *Fake) Remove(ctx context.Context, bucket string, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("remove", bucket, strings.Join(keys, ",")); err != nil {
		return err
	}
	for _, k := range keys {
		delete(f.objects, bucket+"/"+k)
	}
	return nil
}

func (f *Fake) PublicURL(bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", f.BaseURL, bucket, key)
}

func (f *Fake) CurrentSession() *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session
}

func (f *Fake) newSessionLocked(a *account) *models.Session {
	md := make(map[string]any, len(a.user.Metadata))
	for k, v := range a.user.Metadata {
		md[k] = v
	}
	s := &models.Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    f.Now().Add(time.Hour),
		User:         models.User{ID: a.user.ID, Email: a.user.Email, Metadata: md},
	}
	f.session = s
	return s
}

func (f *Fake) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("signup", "", email); err != nil {
		return nil, err
	}
	if _, ok := f.accounts[email]; ok {
		return nil, &gateway.RemoteError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	a := &account{user: models.User{ID: uuid.NewString(), Email: email, Metadata: map[string]any{}}, password: password}
	f.accounts[email] = a
	return f.newSessionLocked(a), nil
}

func (f *Fake) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("signin", "", email); err != nil {
		return nil, err
	}
	a, ok := f.accounts[email]
	if !ok || a.password != password {
		return nil, &gateway.RemoteError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	return f.newSessionLocked(a), nil
}

func (f *Fake) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	err := f.record("signout", "", "")
	f.session = nil
	return err
}

func (f *Fake) accountLocked() (*account, error) {
	if f.session == nil {
		return nil, gateway.ErrUnauthenticated
	}
	for _, a := range f.accounts {
		if a.user.ID == f.session.User.ID {
			return a, nil
		}
	}
	return nil, &gateway.RemoteError{Status: http.StatusNotFound, Code: "user_not_found", Message: "User not found"}
}

func (f *Fake) UpdateUserMetadata(ctx context.Context, patch map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("update_user", "", ""); err != nil {
		return err
	}
	a, err := f.accountLocked()
	if err != nil {
		return err
	}
	for k, v := range patch {
		a.user.Metadata[k] = v
	}
	return nil
}

func (f *Fake) RefreshSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("refresh", "", ""); err != nil {
		return nil, err
	}
	a, err := f.accountLocked()
	if err != nil {
		return nil, err
	}
	return f.newSessionLocked(a), nil
}

func (f *Fake) Close() error { return nil }

// Match evaluates flt against row.
func Match(flt gateway.Filter, row map[string]any) bool {
	for _, c := range flt {
		if !matchCond(c, row) {
			return false
		}
	}
	return true
}

func matchCond(c gateway.Condition, row map[string]any) bool {
	switch c.Op {
	case gateway.OpEq:
		v, ok := row[c.Column]
		return ok && v != nil && fmt.Sprint(v) == c.Value
	case gateway.OpILike:
		v, ok := row[c.Column].(string)
		return ok && likeRegexp(c.Value).MatchString(v)
	case gateway.OpOr:
		for _, sub := range c.Any {
			if matchCond(sub, row) {
				return true
			}
		}
		return false
	}
	return false
}

func likeRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?is)^")
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}
