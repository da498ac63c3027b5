package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/carfinder/internal/controllers"
	"github.com/dmitrijs2005/carfinder/internal/logging"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

// App binds the three screen controllers to a terminal.
type App struct {
	auth    *controllers.AuthController
	cars    *controllers.CarController
	profile *controllers.ProfileController

	reader   *bufio.Reader
	out      io.Writer
	readFile func(string) ([]byte, error)
	log      logging.Logger
}

type Option func(*App)

// WithIO replaces stdin/stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = out
	}
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithFileReader replaces os.ReadFile for image and avatar paths.
func WithFileReader(fn func(string) ([]byte, error)) Option {
	return func(a *App) { a.readFile = fn }
}

func NewApp(auth *controllers.AuthController, cars *controllers.CarController, profile *controllers.ProfileController, opts ...Option) *App {
	a := &App{
		auth:     auth,
		cars:     cars,
		profile:  profile,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		readFile: os.ReadFile,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run restores any persisted session and serves commands until EOF, exit or
// ctx cancellation.
func (a *App) Run(ctx context.Context) {
	a.auth.CheckSession()
	a.profile.Load(ctx)

	fmt.Fprintln(a.out, "Welcome to CarFinder (type 'help' for commands)")
	if u := a.auth.State().Get().User; u != nil {
		a.log.Debug(ctx, "session restored", "user_id", u.ID)
		fmt.Fprintf(a.out, "Signed in as %s\n", u.Email)
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.auth.State().Get().SignedIn
}

func (a *App) status() string {
	if u := a.auth.State().Get().User; u != nil {
		return "(" + u.Email + ") "
	}
	return ""
}

// follow runs op on its own goroutine while watching store, prints a
// progress line once the operation reports Loading and returns the snapshot
// left behind when op returns.
func follow[T any](ctx context.Context, w io.Writer, store *viewstate.Store[T], phase func(T) viewstate.Phase, op func(context.Context)) T {
	updates, cancel := store.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		op(ctx)
	}()

	announced := false
	for {
		select {
		case s := <-updates:
			if phase(s) == viewstate.Loading && !announced {
				announced = true
				fmt.Fprintln(w, "working...")
			}
		case <-done:
			return store.Get()
		}
	}
}
