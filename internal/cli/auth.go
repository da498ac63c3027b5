package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/carfinder/internal/controllers"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

var ErrEmptyCredentials = errors.New("email and password are required")

func authPhase(s controllers.AuthState) viewstate.Phase { return s.Phase }

func (a *App) credentials() (string, string, error) {
	email, err := GetSimpleText(a.reader, "Email:", a.out)
	if err != nil {
		return "", "", err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", "", err
	}
	if email == "" || password == "" {
		return "", "", ErrEmptyCredentials
	}
	return email, password, nil
}

func (a *App) authenticate(ctx context.Context, op func(context.Context, string, string), verb string) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}

	s := follow(ctx, a.out, a.auth.State(), authPhase, func(ctx context.Context) {
		op(ctx, email, password)
	})
	defer a.auth.Reset()

	if s.Phase == viewstate.Error {
		return errors.New(s.Err)
	}
	if s.Pending {
		fmt.Fprintln(a.out, controllers.MsgConfirmEmail)
		return nil
	}
	a.profile.Load(ctx)
	fmt.Fprintf(a.out, "%s as %s\n", verb, s.User.Email)
	return nil
}

func (a *App) Register(ctx context.Context) error {
	return a.authenticate(ctx, a.auth.SignUp, "Registered")
}

func (a *App) Login(ctx context.Context) error {
	return a.authenticate(ctx, a.auth.SignIn, "Signed in")
}

func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	follow(ctx, a.out, a.auth.State(), authPhase, a.auth.SignOut)
	a.auth.Reset()
	a.profile.Load(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	a.auth.CheckSession()
	u := a.auth.State().Get().User
	if u == nil {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", u.Email, u.ID)
	return nil
}
