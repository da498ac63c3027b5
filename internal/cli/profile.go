package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/carfinder/internal/controllers"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

func profilePhase(s controllers.ProfileState) viewstate.Phase { return s.Phase }

func (a *App) Profile(ctx context.Context) error {
	a.profile.Load(ctx)
	s := a.profile.State().Get()
	if s.LoggedOut {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	return renderProfile(a.out, s.User, s.Profile)
}

func (a *App) runProfile(ctx context.Context, op func(context.Context), done string) error {
	s := follow(ctx, a.out, a.profile.State(), profilePhase, op)
	defer a.profile.Reset()

	if s.Phase == viewstate.Error {
		return errors.New(s.Err)
	}
	fmt.Fprintln(a.out, done)
	return renderProfile(a.out, s.User, s.Profile)
}

// SetProfile prompts for the name and phone. Blank answers keep the current
// values.
func (a *App) SetProfile(ctx context.Context) error {
	a.profile.Load(ctx)
	cur := a.profile.State().Get().Profile

	name, err := GetSimpleText(a.reader, fmt.Sprintf("Full name [%s]:", cur.FullName), a.out)
	if err != nil {
		return err
	}
	if name == "" {
		name = cur.FullName
	}
	phone, err := GetSimpleText(a.reader, fmt.Sprintf("Phone [%s]:", cur.Phone), a.out)
	if err != nil {
		return err
	}
	if phone == "" {
		phone = cur.Phone
	}

	return a.runProfile(ctx, func(ctx context.Context) {
		a.profile.UpdateProfile(ctx, name, phone)
	}, "Profile updated.")
}

func (a *App) Avatar(ctx context.Context, path string) error {
	img, err := a.readFile(path)
	if err != nil {
		return fmt.Errorf("read avatar: %w", err)
	}
	return a.runProfile(ctx, func(ctx context.Context) {
		a.profile.UploadAvatar(ctx, img)
	}, "Avatar uploaded.")
}
