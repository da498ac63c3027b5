package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/carfinder/internal/controllers"
	"github.com/dmitrijs2005/carfinder/internal/models"
	"github.com/dmitrijs2005/carfinder/internal/viewstate"
)

var ErrInvalidYear = errors.New("year must be a number")

func listPhase(s controllers.CarState) viewstate.Phase { return s.Phase }
func addPhase(s controllers.CarState) viewstate.Phase  { return s.Add.Phase }

func (a *App) showList(ctx context.Context, op func(context.Context)) error {
	s := follow(ctx, a.out, a.cars.State(), listPhase, op)
	if s.Phase == viewstate.Error {
		return errors.New(s.Err)
	}
	return renderCars(a.out, s.Cars)
}

func (a *App) List(ctx context.Context) error {
	return a.showList(ctx, a.cars.LoadAll)
}

func (a *App) ListStatus(ctx context.Context, status string) error {
	st, err := models.ParseCarStatus(status)
	if err != nil {
		return err
	}
	return a.showList(ctx, func(ctx context.Context) { a.cars.Filter(ctx, st) })
}

func (a *App) Search(ctx context.Context, query string) error {
	return a.showList(ctx, func(ctx context.Context) { a.cars.Search(ctx, query) })
}

// Add walks through the report form. Make, model and status are required;
// every other field may be left blank.
func (a *App) Add(ctx context.Context) error {
	car, imagePath, err := a.readCarForm()
	if err != nil {
		return err
	}

	var img []byte
	if imagePath != "" {
		if img, err = a.readFile(imagePath); err != nil {
			return fmt.Errorf("read image: %w", err)
		}
	}

	s := follow(ctx, a.out, a.cars.State(), addPhase, func(ctx context.Context) {
		a.cars.Add(ctx, car, img)
	})
	defer a.cars.ResetAdd()

	if s.Add.Phase == viewstate.Error {
		return errors.New(s.Add.Err)
	}
	fmt.Fprintln(a.out, "Report added.")
	if s.Phase == viewstate.Success {
		return renderCars(a.out, s.Cars)
	}
	return nil
}

func (a *App) readCarForm() (models.Car, string, error) {
	var (
		car    models.Car
		fields = []struct {
			prompt string
			dst    **string
		}{
			{"Color (optional):", &car.Color},
			{"License plate (optional):", &car.LicensePlate},
			{"Chassis number (optional):", &car.ChassisNumber},
		}
		err error
	)

	if car.Make, err = GetSimpleText(a.reader, "Make:", a.out); err != nil {
		return car, "", err
	}
	if car.Model, err = GetSimpleText(a.reader, "Model:", a.out); err != nil {
		return car, "", err
	}

	year, err := GetSimpleText(a.reader, "Year (optional):", a.out)
	if err != nil {
		return car, "", err
	}
	if year = strings.TrimSpace(year); year != "" {
		y, convErr := strconv.Atoi(year)
		if convErr != nil {
			return car, "", fmt.Errorf("%w: %q", ErrInvalidYear, year)
		}
		car.Year = &y
	}

	for _, f := range fields {
		v, err := GetSimpleText(a.reader, f.prompt, a.out)
		if err != nil {
			return car, "", err
		}
		*f.dst = models.StringPtr(v)
	}

	status, err := GetChoice(a.reader, "Status", []string{"lost", "found"}, a.out)
	if err != nil {
		return car, "", err
	}
	if car.Status, err = models.ParseCarStatus(status); err != nil {
		return car, "", err
	}

	desc, err := GetSimpleText(a.reader, "Description (optional):", a.out)
	if err != nil {
		return car, "", err
	}
	car.Description = models.StringPtr(desc)

	contact, err := GetSimpleText(a.reader, "Contact info (optional):", a.out)
	if err != nil {
		return car, "", err
	}
	car.ContactInfo = models.StringPtr(contact)

	path, err := GetSimpleText(a.reader, "Image path (optional):", a.out)
	if err != nil {
		return car, "", err
	}
	return car, path, nil
}
