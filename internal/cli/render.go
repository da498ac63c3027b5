package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/carfinder/internal/models"
)

func renderCars(w io.Writer, list []models.Car) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No cars found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tMAKE\tMODEL\tYEAR\tCOLOR\tPLATE\tCONTACT\tIMAGE")
	for _, c := range list {
		year := "-"
		if c.Year != nil {
			year = strconv.Itoa(*c.Year)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Status, c.Make, c.Model, year,
			orDash(c.Color), orDash(c.LicensePlate), orDash(c.ContactInfo), orDash(c.ImageURL))
	}
	return tw.Flush()
}

func renderProfile(w io.Writer, u *models.User, p models.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if u != nil {
		fmt.Fprintf(tw, "Email:\t%s\n", u.Email)
	}
	fmt.Fprintf(tw, "Full name:\t%s\n", dashIfEmpty(p.FullName))
	fmt.Fprintf(tw, "Phone:\t%s\n", dashIfEmpty(p.Phone))
	fmt.Fprintf(tw, "Avatar:\t%s\n", orDash(p.AvatarURL))
	return tw.Flush()
}

func orDash(p *string) string {
	return dashIfEmpty(models.Deref(p))
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
