// Package prompt reads catalog forms and credentials line by line from an
// interactive terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/TrailKeeper/internal/models"
)

// ErrAborted is returned when the input ends before a form is complete.
var ErrAborted = errors.New("input aborted")

// Prompter asks questions on out and reads the answers from in.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// New returns a Prompter over in and out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the trimmed answer. When the answer is
// empty, def is returned.
func (p *Prompter) Line(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	v, err := p.Next()
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// Next reads one trimmed line without printing anything.
func (p *Prompter) Next() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", ErrAborted
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Float asks for a number, repeating the question until it parses.
func (p *Prompter) Float(label string, def float64) (float64, error) {
	for {
		s, err := p.Line(label, strconv.FormatFloat(def, 'f', -1, 64))
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return v, nil
		}
		fmt.Fprintf(p.out, "%q is not a number\n", s)
	}
}

// Int asks for an integer, repeating the question until it parses.
func (p *Prompter) Int(label string, def int) (int, error) {
	for {
		s, err := p.Line(label, strconv.Itoa(def))
		if err != nil {
			return 0, err
		}
		v, err := strconv.Atoi(s)
		if err == nil {
			return v, nil
		}
		fmt.Fprintf(p.out, "%q is not a whole number\n", s)
	}
}

// Bool asks a yes/no question.
func (p *Prompter) Bool(label string, def bool) (bool, error) {
	d := "n"
	if def {
		d = "y"
	}
	for {
		s, err := p.Line(label+" (y/n)", d)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false":
			return false, nil
		}
		fmt.Fprintln(p.out, "answer y or n")
	}
}

// Choice asks for one of options, shown as a numbered list. The answer may
// be the number or the value itself.
func Choice[T ~string](p *Prompter, label string, options []T, def T) (T, error) {
	names := make([]string, len(options))
	for i, o := range options {
		names[i] = fmt.Sprintf("%d) %s", i+1, o)
	}
	fmt.Fprintf(p.out, "%s: %s\n", label, strings.Join(names, "  "))
	for {
		s, err := p.Line(label, string(def))
		if err != nil {
			return "", err
		}
		if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(options) {
			return options[n-1], nil
		}
		for _, o := range options {
			if strings.EqualFold(s, string(o)) {
				return o, nil
			}
		}
		fmt.Fprintf(p.out, "%q is not one of the options\n", s)
	}
}

// Credentials asks for an email and a password.
func (p *Prompter) Credentials() (email, password string, err error) {
	if email, err = p.Line("Email", ""); err != nil {
		return "", "", err
	}
	if password, err = p.Line("Password", ""); err != nil {
		return "", "", err
	}
	return email, password, nil
}

// Registration asks for an email, a user name and a password.
func (p *Prompter) Registration() (email, userName, password string, err error) {
	if email, err = p.Line("Email", ""); err != nil {
		return "", "", "", err
	}
	if userName, err = p.Line("User name", ""); err != nil {
		return "", "", "", err
	}
	if password, err = p.Line("Password", ""); err != nil {
		return "", "", "", err
	}
	return email, userName, password, nil
}

// Passphrase asks for the credential store passphrase.
func (p *Prompter) Passphrase() (string, error) {
	for {
		s, err := p.Line("Store passphrase", "")
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		fmt.Fprintln(p.out, "passphrase must not be empty")
	}
}

// Hike fills a hike form. Current values, if any, are offered as defaults.
func (p *Prompter) Hike(cur models.HikeRequest) (models.HikeRequest, error) {
	var (
		r   = cur
		err error
	)
	if cur.DifficultyLevel == "" {
		cur.DifficultyLevel = models.Easy
	}
	if cur.Seasonality == "" {
		cur.Seasonality = models.YearRound
	}
	if cur.TerrainType == "" {
		cur.TerrainType = models.HikeForest
	}
	if cur.Accessibility == "" {
		cur.Accessibility = models.NonAccessible
	}

	if r.Name, err = p.Line("Name", cur.Name); err != nil {
		return r, err
	}
	if r.Description, err = p.Line("Description", cur.Description); err != nil {
		return r, err
	}
	if r.DifficultyLevel, err = Choice(p, "Difficulty", models.DifficultyLevels, cur.DifficultyLevel); err != nil {
		return r, err
	}
	if r.TotalDistance, err = p.Float("Total distance (km)", cur.TotalDistance); err != nil {
		return r, err
	}
	if r.TotalDurationInMinutes, err = p.Float("Total duration (min)", cur.TotalDurationInMinutes); err != nil {
		return r, err
	}
	if r.TotalElevationGain, err = p.Float("Elevation gain (m)", cur.TotalElevationGain); err != nil {
		return r, err
	}
	if r.Seasonality, err = Choice(p, "Season", models.Seasonalities, cur.Seasonality); err != nil {
		return r, err
	}
	if r.TerrainType, err = Choice(p, "Terrain", models.HikeTerrains, cur.TerrainType); err != nil {
		return r, err
	}
	if r.SuitableForBeginners, err = p.Bool("Suitable for beginners", cur.SuitableForBeginners); err != nil {
		return r, err
	}
	if r.Accessibility, err = Choice(p, "Accessibility", models.Accessibilities, cur.Accessibility); err != nil {
		return r, err
	}
	return r, nil
}

// Route fills a route form for the hike in cur.HikeID.
func (p *Prompter) Route(cur models.RouteRequest) (models.RouteRequest, error) {
	var (
		r   = cur
		err error
	)
	if cur.TerrainType == "" {
		cur.TerrainType = models.RouteForest
	}
	if cur.SurfaceType == "" {
		cur.SurfaceType = models.Gravel
	}

	if r.OrderInHike, err = p.Int("Order in hike", cur.OrderInHike); err != nil {
		return r, err
	}
	if r.Description, err = p.Line("Description", cur.Description); err != nil {
		return r, err
	}
	if r.Distance, err = p.Float("Distance (km)", cur.Distance); err != nil {
		return r, err
	}
	if r.DurationInMinutes, err = p.Float("Duration (min)", cur.DurationInMinutes); err != nil {
		return r, err
	}
	if r.ElevationChange, err = p.Float("Elevation change (m)", cur.ElevationChange); err != nil {
		return r, err
	}
	if r.NavigationNotes, err = p.Line("Navigation notes", cur.NavigationNotes); err != nil {
		return r, err
	}
	if r.TerrainType, err = Choice(p, "Terrain", models.RouteTerrains, cur.TerrainType); err != nil {
		return r, err
	}
	if r.SurfaceType, err = Choice(p, "Surface", models.SurfaceTypes, cur.SurfaceType); err != nil {
		return r, err
	}
	return r, nil
}

// Point fills a point form for the route in cur.RouteID.
func (p *Prompter) Point(cur models.PointRequest) (models.PointRequest, error) {
	var (
		r   = cur
		err error
	)
	if cur.Feature == "" {
		cur.Feature = models.FeatureViewpoint
	}
	if cur.PointType == "" {
		cur.PointType = models.Waypoint
	}

	if r.Latitude, err = p.Float("Latitude", cur.Latitude); err != nil {
		return r, err
	}
	if r.Longitude, err = p.Float("Longitude", cur.Longitude); err != nil {
		return r, err
	}
	if r.Altitude, err = p.Float("Altitude (m)", cur.Altitude); err != nil {
		return r, err
	}
	if r.Feature, err = Choice(p, "Feature", models.FeatureTypes, cur.Feature); err != nil {
		return r, err
	}
	if r.FeatureDescription, err = p.Line("Feature description", cur.FeatureDescription); err != nil {
		return r, err
	}
	if r.PointType, err = Choice(p, "Point type", models.PointTypes, cur.PointType); err != nil {
		return r, err
	}
	if r.Image, err = p.Line("Image URL", cur.Image); err != nil {
		return r, err
	}
	if r.OrderInRoute, err = p.Int("Order in route", cur.OrderInRoute); err != nil {
		return r, err
	}
	return r, nil
}
