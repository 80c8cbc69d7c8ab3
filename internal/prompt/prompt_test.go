package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/atinyakov/TrailKeeper/internal/models"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return New(strings.NewReader(input), out), out
}

func TestLine_Default(t *testing.T) {
	p, out := newPrompter("\n  value  \n")

	v, err := p.Line("Name", "def")
	if err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	if v != "def" {
		t.Errorf("empty answer: got %q, want %q", v, "def")
	}
	if !strings.Contains(out.String(), "Name [def]: ") {
		t.Errorf("prompt not shown, output %q", out.String())
	}

	v, err = p.Line("Name", "def")
	if err != nil {
		t.Fatalf("Line failed: %v", err)
	}
	if v != "value" {
		t.Errorf("trimmed answer: got %q, want %q", v, "value")
	}
}

func TestLine_EOF(t *testing.T) {
	p, _ := newPrompter("")
	if _, err := p.Line("Name", ""); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}
}

func TestFloat_RepeatsUntilValid(t *testing.T) {
	p, out := newPrompter("abc\n12.5\n")
	v, err := p.Float("Distance", 0)
	if err != nil {
		t.Fatalf("Float failed: %v", err)
	}
	if v != 12.5 {
		t.Errorf("got %v, want 12.5", v)
	}
	if !strings.Contains(out.String(), `"abc" is not a number`) {
		t.Errorf("missing retry hint, output %q", out.String())
	}
}

func TestBool(t *testing.T) {
	p, _ := newPrompter("maybe\nYes\n\n")
	if v, err := p.Bool("Beginner", false); err != nil || !v {
		t.Errorf("first answer: got %v, %v; want true, nil", v, err)
	}
	if v, err := p.Bool("Beginner", false); err != nil || v {
		t.Errorf("default answer: got %v, %v; want false, nil", v, err)
	}
}

func TestChoice_ByNumberOrName(t *testing.T) {
	p, out := newPrompter("2\nhard\n9\nexpert\n")

	tests := []models.DifficultyLevel{models.Moderate, models.Hard, models.Expert}
	for _, want := range tests {
		v, err := Choice(p, "Difficulty", models.DifficultyLevels, models.Easy)
		if err != nil {
			t.Fatalf("Choice failed: %v", err)
		}
		if v != want {
			t.Errorf("got %q, want %q", v, want)
		}
	}
	if !strings.Contains(out.String(), "1) Easy") {
		t.Errorf("options not listed, output %q", out.String())
	}
	if !strings.Contains(out.String(), `"9" is not one of the options`) {
		t.Errorf("missing retry hint, output %q", out.String())
	}
}

func TestHike_FullForm(t *testing.T) {
	input := strings.Join([]string{
		"Ridge Walk",    // name
		"Along the top", // description
		"3",             // difficulty: Hard
		"12.5",          // distance
		"240",           // duration
		"800",           // elevation
		"Summer",        // season
		"2",             // terrain: Mountain
		"y",             // beginners
		"DogFriendly",   // accessibility
	}, "\n") + "\n"
	p, _ := newPrompter(input)

	r, err := p.Hike(models.HikeRequest{})
	if err != nil {
		t.Fatalf("Hike failed: %v", err)
	}
	want := models.HikeRequest{
		Name:                   "Ridge Walk",
		Description:            "Along the top",
		DifficultyLevel:        models.Hard,
		TotalDistance:          12.5,
		TotalDurationInMinutes: 240,
		TotalElevationGain:     800,
		Seasonality:            models.Summer,
		TerrainType:            models.HikeMountain,
		SuitableForBeginners:   true,
		Accessibility:          models.DogFriendly,
	}
	if r != want {
		t.Errorf("got %+v, want %+v", r, want)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestHike_KeepsCurrentValues(t *testing.T) {
	cur := models.HikeRequest{
		Name:            "Old",
		Description:     "Desc",
		DifficultyLevel: models.Expert,
		TotalDistance:   3,
		Seasonality:     models.Winter,
		TerrainType:     models.HikeDesert,
		Accessibility:   models.ChildFriendly,
	}
	p, _ := newPrompter(strings.Repeat("\n", 10))

	r, err := p.Hike(cur)
	if err != nil {
		t.Fatalf("Hike failed: %v", err)
	}
	if r != cur {
		t.Errorf("got %+v, want %+v", r, cur)
	}
}

func TestRoute_Form(t *testing.T) {
	input := "1\nFirst leg\n4\n60\n-120\nFollow the cairns\nHills\nRock\n"
	p, _ := newPrompter(input)

	r, err := p.Route(models.RouteRequest{HikeID: "H1"})
	if err != nil {
		t.Fatalf("Route failed: %v", err)
	}
	if r.HikeID != "H1" || r.OrderInHike != 1 || r.ElevationChange != -120 {
		t.Errorf("unexpected route %+v", r)
	}
	if r.TerrainType != models.RouteHills || r.SurfaceType != models.Rock {
		t.Errorf("enums: got %q/%q, want %q/%q", r.TerrainType, r.SurfaceType, models.RouteHills, models.Rock)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestPoint_Form(t *testing.T) {
	input := "46.5\n8.1\n2100\nWaterfall\nTall one\n1\n\n2\n"
	p, _ := newPrompter(input)

	r, err := p.Point(models.PointRequest{RouteID: "R1"})
	if err != nil {
		t.Fatalf("Point failed: %v", err)
	}
	if r.RouteID != "R1" || r.Latitude != 46.5 || r.Image != "" || r.OrderInRoute != 2 {
		t.Errorf("unexpected point %+v", r)
	}
	if r.Feature != models.FeatureWaterfall || r.PointType != models.Startpoint {
		t.Errorf("enums: got %q/%q, want %q/%q", r.Feature, r.PointType, models.FeatureWaterfall, models.Startpoint)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestPoint_AbortsMidForm(t *testing.T) {
	p, _ := newPrompter("46.5\n")
	if _, err := p.Point(models.PointRequest{RouteID: "R1"}); !errors.Is(err, ErrAborted) {
		t.Errorf("expected ErrAborted, got %v", err)
	}
}

func TestCredentialsAndPassphrase(t *testing.T) {
	p, out := newPrompter("a@b.com\nsecret\n\nhunter2\n")

	email, pw, err := p.Credentials()
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if email != "a@b.com" || pw != "secret" {
		t.Errorf("got %q/%q, want a@b.com/secret", email, pw)
	}

	pass, err := p.Passphrase()
	if err != nil {
		t.Fatalf("Passphrase failed: %v", err)
	}
	if pass != "hunter2" {
		t.Errorf("passphrase: got %q, want %q", pass, "hunter2")
	}
	if !strings.Contains(out.String(), "passphrase must not be empty") {
		t.Errorf("empty passphrase not rejected, output %q", out.String())
	}
}

func TestRegistration(t *testing.T) {
	p, _ := newPrompter("a@b.com\nalice\nPa$$w0rd\n")
	email, name, pw, err := p.Registration()
	if err != nil {
		t.Fatalf("Registration failed: %v", err)
	}
	if email != "a@b.com" || name != "alice" || pw != "Pa$$w0rd" {
		t.Errorf("got %q/%q/%q", email, name, pw)
	}
}
