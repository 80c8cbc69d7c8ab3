package models

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode"
)

// HikeRequest is the payload for creating or updating a hike.
type HikeRequest struct {
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	DifficultyLevel        DifficultyLevel `json:"difficultyLevel"`
	TotalDistance          float64         `json:"totalDistance"`
	TotalDurationInMinutes float64         `json:"totalDurationInMinutes"`
	TotalElevationGain     float64         `json:"totalElevationGain"`
	Seasonality            Seasonality     `json:"seasonality"`
	TerrainType            HikeTerrain     `json:"terrainType"`
	SuitableForBeginners   bool            `json:"suitableForBeginners"`
	Accessibility          Accessibility   `json:"accessibility"`
}

// RouteRequest is the payload for creating or updating a route.
type RouteRequest struct {
	OrderInHike       int          `json:"orderInHike"`
	Description       string       `json:"description"`
	Distance          float64      `json:"distance"`
	DurationInMinutes float64      `json:"durationInMinutes"`
	ElevationChange   float64      `json:"elevationChange"`
	NavigationNotes   string       `json:"navigationNotes"`
	TerrainType       RouteTerrain `json:"terrainType"`
	SurfaceType       SurfaceType  `json:"surfaceType"`
	HikeID            string       `json:"hikeId"`
}

// PointRequest is the payload for creating or updating a point.
type PointRequest struct {
	Latitude           float64     `json:"latitude"`
	Longitude          float64     `json:"longitude"`
	Altitude           float64     `json:"altitude"`
	Feature            FeatureType `json:"feature"`
	FeatureDescription string      `json:"featureDescription"`
	PointType          PointType   `json:"pointType"`
	Image              string      `json:"image"`
	OrderInRoute       int         `json:"orderInRoute"`
	RouteID            string      `json:"routeId"`
}

// ValidationErrors maps a field name to the reason it was rejected. It is
// produced locally, before anything reaches the network.
type ValidationErrors map[string]string

// Error returns the messages ordered by field name.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f, v[f]))
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Validate checks the hike form rules.
func (r HikeRequest) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "Name is required."
	}
	if strings.TrimSpace(r.Description) == "" {
		errs["description"] = "Description is required."
	}
	if r.TotalDistance < 0 {
		errs["totalDistance"] = "Total Distance must be greater than 0."
	}
	if r.TotalDurationInMinutes < 0 {
		errs["totalDurationInMinutes"] = "Total Duration must be greater than 0."
	}
	if r.TotalElevationGain < 0 {
		errs["totalElevationGain"] = "Elevation Gain cannot be negative."
	}
	return errs.orNil()
}

// Validate checks the route form rules.
func (r RouteRequest) Validate() error {
	errs := ValidationErrors{}
	if strings.TrimSpace(r.HikeID) == "" {
		errs["hikeId"] = "Hike ID is required."
	}
	if strings.TrimSpace(r.Description) == "" {
		errs["description"] = "Description is required."
	}
	if r.Distance < 0 {
		errs["distance"] = "Distance must be greater than 0."
	}
	if r.DurationInMinutes < 0 {
		errs["durationInMinutes"] = "Duration must be greater than 0."
	}
	if strings.TrimSpace(r.NavigationNotes) == "" {
		errs["navigationNotes"] = "Navigation notes are required."
	}
	return errs.orNil()
}

// Validate checks the point form rules.
func (r PointRequest) Validate() error {
	errs := ValidationErrors{}
	if r.Latitude < -90 || r.Latitude > 90 {
		errs["latitude"] = "Latitude must be between -90 and 90."
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		errs["longitude"] = "Longitude must be between -180 and 180."
	}
	if r.OrderInRoute < 0 {
		errs["orderInRoute"] = "Order in Route cannot be negative."
	}
	if strings.TrimSpace(r.RouteID) == "" {
		errs["routeId"] = "Route ID is required."
	}
	return errs.orNil()
}

// ValidateLogin checks the login form rules.
func ValidateLogin(email, password string) error {
	errs := ValidationErrors{}
	validateEmail(errs, email)
	if password == "" {
		errs["password"] = "Password is required"
	}
	return errs.orNil()
}

// ValidateRegistration checks the registration form rules.
func ValidateRegistration(email, password, userName string) error {
	errs := ValidationErrors{}
	validateEmail(errs, email)
	switch {
	case password == "":
		errs["password"] = "Password is required"
	case !strongPassword(password):
		errs["password"] = "Password must have at least one number, one uppercase letter, one lowercase letter, and one special character"
	}
	if strings.TrimSpace(userName) == "" {
		errs["userName"] = "Username is required"
	}
	return errs.orNil()
}

func validateEmail(errs ValidationErrors, email string) {
	if email == "" {
		errs["email"] = "Email is required"
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		errs["email"] = "Please enter a valid email address"
	}
}

func strongPassword(p string) bool {
	var digit, upper, lower, special bool
	for _, r := range p {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return digit && upper && lower && special
}
