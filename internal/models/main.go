// Package models defines the core data structures for users, hikes, routes
// and points as exchanged with the trail catalog service.
package models

// TokenPair is the credential pair minted by the login, register and
// refresh endpoints.
type TokenPair struct {
	// AccessToken authorizes API calls as a bearer token.
	AccessToken string `json:"accessToken"`
	// RefreshToken is used solely to mint a new pair.
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both tokens are present.
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Role is the authorization role of a user.
type Role string

const (
	// RoleHiker may browse the catalog.
	RoleHiker Role = "Hiker"
	// RoleCreator may additionally own and edit hikes.
	RoleCreator Role = "Creator"
	// RoleAdmin has full access.
	RoleAdmin Role = "Admin"
)

// User is the authenticated account. It is read-only on the client.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	UserName string `json:"userName"`
	Role     Role   `json:"role"`
}

// Hike is a catalog entry.
type Hike struct {
	ID                     string          `json:"id"`
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

// Route is one leg of a hike. OrderInHike sets the display sequence; it is
// not guaranteed to be unique.
type Route struct {
	ID                string       `json:"id"`
	HikeID            string       `json:"hikeId"`
	OrderInHike       int          `json:"orderInHike"`
	Description       string       `json:"description"`
	Distance          float64      `json:"distance"`
	DurationInMinutes float64      `json:"durationInMinutes"`
	ElevationChange   float64      `json:"elevationChange"`
	NavigationNotes   string       `json:"navigationNotes"`
	TerrainType       RouteTerrain `json:"terrainType"`
	SurfaceType       SurfaceType  `json:"surfaceType"`
}

// Point is a geolocated point of interest on a route.
type Point struct {
	ID                 string      `json:"id"`
	RouteID            string      `json:"routeId"`
	Latitude           float64     `json:"latitude"`
	Longitude          float64     `json:"longitude"`
	Altitude           float64     `json:"altitude"`
	Feature            FeatureType `json:"feature"`
	FeatureDescription string      `json:"featureDescription"`
	PointType          PointType   `json:"pointType"`
	Image              string      `json:"image"`
	OrderInRoute       int         `json:"orderInRoute"`
}

// HikeWithRoutes is the server-composed hike detail view. Routes are not
// kept in sync with any standalone route entries.
type HikeWithRoutes struct {
	Hike
	Routes []Route `json:"routes"`
}

// HasRoute reports whether the view lists a route with the given id.
func (h HikeWithRoutes) HasRoute(routeID string) bool {
	for _, r := range h.Routes {
		if r.ID == routeID {
			return true
		}
	}
	return false
}

// RouteWithPoints is the server-composed route detail view.
type RouteWithPoints struct {
	Route
	Points []Point `json:"points"`
}

// HasPoint reports whether the view lists a point with the given id.
func (r RouteWithPoints) HasPoint(pointID string) bool {
	for _, p := range r.Points {
		if p.ID == pointID {
			return true
		}
	}
	return false
}
