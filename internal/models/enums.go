package models

// DifficultyLevel grades how demanding a hike is.
type DifficultyLevel string

const (
	Easy     DifficultyLevel = "Easy"
	Moderate DifficultyLevel = "Moderate"
	Hard     DifficultyLevel = "Hard"
	Expert   DifficultyLevel = "Expert"
)

// Seasonality is the best season for a hike.
type Seasonality string

const (
	Spring    Seasonality = "Spring"
	Summer    Seasonality = "Summer"
	Fall      Seasonality = "Fall"
	Winter    Seasonality = "Winter"
	YearRound Seasonality = "YearRound"
)

// HikeTerrain is the dominant terrain of a whole hike.
type HikeTerrain string

const (
	HikeForest   HikeTerrain = "Forest"
	HikeMountain HikeTerrain = "Mountain"
	HikeDesert   HikeTerrain = "Desert"
	HikeCoastal  HikeTerrain = "Coastal"
	HikeUrban    HikeTerrain = "Urban"
)

// Accessibility describes who the hike is suitable for.
type Accessibility string

const (
	WheelchairFriendly Accessibility = "WheelchairFriendly"
	DogFriendly        Accessibility = "DogFriendly"
	ChildFriendly      Accessibility = "ChildFriendly"
	SeniorFriendly     Accessibility = "SeniorFriendly"
	NonAccessible      Accessibility = "NonAccessible"
)

// RouteTerrain is the terrain of a single route. The set is wider than
// HikeTerrain.
type RouteTerrain string

const (
	RouteMountain RouteTerrain = "Mountain"
	RouteForest   RouteTerrain = "Forest"
	RouteDesert   RouteTerrain = "Desert"
	RoutePlains   RouteTerrain = "Plains"
	RouteCoastal  RouteTerrain = "Coastal"
	RouteHills    RouteTerrain = "Hills"
	RouteWetlands RouteTerrain = "Wetlands"
	RouteUrban    RouteTerrain = "Urban"
	RouteTundra   RouteTerrain = "Tundra"
	RouteJungle   RouteTerrain = "Jungle"
)

// SurfaceType is the walking surface of a route.
type SurfaceType string

const (
	Paved       SurfaceType = "Paved"
	Gravel      SurfaceType = "Gravel"
	Mud         SurfaceType = "Mud"
	Sand        SurfaceType = "Sand"
	Rock        SurfaceType = "Rock"
	Grass       SurfaceType = "Grass"
	Snow        SurfaceType = "Snow"
	Ice         SurfaceType = "Ice"
	Boardwalk   SurfaceType = "Boardwalk"
	Cobblestone SurfaceType = "Cobblestone"
)

// FeatureType classifies what a point of interest is.
type FeatureType string

const (
	FeatureViewpoint         FeatureType = "Viewpoint"
	FeatureLandmark          FeatureType = "Landmark"
	FeatureHistoric          FeatureType = "Historic"
	FeatureWaterfall         FeatureType = "Waterfall"
	FeatureCampsite          FeatureType = "Campsite"
	FeatureShelter           FeatureType = "Shelter"
	FeatureBridge            FeatureType = "Bridge"
	FeatureCave              FeatureType = "Cave"
	FeaturePicnicArea        FeatureType = "PicnicArea"
	FeatureRiverCrossing     FeatureType = "RiverCrossing"
	FeatureParkingArea       FeatureType = "ParkingArea"
	FeatureTrailIntersection FeatureType = "TrailIntersection"
)

// PointType is the role a point plays along its route.
type PointType string

const (
	Startpoint    PointType = "Startpoint"
	Endpoint      PointType = "Endpoint"
	Viewpoint     PointType = "Viewpoint"
	Waypoint      PointType = "Waypoint"
	Checkpoint    PointType = "Checkpoint"
	EmergencyExit PointType = "EmergencyExit"
)

// The option lists below back interactive prompts.

var DifficultyLevels = []DifficultyLevel{Easy, Moderate, Hard, Expert}

var Seasonalities = []Seasonality{Spring, Summer, Fall, Winter, YearRound}

var HikeTerrains = []HikeTerrain{HikeForest, HikeMountain, HikeDesert, HikeCoastal, HikeUrban}

var Accessibilities = []Accessibility{
	WheelchairFriendly, DogFriendly, ChildFriendly, SeniorFriendly, NonAccessible,
}

var RouteTerrains = []RouteTerrain{
	RouteMountain, RouteForest, RouteDesert, RoutePlains, RouteCoastal,
	RouteHills, RouteWetlands, RouteUrban, RouteTundra, RouteJungle,
}

var SurfaceTypes = []SurfaceType{
	Paved, Gravel, Mud, Sand, Rock, Grass, Snow, Ice, Boardwalk, Cobblestone,
}

var FeatureTypes = []FeatureType{
	FeatureViewpoint, FeatureLandmark, FeatureHistoric, FeatureWaterfall,
	FeatureCampsite, FeatureShelter, FeatureBridge, FeatureCave,
	FeaturePicnicArea, FeatureRiverCrossing, FeatureParkingArea, FeatureTrailIntersection,
}

var PointTypes = []PointType{
	Startpoint, Endpoint, Viewpoint, Waypoint, Checkpoint, EmergencyExit,
}
