package model

// Activity categories
const (
	CategoryResting      = "resting"
	CategoryColumn       = "column"
	CategoryForaging     = "foraging"
	CategoryTransport    = "transport"
	CategoryConstruction = "construction"

	// GroupTransportConstruction collapses every transport/construction variant.
	GroupTransportConstruction = "transport/construction"

	// ComposeSeparator joins two base labels of a composed category.
	ComposeSeparator = "+"
)

// Predator taxa
const (
	PredatorOpiliones  = "Opiliones"
	PredatorReduviidae = "Reduviidae"

	// PredatorVideoMarker rows only delimit video files and carry no predator.
	PredatorVideoMarker = "video"
)

// Cameras
const (
	CameraInf Camera = "cam_inf"
	CameraSup Camera = "cam_sup"
)

// All is the wildcard value of an aggregation key dimension.
const All = "All"

var (
	DefaultSplitCategories = []string{
		CategoryResting, CategoryColumn, CategoryForaging,
		CategoryTransport, CategoryConstruction,
		CategoryTransport + ComposeSeparator + CategoryConstruction,
	}
	DefaultPredators = []string{PredatorOpiliones, PredatorReduviidae}
	DefaultCameras   = []Camera{CameraInf, CameraSup}
	DefaultNests     = []string{"1", "2", "3"}
)
