package constants

// Redis key formats
const (
	// Latest known driver position hash
	KeyDriverLocation = "driver:location:%s" // Format: driver:location:{driver_id}

	// GeoHash set of all driver locations for real-time tracking
	KeyDriverGeo = "drivers:locations"
)

// Redis hash fields
const (
	FieldLatitude  = "lat"
	FieldLongitude = "lng"
	FieldHeading   = "heading"
	FieldTimestamp = "ts"
)
