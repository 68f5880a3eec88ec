package engine

import "errors"

var (
	// ErrLocationNotFound: the requested location ID has no record.
	ErrLocationNotFound = errors.New("location not found")

	// ErrMissingCoordinates: the centre location has not been geocoded, so
	// radius membership cannot be computed. Callers render this as
	// "coordinates not available" rather than a hard failure.
	ErrMissingCoordinates = errors.New("location coordinates not available")

	// ErrNoCompetitorsResolved: gap analysis was given zero valid competitor
	// locations. Distinct from an empty gap list, which means a comparison
	// ran and found nothing.
	ErrNoCompetitorsResolved = errors.New("no competitor locations resolved")
)
