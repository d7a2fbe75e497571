package location

import (
	"time"
	// Embed tzdata so zone lookups work in minimal containers
	// without a system zoneinfo database.
	_ "time/tzdata"

	"github.com/ringsaturn/tzf"

	"github.com/weatherscribe/weatherscribe/internal/apperr"
)

// DefaultTimezone is used when no zone covers the given point,
// e.g. coordinates in open ocean.
const DefaultTimezone = "Australia/Perth"

// Resolver maps coordinates to IANA timezone identifiers. It is a pure
// in-memory lookup; no network access is involved.
type Resolver struct {
	finder tzf.F
}

// NewResolver builds the timezone finder. Construction parses the embedded
// polygon data, so callers should build one resolver and reuse it.
func NewResolver() (*Resolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, apperr.Wrap(apperr.Configuration, "location.resolver", err)
	}
	return &Resolver{finder: finder}, nil
}

// Resolve returns the IANA timezone identifier covering the point.
// Out-of-range coordinates are configuration errors; a miss on valid
// coordinates falls back to DefaultTimezone.
func (r *Resolver) Resolve(lat, lon float64) (string, error) {
	if lat < -90 || lat > 90 {
		return "", apperr.Newf(apperr.Configuration, "location.resolve", "latitude %f out of range [-90,90]", lat)
	}
	if lon < -180 || lon > 180 {
		return "", apperr.Newf(apperr.Configuration, "location.resolve", "longitude %f out of range [-180,180]", lon)
	}

	name := r.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return DefaultTimezone, nil
	}
	return name, nil
}

// Zone resolves the coordinates to a loaded *time.Location.
func (r *Resolver) Zone(lat, lon float64) (*time.Location, error) {
	name, err := r.Resolve(lat, lon)
	if err != nil {
		return nil, err
	}
	zone, err := time.LoadLocation(name)
	if err != nil {
		// Unlikely with embedded tzdata, but the run should not die on it.
		zone, err = time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, apperr.Wrap(apperr.Configuration, "location.zone", err)
		}
	}
	return zone, nil
}
