// Package oracle wraps the external reverse-geocoding, elevation, and
// street-level-imagery metadata APIs behind a small classification interface.
// Callers treat the provider as a black box: a coordinate is land or water,
// has queryable imagery or not, and can be described with place metadata.
package oracle

import (
	"context"
	"errors"
)

// LocationInfo is the descriptive metadata for a coordinate.
type LocationInfo struct {
	Country            string
	AdministrativeArea string
	Locality           string
	SubLocality        string
	FormattedAddress   string
	PlaceTypes         []string
	Elevation          *float64
}

// PanoInfo identifies the nearest street-level panorama to a coordinate.
type PanoInfo struct {
	PanoID string
	Lat    float64
	Lng    float64
}

// Oracle classifies coordinates and fetches place metadata.
//
// IsLand and HasStreetLevelImagery return a non-nil error only for fatal
// provider faults (quota exhausted, authorization denied); transient failures
// such as timeouts or empty result sets are folded into a false result so the
// caller's sampling loop can continue.
type Oracle interface {
	IsLand(ctx context.Context, lat, lng float64) (bool, error)
	HasStreetLevelImagery(ctx context.Context, lat, lng float64) (bool, error)
	NearestPano(ctx context.Context, lat, lng float64) (*PanoInfo, error)
	Describe(ctx context.Context, lat, lng float64) (*LocationInfo, error)
}

var (
	// ErrQuotaExceeded means the provider rejected the call for exhausted
	// quota. All subsequent sampling is pointless until quota resets.
	ErrQuotaExceeded = errors.New("oracle: quota exceeded")

	// ErrRequestDenied means the provider rejected the credential itself.
	ErrRequestDenied = errors.New("oracle: request denied")
)

// IsFatal reports whether err invalidates further oracle calls.
func IsFatal(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrRequestDenied)
}
