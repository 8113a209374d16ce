package geospatial

import (
	"errors"
	"strconv"
	"strings"

	"github.com/samirrijal/dropspots/internal/core/domain"
)

// ErrInvalidCoordinates is returned for any input that does not describe a valid point.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ParseCoordinates parses free text such as "60.14, -2.11" into a point.
// Everything except digits, '.', ',' and '-' is discarded before parsing,
// so pasted values like "(60.14°, -2.11°)" are accepted.
func ParseCoordinates(input string) (domain.GeoPoint, error) {
	if input == "" {
		return domain.GeoPoint{}, ErrInvalidCoordinates
	}

	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, input)

	parts := strings.Split(cleaned, ",")
	if len(parts) != 2 {
		return domain.GeoPoint{}, ErrInvalidCoordinates
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return domain.GeoPoint{}, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return domain.GeoPoint{}, ErrInvalidCoordinates
	}

	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		return domain.GeoPoint{}, ErrInvalidCoordinates
	}
	return p, nil
}
