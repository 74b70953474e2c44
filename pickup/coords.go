package pickup

import (
	"strconv"

	"github.com/mikios34/pickup-availability/entity"
)

// ResolveCoordinates prefers the favorite pickup's geo coordinates and falls
// back to the shopper-provided location. It returns NoCoordinates when
// neither has both components.
func ResolveCoordinates(favorite *entity.FavoritePickup, location Coordinates) Coordinates {
	if favorite != nil {
		if long, lat, ok := favorite.Address.LongLat(); ok {
			return Coordinates{Lat: formatCoordinate(lat), Long: formatCoordinate(long)}
		}
	}
	if location.Present() {
		return location
	}
	return NoCoordinates
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
