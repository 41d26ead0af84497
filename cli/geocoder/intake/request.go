package intake

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/guoosantos/euro-one-sub006/libs/geo"
	"github.com/guoosantos/euro-one-sub006/libs/util"
)

var (
	ErrNoPosition    = errors.New("в запросе нет идентификатора позиции")
	ErrNoCoordinate  = errors.New("в запросе нет координат")
	ErrBadCoordinate = errors.New("координаты вне допустимого диапазона")
)

// Request запрос на геокодирование одной позиции.
// Координаты принимаются как lat/lng, так и latitude/longitude.
type Request struct {
	PositionID util.ID `json:"positionId"`
	Reason     string  `json:"reason"`
	geo.RawCoordinate
}

// Decode разбирает и проверяет запрос.
func Decode(data []byte) (int64, geo.Coordinate, string, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return 0, geo.Coordinate{}, "", fmt.Errorf("ошибка разбора запроса: %w", err)
	}

	positionID, err := strconv.ParseInt(strings.TrimSpace(req.PositionID.String()), 10, 64)
	if err != nil {
		return 0, geo.Coordinate{}, "", ErrNoPosition
	}

	if !req.HasPosition() {
		return 0, geo.Coordinate{}, "", ErrNoCoordinate
	}

	c := req.Normalize()
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) || math.Abs(c.Latitude) > 90 || math.Abs(c.Longitude) > 180 {
		return 0, geo.Coordinate{}, "", ErrBadCoordinate
	}

	return positionID, c, strings.TrimSpace(req.Reason), nil
}
