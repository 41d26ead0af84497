package geocode

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"
)

const DefaultPrecision = 4

type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
)

// Job задача обратного геокодирования одной ячейки сетки.
// Позиции, попавшие в одну ячейку, пока задача ожидает обработки, сливаются в неё.
type Job struct {
	Key         string    `json:"key"`
	PositionIDs []int64   `json:"positionIds"`
	PositionID  int64     `json:"positionId"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Reason      string    `json:"reason,omitempty"`
	Status      JobStatus `json:"status"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AddPosition добавляет позицию, сохраняя PositionIDs отсортированным множеством.
func (j *Job) AddPosition(id int64) {
	i := sort.Search(len(j.PositionIDs), func(i int) bool { return j.PositionIDs[i] >= id })
	if i < len(j.PositionIDs) && j.PositionIDs[i] == id {
		return
	}
	j.PositionIDs = append(j.PositionIDs, 0)
	copy(j.PositionIDs[i+1:], j.PositionIDs[i:])
	j.PositionIDs[i] = id
}

func (j *Job) HasPosition(id int64) bool {
	i := sort.Search(len(j.PositionIDs), func(i int) bool { return j.PositionIDs[i] >= id })
	return i < len(j.PositionIDs) && j.PositionIDs[i] == id
}

func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.PositionIDs = append([]int64(nil), j.PositionIDs...)
	return &c
}

// GridKey ключ ячейки сетки: координаты, округлённые до precision знаков.
func GridKey(lat, lng float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return formatAxis(lat, precision) + ":" + formatAxis(lng, precision)
}

func formatAxis(v float64, precision int) string {
	scale := math.Pow(10, float64(precision))
	rounded := math.Round(v*scale) / scale
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', precision, 64)
}

// Address результат обратного геокодирования.
type Address struct {
	DisplayName string `json:"displayName"`
	Road        string `json:"road,omitempty"`
	Suburb      string `json:"suburb,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Postcode    string `json:"postcode,omitempty"`
	Country     string `json:"country,omitempty"`
}

// Result адрес ячейки вместе со всеми позициями, которые его ждут.
type Result struct {
	Key         string    `json:"key"`
	PositionIDs []int64   `json:"positionIds"`
	PositionID  int64     `json:"positionId"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Reason      string    `json:"reason,omitempty"`
	Address     Address   `json:"address"`
	GeocodedAt  time.Time `json:"geocodedAt"`
}

func (r *Result) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}
