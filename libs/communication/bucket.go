package communication

import (
	"math"
	"time"

	"github.com/guoosantos/euro-one-sub006/libs/geo"
	"github.com/guoosantos/euro-one-sub006/libs/util"
)

// Bucket диапазон давности последней связи с устройством.
type Bucket struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	MaxHours float64 `json:"maxHours"`
}

// Unbounded верхняя граница последнего диапазона.
var Unbounded = math.Inf(1)

// Каталог упорядочен по возрастанию MaxHours и покрывает [0, +Inf).
var catalog = [...]Bucket{
	{Key: "0-1h", Label: "Até 1 hora", MaxHours: 1},
	{Key: "1-3h", Label: "1 a 3 horas", MaxHours: 3},
	{Key: "3-6h", Label: "3 a 6 horas", MaxHours: 6},
	{Key: "6-12h", Label: "6 a 12 horas", MaxHours: 12},
	{Key: "12-24h", Label: "12 a 24 horas", MaxHours: 24},
	{Key: "1-7d", Label: "1 a 7 dias", MaxHours: 24 * 7},
	{Key: "7-30d", Label: "7 a 30 dias", MaxHours: 24 * 30},
	{Key: "30d+", Label: "Mais de 30 dias", MaxHours: Unbounded},
}

// Catalog возвращает копию каталога.
func Catalog() []Bucket {
	result := make([]Bucket, len(catalog))
	copy(result, catalog[:])
	return result
}

// Stale диапазон для устройств без связи или с нераспознанной меткой времени.
func Stale() Bucket {
	return catalog[len(catalog)-1]
}

// Bucketize определяет диапазон давности метки ts относительно now.
func Bucketize(ts util.Timestamp, now time.Time) Bucket {
	seen, ok := ts.Time()
	if !ok {
		return Stale()
	}

	diffHours := math.Max(0, now.Sub(seen).Hours())
	for _, bucket := range catalog {
		if bucket.MaxHours >= diffHours {
			return bucket
		}
	}

	return Stale()
}

// Device запись устройства внешней платформы; читаются только метки связи и координаты.
type Device struct {
	ID                util.ID        `json:"id"`
	Name              string         `json:"name,omitempty"`
	LastCommunication util.Timestamp `json:"lastCommunication"`
	LastUpdate        util.Timestamp `json:"lastUpdate"`
	geo.RawCoordinate
}

// LastSeen lastCommunication, если поле присутствует (даже нераспознанное), иначе lastUpdate.
func (d Device) LastSeen() util.Timestamp {
	if d.LastCommunication.IsSet() {
		return d.LastCommunication
	}
	return d.LastUpdate
}

// Position нормализованные координаты устройства либо nil.
func (d Device) Position() *geo.Coordinate {
	if !d.HasPosition() {
		return nil
	}
	c := d.Normalize()
	return &c
}

type Group struct {
	Bucket Bucket   `json:"bucket"`
	Items  []Device `json:"items"`
}

// GroupByCommunication всегда возвращает группу для каждого диапазона каталога,
// порядок устройств внутри группы совпадает с входным.
func GroupByCommunication(devices []Device, now time.Time) []Group {
	groups := make([]Group, len(catalog))
	index := make(map[string]int, len(catalog))
	for i, bucket := range catalog {
		groups[i] = Group{Bucket: bucket, Items: []Device{}}
		index[bucket.Key] = i
	}

	for _, device := range devices {
		i := index[Bucketize(device.LastSeen(), now).Key]
		groups[i].Items = append(groups[i].Items, device)
	}

	return groups
}
