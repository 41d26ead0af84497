package alerts

import (
	"sort"
	"strings"
	"time"

	"github.com/guoosantos/euro-one-sub006/libs/util"
)

const (
	SeverityInfo     = "info"
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"

	DefaultWindow    = 24 * time.Hour
	DefaultMinEvents = 3
)

// Event событие устройства из внешней платформы.
type Event struct {
	ID        util.ID        `json:"id"`
	VehicleID util.ID        `json:"vehicleId"`
	Type      string         `json:"type,omitempty"`
	Severity  string         `json:"severity"`
	EventTime util.Timestamp `json:"eventTime"`
	Time      util.Timestamp `json:"time"`
	CreatedAt util.Timestamp `json:"createdAt"`
	Resolved  bool           `json:"resolved"`
}

// OccurredAt первая распознанная метка из eventTime, time, createdAt.
func (e Event) OccurredAt() util.Timestamp {
	for _, ts := range []util.Timestamp{e.EventTime, e.Time, e.CreatedAt} {
		if ts.Valid() {
			return ts
		}
	}
	return util.Timestamp{}
}

func (e Event) IsCritical() bool {
	return strings.EqualFold(strings.TrimSpace(e.Severity), SeverityCritical)
}

type EventRef struct {
	ID        util.ID `json:"id"`
	Type      string  `json:"type,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// Summary транспорт, набравший не меньше MinEvents критических событий в окне.
type Summary struct {
	VehicleID   util.ID    `json:"vehicleId"`
	Count       int        `json:"count"`
	LastEventAt string     `json:"lastEventAt"`
	Events      []EventRef `json:"events"`

	lastEventAt time.Time
}

type Options struct {
	// Window длина окна, отсчитываемого назад от Now; нижняя граница включается.
	Window          time.Duration
	MinEvents       int
	Now             time.Time
	IncludeResolved bool
}

func (o Options) withDefaults() Options {
	if o.Window <= 0 {
		o.Window = DefaultWindow
	}
	if o.MinEvents <= 0 {
		o.MinEvents = DefaultMinEvents
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

type datedEvent struct {
	event Event
	at    time.Time
}

// Summarize находит транспорт с повторяющимися нерешёнными критическими событиями.
//
// Сводки отсортированы по LastEventAt по убыванию; при равенстве по VehicleID по возрастанию.
func Summarize(events []Event, opts Options) []Summary {
	opts = opts.withDefaults()
	cutoff := opts.Now.Add(-opts.Window)

	byVehicle := make(map[util.ID][]datedEvent)
	for _, event := range events {
		if event.VehicleID.IsEmpty() {
			continue
		}
		if event.Resolved && !opts.IncludeResolved {
			continue
		}
		if !event.IsCritical() {
			continue
		}
		at, ok := event.OccurredAt().Time()
		if !ok || at.Before(cutoff) {
			continue
		}
		byVehicle[event.VehicleID] = append(byVehicle[event.VehicleID], datedEvent{event: event, at: at})
	}

	summaries := make([]Summary, 0, len(byVehicle))
	for vehicleID, dated := range byVehicle {
		if len(dated) < opts.MinEvents {
			continue
		}

		sort.SliceStable(dated, func(i, j int) bool {
			return dated[i].at.After(dated[j].at)
		})

		refs := make([]EventRef, 0, len(dated))
		for _, d := range dated {
			createdAt, ok := d.event.CreatedAt.Time()
			if !ok {
				createdAt = d.at
			}
			refs = append(refs, EventRef{ID: d.event.ID, Type: d.event.Type, CreatedAt: util.FormatISO(createdAt)})
		}

		summaries = append(summaries, Summary{
			VehicleID:   vehicleID,
			Count:       len(dated),
			LastEventAt: util.FormatISO(dated[0].at),
			Events:      refs,
			lastEventAt: dated[0].at,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].lastEventAt.Equal(summaries[j].lastEventAt) {
			return summaries[i].lastEventAt.After(summaries[j].lastEventAt)
		}
		return summaries[i].VehicleID < summaries[j].VehicleID
	})

	return summaries
}
