package access

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/guoosantos/euro-one-sub006/libs/util"
)

const RoleAdmin = "admin"

// User пользователь панели в том виде, в котором его отдаёт платформа.
type User struct {
	ID         util.ID    `json:"id"`
	Name       string     `json:"name,omitempty"`
	Role       string     `json:"role"`
	Attributes Attributes `json:"attributes"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type Attributes struct {
	MirrorAccess *MirrorAccess `json:"mirrorAccess,omitempty"`
	UserAccess   *UserAccess   `json:"userAccess,omitempty"`
}

// MirrorAccess настройка зеркалирования клиентов.
//
// Принимает true, "all", объект с mode/access/scope = "all" или allowAll/all = true,
// а также массив ссылок на клиентов или объект со списками идентификаторов.
type MirrorAccess struct {
	AllowAll bool
	OwnerIDs []string
}

// UserAccess ограничения пользователя: видимые клиенты, IP и расписание.
type UserAccess struct {
	OwnerIDs      []string
	MirrorAccess  *MirrorAccess
	IPRestriction *IPRestriction
	Schedule      *Schedule
}

type IPRestriction struct {
	Mode string
	IP   string
}

// Schedule пустые поля означают отсутствие ограничения по соответствующему измерению.
// DaysSet фиксирует непустой массив days, даже если ни один день в нём не распознан.
type Schedule struct {
	Days    []int
	DaysSet bool
	Start   string
	End     string
}

var ownerListKeys = []string{
	"ownerClientIds",
	"mirrorOwnerIds",
	"clientIds",
	"clients",
	"tenantIds",
	"tenants",
	"ownerClientId",
}

var ownerRefKeys = []string{"id", "clientId", "ownerClientId", "tenantId"}

func (m *MirrorAccess) UnmarshalJSON(b []byte) error {
	*m = MirrorAccess{}
	if v, ok := decodeLoose(b); ok {
		m.absorb(v)
	}
	return nil
}

func (m *MirrorAccess) absorb(v interface{}) {
	switch x := v.(type) {
	case bool:
		m.AllowAll = m.AllowAll || x
	case string:
		m.AllowAll = m.AllowAll || isAll(x)
	case []interface{}:
		m.OwnerIDs = append(m.OwnerIDs, normalizeRefs(x)...)
	case map[string]interface{}:
		if isAll(x["mode"]) || isAll(x["access"]) || isAll(x["scope"]) || isTrue(x["allowAll"]) || isTrue(x["all"]) {
			m.AllowAll = true
		}
		m.OwnerIDs = append(m.OwnerIDs, collectOwnerIDs(x)...)
	}
}

func (a *UserAccess) UnmarshalJSON(b []byte) error {
	*a = UserAccess{}

	v, ok := decodeLoose(b)
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	a.OwnerIDs = collectOwnerIDs(obj)

	if raw, ok := obj["mirrorAccess"]; ok && raw != nil {
		a.MirrorAccess = &MirrorAccess{}
		a.MirrorAccess.absorb(raw)
	}

	if raw, ok := obj["ipRestriction"].(map[string]interface{}); ok {
		a.IPRestriction = &IPRestriction{
			Mode: looseString(raw["mode"]),
			IP:   looseString(raw["ip"]),
		}
	}

	if raw, ok := obj["schedule"].(map[string]interface{}); ok {
		days, daysSet := looseDays(raw["days"])
		a.Schedule = &Schedule{
			Days:    days,
			DaysSet: daysSet,
			Start:   looseString(raw["start"]),
			End:     looseString(raw["end"]),
		}
	}

	return nil
}

func decodeLoose(b []byte) (interface{}, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, v != nil
}

func collectOwnerIDs(obj map[string]interface{}) []string {
	var ids []string
	for _, key := range ownerListKeys {
		switch x := obj[key].(type) {
		case nil:
		case []interface{}:
			ids = append(ids, normalizeRefs(x)...)
		default:
			if id, ok := normalizeRef(x); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func normalizeRefs(values []interface{}) []string {
	ids := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := normalizeRef(v); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// normalizeRef ссылка на клиента: строка, число или объект с id/clientId/ownerClientId/tenantId.
func normalizeRef(v interface{}) (string, bool) {
	if obj, ok := v.(map[string]interface{}); ok {
		for _, key := range ownerRefKeys {
			if inner, ok := obj[key]; ok && inner != nil {
				return normalizeScalar(inner)
			}
		}
		return "", false
	}
	return normalizeScalar(v)
}

func normalizeScalar(v interface{}) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case json.Number:
		return util.FormatNumber(x), true
	}
	return "", false
}

func isAll(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), "all")
}

func isTrue(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func looseString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	}
	return ""
}

// looseDays дни недели 0..6; второй результат true для любого непустого массива.
func looseDays(v interface{}) ([]int, bool) {
	values, ok := v.([]interface{})
	if !ok || len(values) == 0 {
		return nil, false
	}

	days := make([]int, 0, len(values))
	for _, value := range values {
		var raw string
		switch x := value.(type) {
		case json.Number:
			raw = x.String()
		case string:
			raw = strings.TrimSpace(x)
		default:
			continue
		}

		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f != math.Trunc(f) {
			continue
		}
		if day := int(f); f >= 0 && f <= 6 {
			days = append(days, day)
		}
	}
	return days, true
}
