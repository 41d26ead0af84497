package access

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/guoosantos/euro-one-sub006/libs/logging"
	log "github.com/sirupsen/logrus"
)

const IPModeSingle = "single"

// DeniedError отказ в доступе, который HTTP-слой превращает в ответ с кодом Status.
type DeniedError struct {
	Status  int
	Message string
}

func (e *DeniedError) Error() string {
	return e.Message
}

var (
	ErrIPBlocked       = &DeniedError{Status: http.StatusForbidden, Message: "Acesso bloqueado para o IP atual"}
	ErrOutsideSchedule = &DeniedError{Status: http.StatusForbidden, Message: "Acesso bloqueado fora do horário permitido"}
)

// Request то, что шлюзу нужно знать о входящем запросе.
type Request interface {
	Principal() *User
	Header(name string) string
	PeerAddress() string
}

// Gate проверяет ограничения пользователя по IP и расписанию.
type Gate struct {
	// Location часовой пояс, в котором трактуется расписание; по умолчанию time.Local.
	Location *time.Location
	// Warnings журнал предупреждений о нераспознанных расписаниях; может быть nil.
	Warnings *logging.Once
	// Clock источник времени для Middleware; по умолчанию time.Now.
	Clock func() time.Time
}

func NewGate(location *time.Location, warnings *logging.Once) *Gate {
	return &Gate{Location: location, Warnings: warnings, Clock: time.Now}
}

// Enforce сначала проверяет IP, затем расписание; возвращает первый отказ.
func (g *Gate) Enforce(req Request, now time.Time) error {
	if req == nil {
		return nil
	}

	user := req.Principal()
	if user == nil || user.IsAdmin() {
		return nil
	}

	userAccess := user.Attributes.UserAccess
	if userAccess == nil {
		return nil
	}

	if err := checkIP(userAccess.IPRestriction, req); err != nil {
		return err
	}

	return g.checkSchedule(user, userAccess.Schedule, now)
}

func (g *Gate) now() time.Time {
	if g.Clock == nil {
		return time.Now()
	}
	return g.Clock()
}

func (g *Gate) location() *time.Location {
	if g.Location == nil {
		return time.Local
	}
	return g.Location
}

func checkIP(restriction *IPRestriction, req Request) error {
	if restriction == nil || !strings.EqualFold(restriction.Mode, IPModeSingle) {
		return nil
	}

	allowed := normalizeIP(restriction.IP)
	if allowed == "" {
		return nil
	}

	// Неопределённый IP клиента не блокирует запрос.
	current := ClientIP(req)
	if current == "" {
		return nil
	}

	if current != allowed {
		return ErrIPBlocked
	}
	return nil
}

// ClientIP первый адрес из X-Forwarded-For, иначе адрес соединения без порта.
func ClientIP(req Request) string {
	if forwarded := req.Header("X-Forwarded-For"); forwarded != "" {
		if first := normalizeIP(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}

	peer := strings.TrimSpace(req.PeerAddress())
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	return normalizeIP(peer)
}

func normalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	return strings.TrimPrefix(ip, "::ffff:")
}

func (g *Gate) checkSchedule(user *User, schedule *Schedule, now time.Time) error {
	if schedule == nil {
		return nil
	}

	bounded := schedule.Start != "" || schedule.End != ""
	start, startOK := parseClock(schedule.Start)
	end, endOK := parseClock(schedule.End)
	if bounded && (!startOK || !endOK) {
		// Расписание с нераспознанными границами не применяется.
		g.Warnings.Warn("schedule:"+user.ID.String()+":"+schedule.Start+"-"+schedule.End, log.Fields{
			"user":  user.ID,
			"start": schedule.Start,
			"end":   schedule.End,
		}, "Расписание доступа не распознано и не применяется")
		return nil
	}

	local := now.In(g.location())

	if (schedule.DaysSet || len(schedule.Days) > 0) && !containsDay(schedule.Days, int(local.Weekday())) {
		return ErrOutsideSchedule
	}

	if bounded {
		minute := local.Hour()*60 + local.Minute()
		if minute < start || minute > end {
			return ErrOutsideSchedule
		}
	}

	return nil
}

// parseClock "HH:MM" в минуты от полуночи.
func parseClock(value string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}

	return hours*60 + minutes, true
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
