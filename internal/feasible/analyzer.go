package feasible

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/store"
)

// DefaultBufferMins is the assumed airport-to-port transfer time
const DefaultBufferMins = 40

// defaultSchedules stand in when retrieval produced no real timetable
// for a destination. Keyed by destination name substring; results are
// tagged so callers can tell defaults from retrieved data.
var defaultSchedules = []struct {
	substring string
	times     []string
}{
	{"直岛", []string{"08:00", "10:00", "12:00", "14:00", "16:00", "18:00"}},
	{"丰岛", []string{"09:00", "12:00", "15:00", "17:30"}},
	{"小豆岛", []string{"07:00", "09:00", "11:00", "13:00", "15:00", "17:00", "19:00"}},
}

var genericSchedule = []string{"09:00", "12:00", "15:00", "18:00"}

// Analyzer performs schedule arithmetic for time-constrained queries
type Analyzer struct {
	bufferMins int
	logger     *zap.Logger
}

// NewAnalyzer creates an analyzer with the given transfer buffer in
// minutes; non-positive values use the default.
func NewAnalyzer(bufferMins int, logger *zap.Logger) *Analyzer {
	if bufferMins <= 0 {
		bufferMins = DefaultBufferMins
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{bufferMins: bufferMins, logger: logger}
}

// Analyze projects the traveler's port arrival and computes the
// feasible departures per destination. schedules maps destination to
// its retrieved timetable; destinations without one get a built-in
// default. Returns nil when the requirement has no departure time.
func (a *Analyzer) Analyze(req *model.TravelRequirement, schedules map[string][]string) *model.FeasibilityAnalysis {
	departureTime := normalizeClock(req.Departure.Time)
	if departureTime == "" {
		return nil
	}

	board, nextDay := addMinutes(departureTime, a.bufferMins)

	analysis := &model.FeasibilityAnalysis{
		ArrivalTime: board,
		NextDay:     nextDay,
		BufferMins:  a.bufferMins,
	}

	for _, dest := range req.DestinationOptions {
		analysis.Destinations = append(analysis.Destinations, a.analyzeDestination(dest, board, nextDay, schedules))
	}

	analysis.Summary = a.summarize(analysis)
	return analysis
}

func (a *Analyzer) analyzeDestination(dest, board string, nextDay bool, schedules map[string][]string) model.DestinationFeasibility {
	schedule, source := a.scheduleFor(dest, schedules)

	df := model.DestinationFeasibility{
		Destination:     dest,
		EarliestBoard:   board,
		ScheduleSource:  source,
		DeparturesTried: schedule,
	}

	if nextDay {
		// The traveler arrives after midnight; every sailing of the
		// following service day is reachable.
		df.Feasible = true
		df.CatchableTimes = schedule
		if len(schedule) > 0 {
			df.NextDeparture = schedule[0]
		}
		df.Recommendation = fmt.Sprintf("抵达已过午夜，建议次日乘%s班", df.NextDeparture)
		return df
	}

	for _, t := range schedule {
		if t >= board {
			df.CatchableTimes = append(df.CatchableTimes, t)
		}
	}

	if len(df.CatchableTimes) > 0 {
		df.Feasible = true
		df.NextDeparture = df.CatchableTimes[0]
		df.Recommendation = fmt.Sprintf("预计%s到港，可乘%s班", board, df.NextDeparture)
	} else {
		df.MissedToday = true
		if len(schedule) > 0 {
			df.NextDeparture = schedule[0]
		}
		df.Recommendation = fmt.Sprintf("预计%s到港，当日已无班次，建议次日乘%s班", board, df.NextDeparture)
	}
	return df
}

// scheduleFor returns the timetable for a destination, falling back to
// the built-in defaults, plus its provenance tag.
func (a *Analyzer) scheduleFor(dest string, schedules map[string][]string) ([]string, string) {
	normalized := store.NormalizeLocation(dest)
	if times := schedules[normalized]; len(times) > 0 {
		return sortedDistinct(times), "evidence"
	}
	if times := schedules[dest]; len(times) > 0 {
		return sortedDistinct(times), "evidence"
	}

	for _, d := range defaultSchedules {
		if strings.Contains(normalized, d.substring) {
			return d.times, "default"
		}
	}
	a.logger.Debug("no schedule for destination, using generic default", zap.String("destination", dest))
	return genericSchedule, "default"
}

func (a *Analyzer) summarize(analysis *model.FeasibilityAnalysis) string {
	best := -1
	for i, df := range analysis.Destinations {
		if !df.Feasible {
			continue
		}
		if best < 0 || df.NextDeparture < analysis.Destinations[best].NextDeparture {
			best = i
		}
	}
	if best >= 0 {
		df := analysis.Destinations[best]
		return fmt.Sprintf("推荐%s：最早可乘%s班", df.Destination, df.NextDeparture)
	}
	if len(analysis.Destinations) > 0 {
		return "当日各方向均已无班次，建议推迟到次日出发"
	}
	return ""
}

// Recommended returns the destination with the earliest feasible
// departure, or "" when nothing is feasible today.
func Recommended(analysis *model.FeasibilityAnalysis) string {
	if analysis == nil {
		return ""
	}
	best := ""
	bestTime := ""
	for _, df := range analysis.Destinations {
		if !df.Feasible {
			continue
		}
		if best == "" || df.NextDeparture < bestTime {
			best = df.Destination
			bestTime = df.NextDeparture
		}
	}
	return best
}

// ExtractSchedules groups departure times by destination from
// structured route evidence.
func ExtractSchedules(evidence []model.Evidence) map[string][]string {
	out := make(map[string][]string)
	for _, ev := range evidence {
		if ev.Metadata["type"] != "route_schedule" {
			continue
		}
		dest := store.NormalizeLocation(ev.Metadata["destination"])
		t := normalizeClock(ev.Metadata["departure_time"])
		if dest == "" || t == "" {
			continue
		}
		out[dest] = append(out[dest], t)
	}
	for dest, times := range out {
		out[dest] = sortedDistinct(times)
	}
	return out
}

// addMinutes adds mins to an HH:MM time with explicit carry. Results
// past midnight wrap to the next day rather than printing hour 24+.
func addMinutes(clock string, mins int) (string, bool) {
	h, m := splitClock(clock)
	total := h*60 + m + mins
	nextDay := false
	if total >= 24*60 {
		total -= 24 * 60
		nextDay = true
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60), nextDay
}

func splitClock(clock string) (int, int) {
	parts := strings.SplitN(clock, ":", 2)
	h, _ := strconv.Atoi(parts[0])
	m := 0
	if len(parts) == 2 {
		m, _ = strconv.Atoi(parts[1])
	}
	return h, m
}

func sortedDistinct(times []string) []string {
	seen := make(map[string]bool, len(times))
	var out []string
	for _, t := range times {
		t = normalizeClock(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// normalizeClock zero-pads H:MM so lexicographic comparison orders
// times correctly. Returns "" for anything unparseable.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[1]) != 2 {
		return ""
	}
	h := parts[0]
	if len(h) == 1 {
		h = "0" + h
	}
	if len(h) != 2 {
		return ""
	}
	for _, r := range h + parts[1] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return h + ":" + parts[1]
}
