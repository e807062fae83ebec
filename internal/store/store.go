package store

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/mnakata/islandhop/internal/model"
)

// locationAliases maps timetable spellings to the canonical names used
// throughout the pipeline. Japanese sources print 島/戸, travelers type
// the simplified forms.
var locationAliases = map[string]string{
	"直島":   "直岛",
	"豊島":   "丰岛",
	"豐島":   "丰岛",
	"丰島":   "丰岛",
	"小豆島":  "小豆岛",
	"犬島":   "犬岛",
	"神戸":   "神户",
	"高松港":  "高松",
	"宇野港":  "宇野",
	"高松機場": "高松机场",
	"高松空港": "高松机场",
}

// NormalizeLocation maps a location spelling to its canonical form.
// Unknown names pass through unchanged.
func NormalizeLocation(name string) string {
	name = strings.TrimSpace(name)
	if canonical, ok := locationAliases[name]; ok {
		return canonical
	}
	return name
}

// hubSuffixes are transport-hub markers stripped before comparing
// places, so 高松机场, 高松港 and 高松 resolve to the same locality.
var hubSuffixes = []string{"机场", "機場", "空港", "港"}

func stripHubSuffix(name string) string {
	for _, suffix := range hubSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	return name
}

// LocationMatches reports whether two place spellings refer to the
// same location: equal after normalization, or containing one another
// after hub suffixes are stripped. A traveler at 高松机场 matches
// timetable rows departing 高松港 or 高松.
func LocationMatches(a, b string) bool {
	a = NormalizeLocation(a)
	b = NormalizeLocation(b)
	if a == b {
		return true
	}
	a = stripHubSuffix(a)
	b = stripHubSuffix(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

const snapshotKey = "dataset"

// EvidenceStore serves structured ferry data from CSV files. Loaded
// data is held as a TTL snapshot so edited files are picked up without
// a restart while queries stay off the filesystem.
type EvidenceStore struct {
	cfg    model.DataConfig
	cache  *gocache.Cache
	logger *zap.Logger

	mu         sync.Mutex // Serializes reloads, not reads
	lastReport ValidationReport
}

// NewEvidenceStore creates a store over the configured data files.
// snapshotTTL bounds how stale served data can be.
func NewEvidenceStore(cfg model.DataConfig, snapshotTTL time.Duration, logger *zap.Logger) *EvidenceStore {
	if snapshotTTL <= 0 {
		snapshotTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceStore{
		cfg:    cfg,
		cache:  gocache.New(snapshotTTL, 2*snapshotTTL),
		logger: logger,
	}
}

// snapshot returns the current dataset, reloading from disk when the
// cached copy has expired.
func (s *EvidenceStore) snapshot() (*dataset, error) {
	if v, found := s.cache.Get(snapshotKey); found {
		return v.(*dataset), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A concurrent reload may have won the race.
	if v, found := s.cache.Get(snapshotKey); found {
		return v.(*dataset), nil
	}

	ds, report, err := s.load()
	if err != nil {
		return nil, err
	}
	s.lastReport = report
	for _, issue := range report.Issues {
		s.logger.Warn("data validation issue", zap.String("issue", issue))
	}
	s.logger.Info("loaded ferry data",
		zap.Int("routes", report.RouteCount),
		zap.Int("ports", report.PortCount),
		zap.Int("companies", report.CompanyCount))

	s.cache.SetDefault(snapshotKey, ds)
	return ds, nil
}

func (s *EvidenceStore) load() (*dataset, ValidationReport, error) {
	var report ValidationReport

	routes, err := loadRoutes(s.cfg.RoutesFile, &report)
	if err != nil {
		return nil, report, err
	}
	ports, err := loadPorts(s.cfg.PortsFile, &report)
	if err != nil {
		return nil, report, err
	}
	companies, err := loadCompanies(s.cfg.CompaniesFile, &report)
	if err != nil {
		return nil, report, err
	}

	return &dataset{Routes: routes, Ports: ports, Companies: companies}, report, nil
}

// Validate loads the data files and returns the resulting report
func (s *EvidenceStore) Validate() (ValidationReport, error) {
	if _, err := s.snapshot(); err != nil {
		return ValidationReport{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport, nil
}

// FindRoutes returns routes matching the given endpoints. Empty
// arguments match everything; endpoints are compared with
// LocationMatches so 直島, 直岛 and 高松机场/高松港 find the same rows.
func (s *EvidenceStore) FindRoutes(departure, destination string) ([]model.Route, error) {
	ds, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	departure = NormalizeLocation(departure)
	destination = NormalizeLocation(destination)

	var out []model.Route
	for _, r := range ds.Routes {
		if departure != "" && !LocationMatches(r.Departure, departure) {
			continue
		}
		if destination != "" && !LocationMatches(r.Arrival, destination) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FindPorts returns ports whose name or island matches the given place
func (s *EvidenceStore) FindPorts(place string) ([]model.Port, error) {
	ds, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	place = NormalizeLocation(place)
	var out []model.Port
	for _, p := range ds.Ports {
		if place == "" || LocationMatches(p.Name, place) || LocationMatches(p.Island, place) {
			out = append(out, p)
		}
	}
	return out, nil
}

// FindCompanies returns operators whose name or routes mention the
// given term. An empty term matches everything.
func (s *EvidenceStore) FindCompanies(term string) ([]model.Company, error) {
	ds, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var out []model.Company
	for _, c := range ds.Companies {
		if term == "" || strings.Contains(c.Name, term) || strings.Contains(c.MainRoutes, term) {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindConnections returns routes that depart from any port on the way
// between two places, used for transfer planning when no direct route
// exists.
func (s *EvidenceStore) FindConnections(departure, destination string) ([]model.Route, error) {
	direct, err := s.FindRoutes(departure, destination)
	if err != nil {
		return nil, err
	}
	if len(direct) > 0 {
		return direct, nil
	}

	// One-transfer search: legs out of the departure whose arrival has
	// an onward leg to the destination.
	firstLegs, err := s.FindRoutes(departure, "")
	if err != nil {
		return nil, err
	}

	var out []model.Route
	seen := make(map[string]bool)
	for _, leg := range firstLegs {
		onward, err := s.FindRoutes(leg.Arrival, destination)
		if err != nil {
			return nil, err
		}
		if len(onward) == 0 {
			continue
		}
		key := leg.Departure + ">" + leg.Arrival + "@" + leg.DepartureTime
		if !seen[key] {
			seen[key] = true
			out = append(out, leg)
		}
		for _, o := range onward {
			key := o.Departure + ">" + o.Arrival + "@" + o.DepartureTime
			if !seen[key] {
				seen[key] = true
				out = append(out, o)
			}
		}
	}
	return out, nil
}
