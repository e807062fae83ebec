package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/mnakata/islandhop/internal/model"
)

// dataset is one loaded snapshot of the tabular ferry data
type dataset struct {
	Routes    []model.Route
	Ports     []model.Port
	Companies []model.Company
}

// ValidationReport lists data problems found while loading.
// Problems are advisory: bad rows are skipped, the rest still load.
type ValidationReport struct {
	RouteCount   int
	PortCount    int
	CompanyCount int
	Issues       []string
}

// OK reports whether the load produced usable data
func (r *ValidationReport) OK() bool {
	return r.RouteCount > 0 || r.PortCount > 0 || r.CompanyCount > 0
}

func (r *ValidationReport) addIssue(format string, a ...interface{}) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, a...))
}

// readCSV reads a header-keyed CSV file into row maps.
// A missing file is not an error; the caller decides whether the
// dataset can function without it.
func readCSV(path string, report *ValidationReport) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			report.addIssue("data file missing: %s", path)
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // Validate per row instead
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) < 2 {
		report.addIssue("no data rows in %s", path)
		return nil, nil
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var rows []map[string]string
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			report.addIssue("%s row %d: %d fields, want %d", path, i+2, len(rec), len(header))
			continue
		}
		row := make(map[string]string, len(header))
		for j, h := range header {
			row[h] = strings.TrimSpace(rec[j])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func loadRoutes(path string, report *ValidationReport) ([]model.Route, error) {
	rows, err := readCSV(path, report)
	if err != nil {
		return nil, err
	}

	var routes []model.Route
	for i, row := range rows {
		r := model.Route{
			Departure:      row["departure"],
			Arrival:        row["arrival"],
			DepartureTime:  row["departure_time"],
			ArrivalTime:    row["arrival_time"],
			Duration:       row["duration"],
			Company:        row["company"],
			ShipType:       row["ship_type"],
			AdultFare:      row["adult_fare"],
			ChildFare:      row["child_fare"],
			OperatingDays:  row["operating_days"],
			AllowsVehicles: parseBool(row["allows_vehicles"]),
			AllowsBicycles: parseBool(row["allows_bicycles"]),
			Notes:          row["notes"],
		}
		if r.Departure == "" || r.Arrival == "" {
			report.addIssue("%s row %d: missing departure or arrival", path, i+2)
			continue
		}
		if r.DepartureTime != "" && !validClock(r.DepartureTime) {
			report.addIssue("%s row %d: bad departure_time %q", path, i+2, r.DepartureTime)
		}
		routes = append(routes, r)
	}
	report.RouteCount = len(routes)
	return routes, nil
}

func loadPorts(path string, report *ValidationReport) ([]model.Port, error) {
	rows, err := readCSV(path, report)
	if err != nil {
		return nil, err
	}

	var ports []model.Port
	for i, row := range rows {
		p := model.Port{
			Name:        row["name"],
			Island:      row["island"],
			Address:     row["address"],
			Features:    row["features"],
			Connections: row["connections"],
		}
		if p.Name == "" {
			report.addIssue("%s row %d: missing port name", path, i+2)
			continue
		}
		ports = append(ports, p)
	}
	report.PortCount = len(ports)
	return ports, nil
}

func loadCompanies(path string, report *ValidationReport) ([]model.Company, error) {
	rows, err := readCSV(path, report)
	if err != nil {
		return nil, err
	}

	var companies []model.Company
	for i, row := range rows {
		c := model.Company{
			Name:       row["name"],
			Phone:      row["phone"],
			Website:    row["website"],
			MainRoutes: row["main_routes"],
			Notes:      row["notes"],
		}
		if c.Name == "" {
			report.addIssue("%s row %d: missing company name", path, i+2)
			continue
		}
		companies = append(companies, c)
	}
	report.CompanyCount = len(companies)
	return companies, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "是", "可":
		return true
	}
	return false
}

// validClock accepts H:MM and HH:MM between 0:00 and 29:59. Hours past
// 23 are how timetables print post-midnight sailings of the same
// service day.
func validClock(s string) bool {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return false
	}
	h, m := parts[0], parts[1]
	if len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return false
	}
	for _, r := range h + m {
		if r < '0' || r > '9' {
			return false
		}
	}
	hv := int(h[0] - '0')
	if len(h) == 2 {
		hv = hv*10 + int(h[1]-'0')
	}
	mv := int(m[0]-'0')*10 + int(m[1]-'0')
	return hv < 30 && mv < 60
}
