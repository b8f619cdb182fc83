package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"fleetboard/internal/models"
)

// Column indices of the CAMP due-list export (0-based). The layout is owned
// by CAMP, not by this repo.
const (
	colReg         = 0
	colAirframeRpt = 2 // Airframe Report Date
	colAirframeHrs = 3
	colATA         = 5 // ATA and Code wording
	colItemType    = 11
	colDisposition = 13
	colDesc        = 15
	colRemDays     = 50
	colRemHrs      = 54
	colStatus      = 63 // Next Due Status
)

// componentSortFallback orders component items that carry neither a
// remaining-hours nor a remaining-days threshold after everything else.
const componentSortFallback = 9999.0

// Options configures which rows a Parser keeps.
type Options struct {
	// Intervals maps each tracked phase inspection interval (hours) to the
	// ATA code patterns that identify it.
	Intervals map[int][]string

	// Component window: retirement/overhaul items are kept when within this
	// many hours or days of their limit, or already past due.
	ComponentWindowHours float64
	ComponentWindowDays  float64
}

// Parser reads CAMP due-list exports into typed records.
type Parser struct {
	intervals  map[int][]*regexp.Regexp
	windowHrs  float64
	windowDays float64
}

// DueList is the parsed content of one export: per-aircraft meta, the most
// urgent inspection item per (tail, interval), and component items within
// the configured window.
type DueList struct {
	ReportDate  *time.Time
	Meta        map[string]models.AircraftMeta
	Inspections map[string]map[int]models.MaintenanceItem
	Components  map[string][]models.MaintenanceItem
}

// New compiles the interval patterns and returns a ready Parser.
func New(opts Options) (*Parser, error) {
	compiled := make(map[int][]*regexp.Regexp, len(opts.Intervals))
	for interval, patterns := range opts.Intervals {
		for _, pat := range patterns {
			rx, err := regexp.Compile(`(?i)` + pat)
			if err != nil {
				return nil, fmt.Errorf("interval %d: bad ATA pattern %q: %w", interval, pat, err)
			}
			compiled[interval] = append(compiled[interval], rx)
		}
	}
	return &Parser{
		intervals:  compiled,
		windowHrs:  opts.ComponentWindowHours,
		windowDays: opts.ComponentWindowDays,
	}, nil
}

// ParseFile parses one due-list CSV file.
func (p *Parser) ParseFile(path string) (*DueList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open due list %s: %w", path, err)
	}
	defer f.Close()
	return p.Parse(f, path)
}

// Parse parses a due-list CSV stream. Malformed rows are skipped with a
// warning; only an unreadable stream or a missing header is fatal.
func (p *Parser) Parse(r io.Reader, name string) (*DueList, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true    // Handle malformed quotes in CSV
	reader.FieldsPerRecord = -1 // Allow variable number of fields per record

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header from %s: %w", name, err)
	}
	if len(header) > 0 {
		// Exports written on Windows carry a UTF-8 BOM.
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	dl := &DueList{
		Meta:        make(map[string]models.AircraftMeta),
		Inspections: make(map[string]map[int]models.MaintenanceItem),
		Components:  make(map[string][]models.MaintenanceItem),
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			slog.Warn("Skipping unreadable due-list row", "file", name, "line", line, "error", err)
			continue
		}
		p.parseRow(dl, record, name, line)
	}

	return dl, nil
}

// parseRow folds one export row into the due list.
func (p *Parser) parseRow(dl *DueList, record []string, name string, line int) {
	// Footer and junk lines are shorter than the real export layout.
	if len(record) <= colStatus {
		slog.Warn("Skipping short due-list row", "file", name, "line", line, "fields", len(record))
		return
	}

	reg := strings.ToUpper(cell(record, colReg))
	if reg == "" {
		slog.Warn("Skipping due-list row without tail number", "file", name, "line", line)
		return
	}

	airframeHrs := parseFloat(cell(record, colAirframeHrs))
	reportDate := parseReportDate(cell(record, colAirframeRpt))

	if _, ok := dl.Meta[reg]; !ok {
		dl.Meta[reg] = models.AircraftMeta{
			TailNumber:    reg,
			AirframeHours: airframeHrs,
			ReportDate:    reportDate,
		}
		if dl.ReportDate == nil && reportDate != nil {
			dl.ReportDate = reportDate
		}
	}

	ataText := cell(record, colATA)
	itemType := strings.ToUpper(cell(record, colItemType))
	desc := cell(record, colDesc)
	remHrs := parseFloat(cell(record, colRemHrs))
	remDays := parseFloat(cell(record, colRemDays))
	status := cell(record, colStatus)

	if itemType == "INSPECTION" {
		p.foldInspection(dl, reg, ataText, desc, remHrs, remDays, status, airframeHrs, reportDate)
	}

	isPart := itemType == "PART"
	isRetirementInsp := itemType == "INSPECTION" && hasRetirementKeyword(desc)
	if isPart || isRetirementInsp {
		p.foldComponent(dl, reg, record, desc, remHrs, remDays, status, airframeHrs, reportDate)
	}
}

// foldInspection matches a row against the phase interval patterns and keeps
// the lowest-remaining-hours item per (tail, interval).
func (p *Parser) foldInspection(dl *DueList, reg, ataText, desc string, remHrs, remDays *float64, status string, airframeHrs *float64, reportDate *time.Time) {
	for interval, patterns := range p.intervals {
		matched := false
		for _, rx := range patterns {
			if rx.MatchString(ataText) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		item := models.MaintenanceItem{
			TailNumber:     reg,
			Description:    desc,
			Category:       models.CategoryInspection,
			IntervalHours:  interval,
			RemainingHours: remHrs,
			RemainingDays:  remDays,
			DueDate:        dueDate(reportDate, remDays),
			DueHours:       dueHours(airframeHrs, remHrs),
			StatusText:     status,
		}

		if dl.Inspections[reg] == nil {
			dl.Inspections[reg] = make(map[int]models.MaintenanceItem)
		}
		existing, ok := dl.Inspections[reg][interval]
		if !ok || lessRemaining(item.RemainingHours, existing.RemainingHours) {
			dl.Inspections[reg][interval] = item
		}
	}
}

// foldComponent keeps retirement/overhaul items within the component window.
func (p *Parser) foldComponent(dl *DueList, reg string, record []string, desc string, remHrs, remDays *float64, status string, airframeHrs *float64, reportDate *time.Time) {
	hrsInWindow := remHrs != nil && *remHrs <= p.windowHrs
	daysInWindow := remHrs == nil && remDays != nil && *remDays <= p.windowDays
	pastDue := strings.EqualFold(strings.TrimSpace(status), "PAST DUE")
	if !hrsInWindow && !daysInWindow && !pastDue {
		return
	}

	disposition := cell(record, colDisposition)
	rii := strings.Contains(strings.ToUpper(disposition), "RII") ||
		strings.Contains(strings.ToUpper(desc), "RII")

	dl.Components[reg] = append(dl.Components[reg], models.MaintenanceItem{
		TailNumber:     reg,
		Description:    cleanComponentName(desc),
		Category:       models.CategoryComponent,
		RemainingHours: remHrs,
		RemainingDays:  remDays,
		DueDate:        dueDate(reportDate, remDays),
		DueHours:       dueHours(airframeHrs, remHrs),
		StatusText:     status,
		RII:            rii,
	})
}

// Finalize sorts and dedupes each aircraft's components by urgency. Dedupe
// keys on a name prefix because CAMP repeats near-identical rows for the
// same part across positions.
func (dl *DueList) Finalize() {
	for reg, comps := range dl.Components {
		sort.SliceStable(comps, func(i, j int) bool {
			return componentSortKey(comps[i]) < componentSortKey(comps[j])
		})
		seen := make(map[string]bool, len(comps))
		deduped := comps[:0]
		for _, c := range comps {
			key := c.Description
			if len(key) > 40 {
				key = key[:40]
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			deduped = append(deduped, c)
		}
		dl.Components[reg] = deduped
	}
}

func componentSortKey(c models.MaintenanceItem) float64 {
	if c.RemainingHours != nil {
		return *c.RemainingHours
	}
	if c.RemainingDays != nil {
		return *c.RemainingDays * 0.5
	}
	return componentSortFallback
}

// Merge overlays a daily export on a weekly one: daily wins per (tail,
// interval), meta prefers daily, components come from daily only. Aircraft
// present only in the weekly export are still included.
func Merge(weekly, daily *DueList) *DueList {
	if weekly == nil {
		return daily
	}

	merged := &DueList{
		ReportDate:  daily.ReportDate,
		Meta:        make(map[string]models.AircraftMeta),
		Inspections: make(map[string]map[int]models.MaintenanceItem),
		Components:  daily.Components,
	}
	if merged.ReportDate == nil {
		merged.ReportDate = weekly.ReportDate
	}

	for reg, meta := range weekly.Meta {
		merged.Meta[reg] = meta
	}
	for reg, meta := range daily.Meta {
		merged.Meta[reg] = meta
	}

	for reg, buckets := range weekly.Inspections {
		merged.Inspections[reg] = make(map[int]models.MaintenanceItem, len(buckets))
		for interval, item := range buckets {
			merged.Inspections[reg][interval] = item
		}
	}
	for reg, buckets := range daily.Inspections {
		if merged.Inspections[reg] == nil {
			merged.Inspections[reg] = make(map[int]models.MaintenanceItem, len(buckets))
		}
		for interval, item := range buckets {
			merged.Inspections[reg][interval] = item
		}
	}

	return merged
}

// Tails returns every tail number in the due list, sorted.
func (dl *DueList) Tails() []string {
	tails := make([]string, 0, len(dl.Meta))
	for reg := range dl.Meta {
		tails = append(tails, reg)
	}
	sort.Strings(tails)
	return tails
}

// Items returns every maintenance item as one ordered sequence: by tail,
// inspections (by interval) before components.
func (dl *DueList) Items() []models.MaintenanceItem {
	var items []models.MaintenanceItem
	for _, reg := range dl.Tails() {
		buckets := dl.Inspections[reg]
		intervals := make([]int, 0, len(buckets))
		for interval := range buckets {
			intervals = append(intervals, interval)
		}
		sort.Ints(intervals)
		for _, interval := range intervals {
			items = append(items, buckets[interval])
		}
		items = append(items, dl.Components[reg]...)
	}
	return items
}

func dueDate(reportDate *time.Time, remDays *float64) *time.Time {
	if reportDate == nil || remDays == nil {
		return nil
	}
	d := reportDate.AddDate(0, 0, int(*remDays))
	return &d
}

func dueHours(airframeHrs, remHrs *float64) *float64 {
	if airframeHrs == nil || remHrs == nil {
		return nil
	}
	h := *airframeHrs + *remHrs
	return &h
}

// lessRemaining reports whether a is a more urgent remaining-hours value
// than b. A known value always beats an unknown one.
func lessRemaining(a, b *float64) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return *a < *b
}
