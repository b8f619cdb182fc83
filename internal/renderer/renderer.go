// Package renderer serializes the derived record set into one self-contained
// HTML document: inline styling and script, nothing fetched at view time.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"sort"
	"strings"
	"time"

	"fleetboard/internal/engine"
	"fleetboard/internal/models"
)

//go:embed dashboard.html.tmpl
var templateFS embed.FS

var dashboardTmpl = template.Must(
	template.New("dashboard.html.tmpl").Funcs(funcMap()).ParseFS(templateFS, "dashboard.html.tmpl"),
)

func funcMap() template.FuncMap {
	return template.FuncMap{
		"statusClass": statusClass,
	}
}

// view is the template's root context. Everything is preformatted so the
// template stays layout-only and the output stays deterministic.
type view struct {
	ReportDate  string
	GeneratedAt string
	Summary     engine.Summary
	Intervals   []int
	Rows        []aircraftRow
	Panels      []componentPanel
	HoursCards  []hoursCard
	BarChart    []barRow
	Bases       []baseCard
	Unassigned  []unassignedCard
	HasBases    bool
}

type inspCell struct {
	Label string
	Class string
	Empty bool
}

type aircraftRow struct {
	Tail          string
	AirframeHours string
	Location      string // location badge text, "" when unknown
	LocationClass string
	Cells         []inspCell
}

type componentPanel struct {
	Tail          string
	AirframeHours string
	Rows          []componentRow
}

type componentRow struct {
	Name  string
	RII   bool
	Label string
	Class string
}

type hoursCard struct {
	Tail         string
	Current      string
	Weekly       string
	WeeklyClass  string
	Monthly      string
	MonthlyClass string
	AvgDaily     string
	Spark        template.HTML // inline SVG, "" when not enough history
}

type barRow struct {
	Tail    string
	Label   string
	Percent int // bar width, urgency-scaled
	Class   string
}

type baseCard struct {
	Name     string
	Status   string // "occupied" or "available"
	Count    string
	Aircraft []baseAircraft
}

type baseAircraft struct {
	Tail     string
	AtBase   bool
	Distance string
}

type unassignedCard struct {
	Tail     string
	Closest  string
	Distance string
}

// Render produces the dashboard HTML. Identical inputs and an identical now
// produce byte-identical output.
func Render(res engine.Result, assignments *models.AssignmentSnapshot, now time.Time) ([]byte, error) {
	v := view{
		ReportDate:  res.ReportDate,
		GeneratedAt: strings.ToUpper(now.Format("02 Jan 2006 15:04")),
		Summary:     res.Summary,
		Intervals:   res.Intervals,
	}

	for _, rec := range res.Records {
		v.Rows = append(v.Rows, buildRow(rec, res.Intervals))
		if panel, ok := buildPanel(rec); ok {
			v.Panels = append(v.Panels, panel)
		}
		v.HoursCards = append(v.HoursCards, buildHoursCard(rec))
	}

	v.BarChart = buildBarChart(res.Records)
	v.Bases, v.Unassigned, v.HasBases = buildBases(assignments)

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("failed to render dashboard: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the rendered document atomically so a failed run never
// clobbers the previous dashboard.
func WriteFile(path string, html []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, html, 0o644); err != nil {
		return fmt.Errorf("failed to write dashboard: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace dashboard: %w", err)
	}
	return nil
}

func buildRow(rec models.DashboardRecord, intervals []int) aircraftRow {
	row := aircraftRow{
		Tail:          rec.TailNumber,
		AirframeHours: fmtHours(rec.AirframeHours),
	}

	row.Location, row.LocationClass = locationBadge(rec)

	for _, interval := range intervals {
		item, ok := rec.Inspections[interval]
		if !ok {
			row.Cells = append(row.Cells, inspCell{Empty: true})
			continue
		}
		row.Cells = append(row.Cells, inspCell{
			Label: cellLabel(item),
			Class: statusClass(item.Status),
		})
	}

	return row
}

// locationBadge renders the position marker. A tail with no position data
// still appears, flagged with the unknown-base marker.
func locationBadge(rec models.DashboardRecord) (string, string) {
	if rec.Position == nil {
		return "UNKNOWN BASE", "loc-unknown"
	}
	switch {
	case rec.Position.AtBase:
		return "AT BASE", "loc-at-base"
	case strings.Contains(rec.Position.Status, "ACTIVE"),
		strings.Contains(rec.Position.Status, "TAKE-OFF"),
		strings.Contains(rec.Position.Status, "LANDING"):
		return "ACTIVE", "loc-active"
	default:
		return "AWAY", "loc-away"
	}
}

// cellLabel renders the badge text for one inspection cell: hours remaining
// when known, else days, else the raw status.
func cellLabel(item models.RatedItem) string {
	if item.RemainingHours != nil {
		if *item.RemainingHours < 0 {
			return fmt.Sprintf("OVRD %.0f", -*item.RemainingHours)
		}
		return fmt.Sprintf("%.1f", *item.RemainingHours)
	}
	if item.RemainingDays != nil {
		if *item.RemainingDays < 0 {
			return fmt.Sprintf("OVRD %.0fd", -*item.RemainingDays)
		}
		return fmt.Sprintf("%.0fd", *item.RemainingDays)
	}
	if item.StatusText != "" {
		s := item.StatusText
		if len(s) > 8 {
			s = s[:8]
		}
		return s
	}
	return "?"
}

func buildPanel(rec models.DashboardRecord) (componentPanel, bool) {
	if len(rec.Components) == 0 {
		return componentPanel{}, false
	}

	panel := componentPanel{
		Tail:          rec.TailNumber,
		AirframeHours: fmtHours(rec.AirframeHours),
	}
	for _, c := range rec.Components {
		panel.Rows = append(panel.Rows, componentRow{
			Name:  c.Description,
			RII:   c.RII,
			Label: componentLabel(c),
			Class: statusClass(c.Status),
		})
	}
	return panel, true
}

func componentLabel(c models.RatedItem) string {
	if c.RemainingHours != nil {
		if *c.RemainingHours < 0 {
			return fmt.Sprintf("OVERDUE — %.1f hrs past limit", -*c.RemainingHours)
		}
		return fmt.Sprintf("%.1f hrs remaining", *c.RemainingHours)
	}
	if c.RemainingDays != nil {
		if *c.RemainingDays < 0 {
			return fmt.Sprintf("OVERDUE — %.0f days past limit", -*c.RemainingDays)
		}
		return fmt.Sprintf("%.0f days remaining", *c.RemainingDays)
	}
	return c.StatusText
}

func buildHoursCard(rec models.DashboardRecord) hoursCard {
	card := hoursCard{
		Tail:     rec.TailNumber,
		Current:  fmtHours(rec.Hours.CurrentHours),
		Weekly:   "—",
		Monthly:  "—",
		AvgDaily: "—",
	}

	if rec.Hours.Weekly != nil {
		card.Weekly = fmt.Sprintf("%.1f", *rec.Hours.Weekly)
		card.WeeklyClass = deltaClass(*rec.Hours.Weekly, 5)
	}
	if rec.Hours.Monthly != nil {
		card.Monthly = fmt.Sprintf("%.1f", *rec.Hours.Monthly)
		card.MonthlyClass = deltaClass(*rec.Hours.Monthly, 20)
	}
	if rec.Hours.AvgDaily != nil {
		card.AvgDaily = fmt.Sprintf("%.2f hrs/day", *rec.Hours.AvgDaily)
	}
	card.Spark = sparkline(rec.Hours.Daily)

	return card
}

func deltaClass(v, healthy float64) string {
	switch {
	case v > healthy:
		return "positive"
	case v > 0:
		return "low"
	default:
		return ""
	}
}

// sparkline renders the recent hours series as an inline SVG polyline.
// Needs two points; otherwise returns "".
func sparkline(daily []models.DailyHours) template.HTML {
	if len(daily) < 2 {
		return ""
	}

	minH, maxH := daily[0].Hours, daily[0].Hours
	for _, d := range daily {
		if d.Hours < minH {
			minH = d.Hours
		}
		if d.Hours > maxH {
			maxH = d.Hours
		}
	}
	spread := maxH - minH
	if spread == 0 {
		spread = 1
	}

	const w, h = 320.0, 64.0
	step := w / float64(len(daily)-1)
	var pts []string
	for i, d := range daily {
		x := float64(i) * step
		y := h - 6 - (d.Hours-minH)/spread*(h-12)
		pts = append(pts, fmt.Sprintf("%.1f,%.1f", x, y))
	}

	svg := fmt.Sprintf(
		`<svg class="spark" viewBox="0 0 %.0f %.0f" preserveAspectRatio="none"><polyline fill="none" stroke="#29b6f6" stroke-width="2" points="%s"/></svg>`,
		w, h, strings.Join(pts, " "),
	)
	return template.HTML(svg)
}

// buildBarChart lists the hours remaining to the 200-hr inspection across
// the fleet, closest first, as scaled bars.
func buildBarChart(records []models.DashboardRecord) []barRow {
	type entry struct {
		tail string
		rem  float64
		st   models.DueStatus
	}
	var entries []entry
	for _, rec := range records {
		item, ok := rec.Inspections[200]
		if !ok || item.RemainingHours == nil {
			continue
		}
		entries = append(entries, entry{rec.TailNumber, *item.RemainingHours, item.Status})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].rem != entries[j].rem {
			return entries[i].rem < entries[j].rem
		}
		return entries[i].tail < entries[j].tail
	})

	var rows []barRow
	for _, e := range entries {
		pct := int(e.rem / 200 * 100)
		if pct < 2 {
			pct = 2
		}
		if pct > 100 {
			pct = 100
		}
		rows = append(rows, barRow{
			Tail:    e.tail,
			Label:   fmt.Sprintf("%.1f", e.rem),
			Percent: pct,
			Class:   statusClass(e.st),
		})
	}
	return rows
}

func buildBases(snap *models.AssignmentSnapshot) ([]baseCard, []unassignedCard, bool) {
	if snap == nil {
		return nil, nil, false
	}

	ids := make([]string, 0, len(snap.Assignments))
	for id := range snap.Assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var cards []baseCard
	for _, id := range ids {
		ba := snap.Assignments[id]
		name := id
		if b, ok := snap.Bases[id]; ok && b.Name != "" {
			name = b.Name
		}

		card := baseCard{
			Name:   name,
			Status: ba.Status,
			Count:  fmt.Sprintf("%d aircraft", len(ba.Aircraft)),
		}
		if len(ba.Aircraft) == 1 {
			card.Count = "1 aircraft"
		}
		for _, ac := range ba.Aircraft {
			dist := ""
			if ac.DistanceMiles != nil {
				dist = fmt.Sprintf("%.1f mi", *ac.DistanceMiles)
			}
			card.Aircraft = append(card.Aircraft, baseAircraft{
				Tail:     ac.TailNumber,
				AtBase:   ac.AtBase,
				Distance: dist,
			})
		}
		cards = append(cards, card)
	}

	var unassigned []unassignedCard
	for _, ua := range snap.Unassigned {
		card := unassignedCard{Tail: ua.TailNumber, Closest: ua.ClosestBase}
		if ua.DistanceMiles != nil && ua.ClosestBase != "" {
			card.Distance = fmt.Sprintf("%.1f mi from %s", *ua.DistanceMiles, ua.ClosestBase)
		} else {
			card.Distance = "Position unknown"
		}
		unassigned = append(unassigned, card)
	}

	return cards, unassigned, true
}

func statusClass(s models.DueStatus) string {
	switch s {
	case models.StatusOverdue:
		return "overdue"
	case models.StatusCritical:
		return "red"
	case models.StatusDueSoon:
		return "amber"
	case models.StatusCurrent:
		return "green"
	default:
		return "na"
	}
}

func fmtHours(h *float64) string {
	if h == nil {
		return "N/A"
	}
	s := fmt.Sprintf("%.1f", *h)
	// Insert thousands separators into the integer part.
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]
	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 && intPart[i-1] != '-' {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out) + frac
}
