// Package scrape extracts vehicle data from the source site. The parser in
// this file works over visible page text lines so the fast HTTP tier and the
// browser automation tier share one extraction strategy; extractor.go adds
// the single-request HTTP fetch around it.
package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/regcheck/internal/domain"
)

// Expiry dates appear as "Expires: 01 December 2025" under the TAX and MOT
// headings, within the next few lines after the heading itself.
const expiryScanWindow = 3

// Display dates use full month names; older pages abbreviate them.
const (
	displayDateLayout     = "02 January 2006"
	displayDateLayoutAbbr = "02 Jan 2006"
)

// Value-length guards. Detail labels sit close to unrelated page furniture,
// so implausibly long "values" are navigation text, not data.
const (
	maxDescriptionLen  = 50
	maxTransmissionLen = 30
	maxShortValueLen   = 20
)

var (
	expiryPattern   = regexp.MustCompile(`(?:Expires|Expired):\s*(\d{1,2}\s+\w+\s+\d{4})`)
	daysLeftPattern = regexp.MustCompile(`(\d+)\s+days\s+left`)
	yearPattern     = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)
	engineCCPattern = regexp.MustCompile(`(\d+)\s*cc`)
	co2Pattern      = regexp.MustCompile(`(\d+)\s*g/km`)
	percentPattern  = regexp.MustCompile(`\d+\s*%`)
)

// notFoundMarkers appear on the site's error page for unknown registrations.
var notFoundMarkers = []string{"No Vehicle Found", "Please Try Again"}

// blockedPhrases indicate the site's anti-automation defenses triggered.
var blockedPhrases = []string{"blocked", "captcha", "forbidden", "access denied", "robot"}

// readyLabels mark a fully rendered details page: the browser tier polls
// until both compliance headings and at least one of these appear.
var readyLabels = []string{
	"Primary Colour", "Colour", "Fuel Type", "Transmission",
	"Model Variant", "Description", "Total Keepers",
}

// ukMakes lists manufacturer names as they appear on details-page headings.
// The make/model heading is the only unlabeled field on the page.
var ukMakes = []string{
	"AUDI", "BMW", "FORD", "SMART", "MERCEDES", "VOLKSWAGEN", "TOYOTA",
	"HONDA", "NISSAN", "PEUGEOT", "CITROEN", "RENAULT", "VAUXHALL", "VOLVO",
	"SKODA", "SEAT", "MINI", "JAGUAR", "LAND ROVER", "BENTLEY", "ROLLS-ROYCE",
	"ASTON MARTIN", "MCLAREN", "LOTUS", "MORGAN", "TVR", "CATERHAM", "ARIEL",
	"BAC", "NOBLE", "GINETTA", "WESTFIELD", "KIA", "HYUNDAI", "MAZDA",
	"SUZUKI", "MITSUBISHI", "FIAT", "ALFA ROMEO", "DACIA", "TESLA", "LEXUS",
	"PORSCHE", "SUBARU", "ISUZU", "SSANGYONG", "ABARTH",
}

// fuelWords validate a bare "Fuel" label's value line.
var fuelWords = []string{"PETROL", "DIESEL", "ELECTRIC", "HYBRID", "LPG", "CNG"}

// ContainsNotFoundMarker reports whether the page text is the site's
// no-vehicle-found error page.
func ContainsNotFoundMarker(text string) bool {
	for _, marker := range notFoundMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// ContainsBlockedMarker reports whether the page text carries an
// anti-automation challenge.
func ContainsBlockedMarker(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range blockedPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// IsDetailsPageReady reports whether the text is a fully rendered details
// page: both compliance headings present plus at least one detail label.
// The browser tier polls on this after submitting the search form.
func IsDetailsPageReady(text string) bool {
	if !strings.Contains(text, "TAX") || !strings.Contains(text, "MOT") {
		return false
	}
	for _, label := range readyLabels {
		if strings.Contains(text, label) {
			return true
		}
	}
	return false
}

// SplitLines breaks page text into trimmed, non-empty lines.
func SplitLines(text string) []string {
	rawLines := strings.Split(text, "\n")
	lines := make([]string, 0, len(rawLines))
	for _, raw := range rawLines {
		if line := strings.TrimSpace(raw); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// HasEssentialData reports whether a parse found enough to treat the page
// as a rendered vehicle details page rather than a shell or challenge page.
func HasEssentialData(record *domain.VehicleRecord) bool {
	if record == nil {
		return false
	}
	return record.Make != "" || record.Model != "" ||
		record.MOTExpiry != nil || record.TotalKeepers != nil
}

// ParseVehicleText builds a vehicle record from details-page text. Absent
// sections leave their fields zero; partial records are valid. The caller
// sets Source and ScrapedAt for the tier that produced the text.
func ParseVehicleText(registration, text string, now time.Time) *domain.VehicleRecord {
	record := &domain.VehicleRecord{Registration: registration}
	lines := SplitLines(text)

	parseHeading(lines, record)
	parseCompliance(lines, record, now)
	parseDetails(lines, record)
	parseMetricGroups(lines, record)

	if co2 := co2Pattern.FindStringSubmatch(text); co2 != nil {
		setGroupValue(&record.AdditionalInfo, "co2_emissions", co2[1]+" g/km")
	}

	return record
}

// parseHeading finds the make/model heading line, the only unlabeled field.
func parseHeading(lines []string, record *domain.VehicleRecord) {
	for _, line := range lines {
		upper := strings.ToUpper(line)
		for _, maker := range ukMakes {
			if !strings.Contains(upper, maker) {
				continue
			}
			record.Make = maker
			rest := strings.TrimSpace(upper[strings.Index(upper, maker)+len(maker):])
			if rest != "" && len(rest) < maxDescriptionLen {
				record.Model = rest
			}
			return
		}
	}
}

// parseCompliance extracts tax and MOT expiry from their heading anchors.
// The expiry line sits within the next few lines after a bare "TAX" or
// "MOT" line; a "days left" line may follow it. When the page shows only
// an expired date, days-left is derived and goes negative.
func parseCompliance(lines []string, record *domain.VehicleRecord, now time.Time) {
	for i, line := range lines {
		switch strings.ToUpper(line) {
		case "TAX":
			record.TaxExpiry, record.TaxDaysLeft = scanExpiry(lines, i, now)
		case "MOT":
			record.MOTExpiry, record.MOTDaysLeft = scanExpiry(lines, i, now)
		}
	}
}

// scanExpiry reads the expiry date and days-left from the lines following
// an anchor at index i.
func scanExpiry(lines []string, i int, now time.Time) (*time.Time, *int) {
	var expiry *time.Time
	var days *int

	for j := 1; j <= expiryScanWindow && i+j < len(lines); j++ {
		next := lines[i+j]

		if expiry == nil {
			if m := expiryPattern.FindStringSubmatch(next); m != nil {
				if parsed, ok := parseDisplayDate(m[1]); ok {
					expiry = &parsed
				}
			}
		}

		if days == nil {
			if m := daysLeftPattern.FindStringSubmatch(next); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					days = &n
				}
			}
		}
	}

	if expiry != nil && days == nil {
		derived := int(expiry.Sub(now).Hours() / 24)
		days = &derived
	}

	return expiry, days
}

// parseDetails fills the labeled top-level fields. Label precedence follows
// the page layout: specific labels before their looser fallbacks.
func parseDetails(lines []string, record *domain.VehicleRecord) {
	for i, line := range lines {
		switch {
		case strings.Contains(line, "Model Variant"):
			setIfEmpty(&record.Variant, labelValue(lines, i, "Model Variant"), maxDescriptionLen)

		case strings.Contains(line, "Description"):
			setIfEmpty(&record.Description, labelValue(lines, i, "Description"), maxDescriptionLen)

		case strings.Contains(line, "Primary Colour"):
			setIfEmpty(&record.Color, labelValue(lines, i, "Primary Colour"), maxShortValueLen)

		case strings.Contains(line, "Colour"):
			setIfEmpty(&record.Color, labelValue(lines, i, "Colour"), maxShortValueLen)

		case strings.Contains(line, "Fuel Type"):
			setIfEmpty(&record.FuelType, labelValue(lines, i, "Fuel Type"), maxShortValueLen)

		case strings.Contains(line, "Fuel"):
			value := labelValue(lines, i, "Fuel")
			if looksLikeFuel(value) {
				setIfEmpty(&record.FuelType, value, maxShortValueLen)
			}

		case strings.Contains(line, "Transmission"):
			setIfEmpty(&record.Transmission, labelValue(lines, i, "Transmission"), maxTransmissionLen)

		case strings.Contains(line, "Body Style"):
			setIfEmpty(&record.BodyStyle, labelValue(lines, i, "Body Style"), maxShortValueLen)

		case strings.Contains(line, "Engine"):
			label := "Engine"
			if strings.Contains(line, "Engine Size") {
				label = "Engine Size"
			}
			if m := engineCCPattern.FindStringSubmatch(labelValue(lines, i, label)); m != nil {
				setIfEmpty(&record.EngineSize, m[1]+" cc", maxShortValueLen)
			}

		case strings.Contains(line, "Year Manufacture"):
			if record.Year == nil {
				if n, ok := intValue(labelValue(lines, i, "Year Manufacture")); ok {
					record.Year = &n
				}
			}

		case strings.Contains(line, "Registration Date"):
			value := labelValue(lines, i, "Registration Date")
			setIfEmpty(&record.RegistrationDate, value, maxShortValueLen)
			if record.Year == nil {
				if m := yearPattern.FindString(value); m != "" {
					if year, err := strconv.Atoi(m); err == nil {
						record.Year = &year
					}
				}
			}

		case strings.Contains(line, "Last V5C Issue Date"):
			setIfEmpty(&record.LastV5CIssueDate, labelValue(lines, i, "Last V5C Issue Date"), maxShortValueLen)

		case strings.Contains(line, "V5C Certificate Count"):
			if record.V5CCertificateCount == nil {
				if n, ok := intValue(labelValue(lines, i, "V5C Certificate Count")); ok {
					record.V5CCertificateCount = &n
				}
			}

		case strings.Contains(line, "Total Keepers"):
			if record.TotalKeepers == nil {
				if n, ok := intValue(labelValue(lines, i, "Total Keepers")); ok {
					record.TotalKeepers = &n
				}
			}
		}
	}
}

// metricLabel maps one page label into a metric group entry.
type metricLabel struct {
	label     string
	key       string
	exclude   string // skip lines containing this (disambiguates loose labels)
	percent   bool   // keep only values carrying a percentage
	shortOnly bool   // reject values longer than the short guard
}

var (
	mileageLabels = []metricLabel{
		{label: "Last MOT Mileage", key: "last_mot_mileage", shortOnly: true},
		{label: "Mileage Issues", key: "mileage_issues", shortOnly: true},
		{label: "Average", key: "average", shortOnly: true},
		{label: "Status", key: "status", exclude: "Euro", shortOnly: true},
	}
	performanceLabels = []metricLabel{
		{label: "Power", key: "power", shortOnly: true},
		{label: "Max Speed", key: "max_speed", shortOnly: true},
		{label: "Torque", key: "torque", shortOnly: true},
	}
	fuelEconomyLabels = []metricLabel{
		{label: "Extra Urban", key: "extra_urban", shortOnly: true},
		{label: "Urban", key: "urban", shortOnly: true},
		{label: "Combined", key: "combined", shortOnly: true},
	}
	safetyLabels = []metricLabel{
		{label: "Child", key: "child", percent: true},
		{label: "Adult", key: "adult", percent: true},
		{label: "Pedestrian", key: "pedestrian", percent: true},
	}
	additionalLabels = []metricLabel{
		{label: "Tax 12 Months Cost", key: "tax_12_months", shortOnly: true},
		{label: "Tax 6 Months Cost", key: "tax_6_months", shortOnly: true},
		{label: "Euro Status", key: "euro_status", shortOnly: true},
		{label: "Vehicle Age", key: "vehicle_age", shortOnly: true},
		{label: "Registration Place", key: "registration_place", shortOnly: true},
		{label: "Type Approval", key: "type_approval", shortOnly: true},
		{label: "Wheel Plan", key: "wheel_plan", shortOnly: true},
	}
)

// parseMetricGroups fills the nested JSONB groups from their labels.
func parseMetricGroups(lines []string, record *domain.VehicleRecord) {
	record.MileageInfo = parseGroup(lines, mileageLabels, record.MileageInfo)
	record.Performance = parseGroup(lines, performanceLabels, record.Performance)
	record.FuelEconomy = parseGroup(lines, fuelEconomyLabels, record.FuelEconomy)
	record.SafetyRatings = parseGroup(lines, safetyLabels, record.SafetyRatings)
	record.AdditionalInfo = parseGroup(lines, additionalLabels, record.AdditionalInfo)
}

// parseGroup scans lines for each label in order; the first match per label
// wins. Later labels never overwrite earlier, more specific ones ("Extra
// Urban" claims its line before "Urban" can).
func parseGroup(lines []string, labels []metricLabel, group domain.JSONBMap) domain.JSONBMap {
	claimed := make(map[int]bool)

	for _, ml := range labels {
		for i, line := range lines {
			if claimed[i] || !strings.Contains(line, ml.label) {
				continue
			}
			if ml.exclude != "" && strings.Contains(line, ml.exclude) {
				continue
			}
			if _, exists := group[ml.key]; exists {
				break
			}

			value := labelValue(lines, i, ml.label)
			if value == "" {
				continue
			}
			if ml.percent {
				value = percentPattern.FindString(line + " " + value)
				if value == "" {
					continue
				}
				value = strings.ReplaceAll(value, " ", "")
			}
			if ml.shortOnly && len(value) >= maxTransmissionLen {
				continue
			}

			setGroupValue(&group, ml.key, value)
			claimed[i] = true
			break
		}
	}

	return group
}

// labelValue returns the value attached to a label: the remainder of the
// label's own line when it carries one ("Power: 89 bhp"), otherwise the
// next non-empty line.
func labelValue(lines []string, i int, label string) string {
	line := lines[i]
	idx := strings.Index(line, label)
	rest := strings.TrimSpace(strings.TrimLeft(line[idx+len(label):], ":  \t"))
	if rest != "" {
		return rest
	}
	if i+1 < len(lines) {
		return lines[i+1]
	}
	return ""
}

// setIfEmpty assigns value to dst unless dst is already set, the value is
// empty, or the value exceeds the plausibility guard.
func setIfEmpty(dst *string, value string, maxLen int) {
	if *dst != "" || value == "" || len(value) >= maxLen {
		return
	}
	*dst = value
}

// setGroupValue lazily allocates the group map before assignment.
func setGroupValue(group *domain.JSONBMap, key, value string) {
	if *group == nil {
		*group = domain.JSONBMap{}
	}
	if _, exists := (*group)[key]; !exists {
		(*group)[key] = value
	}
}

// looksLikeFuel reports whether a bare "Fuel" label's value names a fuel.
// The site also uses "Fuel" in economy headings whose values are figures,
// not fuel names.
func looksLikeFuel(value string) bool {
	upper := strings.ToUpper(value)
	for _, word := range fuelWords {
		if strings.Contains(upper, word) {
			return true
		}
	}
	return false
}

// intValue parses a human-formatted integer ("3", "89,000").
func intValue(s string) (int, bool) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseDisplayDate parses a page-displayed date, trying the full month name
// layout first.
func parseDisplayDate(s string) (time.Time, bool) {
	for _, layout := range []string{displayDateLayout, displayDateLayoutAbbr} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
