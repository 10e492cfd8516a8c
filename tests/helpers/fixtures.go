// Package helpers provides testing utilities for integration tests.
package helpers

// VehicleFixture describes one vehicle served by the mock site. Fields left
// empty are omitted from the rendered page; the parser treats partial
// records as valid.
type VehicleFixture struct {
	Registration string
	Make         string
	Model        string
	Color        string
	FuelType     string
	Transmission string
	TaxExpiry    string // display format, e.g. "01 December 2026"
	TaxDaysLeft  string
	MOTExpiry    string
	MOTDaysLeft  string
	TotalKeepers string
	MOTMileage   string
}

// FixtureOption modifies a vehicle fixture.
type FixtureOption func(*VehicleFixture)

// TestVehicle creates a fixture with a plausible complete details page.
func TestVehicle(registration string, opts ...FixtureOption) VehicleFixture {
	fixture := VehicleFixture{
		Registration: registration,
		Make:         "VAUXHALL",
		Model:        "CORSA",
		Color:        "Silver",
		FuelType:     "Petrol",
		Transmission: "Manual",
		TaxExpiry:    "01 December 2026",
		TaxDaysLeft:  "120 days left",
		MOTExpiry:    "15 March 2026",
		MOTDaysLeft:  "45 days left",
		TotalKeepers: "3",
		MOTMileage:   "89,000 miles",
	}

	for _, opt := range opts {
		opt(&fixture)
	}

	return fixture
}

// WithMakeModel sets the heading line of a fixture.
func WithMakeModel(maker, model string) FixtureOption {
	return func(f *VehicleFixture) {
		f.Make = maker
		f.Model = model
	}
}

// WithColor sets the primary colour of a fixture.
func WithColor(color string) FixtureOption {
	return func(f *VehicleFixture) {
		f.Color = color
	}
}

// DetailsPageHTML renders a fixture the way the source site lays out a
// details page: an unlabeled make/model heading, TAX and MOT sections with
// expiry lines underneath, then labeled detail rows.
func DetailsPageHTML(f VehicleFixture) string {
	page := `<!DOCTYPE html>
<html>
<head>
	<title>` + f.Registration + ` - Vehicle Details</title>
</head>
<body>
	<h1>` + f.Make + ` ` + f.Model + `</h1>
	<div>TAX</div>
	<div>Expires: ` + f.TaxExpiry + `</div>
	<div>` + f.TaxDaysLeft + `</div>
	<div>MOT</div>
	<div>Expires: ` + f.MOTExpiry + `</div>
	<div>` + f.MOTDaysLeft + `</div>
	<div>Primary Colour</div>
	<div>` + f.Color + `</div>
	<div>Fuel Type</div>
	<div>` + f.FuelType + `</div>
	<div>Transmission</div>
	<div>` + f.Transmission + `</div>
	<div>Total Keepers</div>
	<div>` + f.TotalKeepers + `</div>
	<div>Last MOT Mileage</div>
	<div>` + f.MOTMileage + `</div>
</body>
</html>`
	return page
}

// NotFoundPageHTML is the site's error page for unknown registrations,
// served with a 200 status like the real one.
func NotFoundPageHTML() string {
	return `<!DOCTYPE html>
<html>
<body>
	<h2>No Vehicle Found</h2>
	<p>Please Try Again</p>
</body>
</html>`
}

// ChallengePageHTML is an anti-automation challenge page.
func ChallengePageHTML() string {
	return `<!DOCTYPE html>
<html>
<body>
	<p>Please complete the captcha to continue.</p>
</body>
</html>`
}
