// Package sources holds the static registry of Milwaukee planning pages and
// documents the pipeline keeps in sync. The registry is compiled in and never
// mutated at runtime; changing what gets synced is a code change on purpose,
// so the list stays reviewable.
package sources

// ContentKind selects the scrape strategy and MIME handling for a source.
type ContentKind string

const (
	// KindPage is a JavaScript-rendered HTML page scraped to markdown.
	KindPage ContentKind = "html"
	// KindDocument is a binary document, fetched as raw bytes or parsed
	// server-side depending on the scraper backend.
	KindDocument ContentKind = "pdf"
)

// Cadence tags how often a source should be re-checked. It only selects sync
// batches; scheduling lives outside this process.
type Cadence string

const (
	CadenceWeekly  Cadence = "weekly"
	CadenceMonthly Cadence = "monthly"
)

// ParseCadence maps a CLI/config string onto a Cadence.
func ParseCadence(s string) (Cadence, bool) {
	switch Cadence(s) {
	case CadenceWeekly:
		return CadenceWeekly, true
	case CadenceMonthly:
		return CadenceMonthly, true
	default:
		return "", false
	}
}

// Source describes one page or document to keep in sync.
type Source struct {
	ID          string
	URL         string
	Title       string
	Kind        ContentKind
	Cadence     Cadence
	Category    string
	Description string
}

// registry lists every active source. Weekly HTML pages change often enough
// to warrant the tighter cadence; the city's PDF library is effectively
// static and would sync monthly.
var registry = []Source{
	{
		ID:          "home-building-sites",
		URL:         "https://city.milwaukee.gov/DCD/CityRealEstate/HomeBuildingSites",
		Title:       "Home Building Sites",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "home-building",
		Description: "City-owned lots available for home construction",
	},
	{
		ID:          "vacant-side-lots",
		URL:         "https://city.milwaukee.gov/DCD/CityRealEstate/VacantLotHandbook/VacantLots",
		Title:       "Vacant Side Lots",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "vacant-lots",
		Description: "Vacant side lots available for purchase by adjacent owners",
	},
	{
		ID:          "commercial-properties-main",
		URL:         "https://city.milwaukee.gov/DCD/CityRealEstate/CRE",
		Title:       "Commercial Real Estate - Main",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "commercial",
		Description: "City-owned commercial properties for sale or lease",
	},
	{
		ID:          "overlay-zone-sp",
		URL:         "https://city.milwaukee.gov/OverlayZones/SP",
		Title:       "Overlay Zone - Strategic Planning",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "overlay-zones",
		Description: "Strategic Planning overlay zone information",
	},
	{
		ID:          "overlay-zone-diz",
		URL:         "https://city.milwaukee.gov/OverlayZones/DIZ",
		Title:       "Overlay Zone - Design Innovation Zone",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "overlay-zones",
		Description: "Design Innovation Zone overlay information",
	},
	{
		ID:          "overlay-zone-msp",
		URL:         "https://city.milwaukee.gov/OverlayZones/MSP",
		Title:       "Overlay Zone - Master Site Plan",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "overlay-zones",
		Description: "Master Site Plan overlay information",
	},
	{
		ID:          "design-guidelines",
		URL:         "https://city.milwaukee.gov/DCD/Planning/UrbanDesign/DesignGuidelines",
		Title:       "Urban Design Guidelines",
		Kind:        KindPage,
		Cadence:     CadenceWeekly,
		Category:    "design-guidelines",
		Description: "City design guidelines for development projects",
	},
}

// disabled keeps sources whose URLs currently 404 (the city moved the files).
// They stay listed so `list` can report them and re-enabling is a move back
// into registry once new URLs are found.
// TODO: find the relocated PDF URLs on the city site and restore these.
var disabled = []Source{
	{
		ID:          "house-design-standards",
		URL:         "https://city.milwaukee.gov/ImageLibrary/Groups/cityDCD/planning/pdfs/Neighborhood-House-Design-Stds-Rev-July-3-2024.pdf",
		Title:       "Neighborhood House Design Standards",
		Kind:        KindDocument,
		Cadence:     CadenceMonthly,
		Category:    "home-building",
		Description: "Design standards for new home construction in Milwaukee neighborhoods",
	},
	{
		ID:          "green-milwaukee-house",
		URL:         "https://city.milwaukee.gov/ImageLibrary/Groups/cityDCD/Develop/PDF/GreenYourMilwHouse.pdf",
		Title:       "Green Your Milwaukee House",
		Kind:        KindDocument,
		Cadence:     CadenceMonthly,
		Category:    "home-building",
		Description: "Guide to sustainable home improvements and green building practices",
	},
	{
		ID:          "vacant-lot-offer",
		URL:         "https://city.milwaukee.gov/ImageLibrary/Groups/cityDCD/realestate/PDF/Buildable-Vacant-Lot-Offer---KB-Title.pdf",
		Title:       "Buildable Vacant Lot Offer Form",
		Kind:        KindDocument,
		Cadence:     CadenceMonthly,
		Category:    "vacant-lots",
		Description: "Application form for purchasing buildable vacant lots",
	},
	{
		ID:          "vacant-lot-handbook",
		URL:         "https://city.milwaukee.gov/ImageLibrary/Groups/cityDCD/realestate/PDF/VacantLotHandbook.pdf",
		Title:       "Vacant Lot Handbook",
		Kind:        KindDocument,
		Cadence:     CadenceMonthly,
		Category:    "vacant-lots",
		Description: "Comprehensive guide to vacant lot programs and requirements",
	},
}

// All returns the active sources in registry order. The slice is a copy;
// callers can filter it freely.
func All() []Source {
	out := make([]Source, len(registry))
	copy(out, registry)
	return out
}

// Disabled returns the sources that are configured but turned off.
func Disabled() []Source {
	out := make([]Source, len(disabled))
	copy(out, disabled)
	return out
}

// ByID finds an active source by its key.
func ByID(id string) (Source, bool) {
	for _, s := range registry {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// ByCadence returns the active sources matching a cadence, in registry order.
func ByCadence(c Cadence) []Source {
	var out []Source
	for _, s := range registry {
		if s.Cadence == c {
			out = append(out, s)
		}
	}
	return out
}

// ByKind returns the active sources matching a content kind, in registry order.
func ByKind(k ContentKind) []Source {
	var out []Source
	for _, s := range registry {
		if s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}
