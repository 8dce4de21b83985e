package domain

import "time"

// Phone is the core catalog entity merged from external providers.
type Phone struct {
	ID        string
	Brand     string
	Model     string
	ImageURL  string
	Active    bool
	Specs     PhoneSpecifications
	Prices    []PriceData
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CameraSpec is a parsed compound camera string such as "48MP f/1.8".
type CameraSpec struct {
	Megapixels float64
	Aperture   string
}

// PhoneSpecifications is the normalized spec sheet produced by adapters.
type PhoneSpecifications struct {
	Display     string
	Processor   string
	RAM         string
	Storage     string
	Battery     string
	OS          string
	RearCamera  CameraSpec
	FrontCamera CameraSpec
	Network     string
	Weight      string
}

// UnknownSpecifications returns a fully populated placeholder spec sheet.
// Fallback callers rely on every field carrying a usable value, never nil.
func UnknownSpecifications() PhoneSpecifications {
	return PhoneSpecifications{
		Display:   "Unknown",
		Processor: "Unknown",
		RAM:       "Unknown",
		Storage:   "Unknown",
		Battery:   "Unknown",
		OS:        "Unknown",
		Network:   "Unknown",
		Weight:    "Unknown",
	}
}

// PriceData is a single retailer offer for one phone.
type PriceData struct {
	Retailer    string
	URL         string
	Price       float64
	Currency    string
	InStock     bool
	RetrievedAt time.Time
}

// PriceStats aggregates a list of offers, restricted to in-stock ones.
type PriceStats struct {
	LowestPrice  float64
	HighestPrice float64
	AveragePrice float64
	OfferCount   int
	BestDeal     *PriceData
}

// Brand groups catalog phones by manufacturer.
type Brand struct {
	ID     string
	Name   string
	Active bool
}
