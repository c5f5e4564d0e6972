package model

// PropertyType is the kind of rental unit a user is looking for
type PropertyType string

const (
	Apartment PropertyType = "Apartment"
	House     PropertyType = "House"
	Villa     PropertyType = "Villa"
)

// Country is one of the markets the catalog covers
type Country string

const (
	Canada       Country = "Canada"
	UnitedStates Country = "United States"
	Vietnam      Country = "Vietnam"
)

// Bounds applied to extracted values. Anything outside is dropped, not rejected.
const (
	MinRooms = 1
	MaxRooms = 20
	MinArea  = 10
	MaxArea  = 10000
)

// EntitySet represents the filter fields extracted from one message.
// A nil field means the message did not mention it.
type EntitySet struct {
	Type      *PropertyType `json:"type"`
	Country   *Country      `json:"country"`
	Bedrooms  *int          `json:"bedrooms"`
	Bathrooms *int          `json:"bathrooms"`
	MinPrice  *int64        `json:"min_price"`
	MaxPrice  *int64        `json:"max_price"`
	Area      *int          `json:"area"` // square meters or feet, as written
}

// IsEmpty reports whether no field is set
func (e EntitySet) IsEmpty() bool {
	return e.Type == nil &&
		e.Country == nil &&
		e.Bedrooms == nil &&
		e.Bathrooms == nil &&
		e.MinPrice == nil &&
		e.MaxPrice == nil &&
		e.Area == nil
}

// Sanitize drops out-of-range values and orders the price range
func (e *EntitySet) Sanitize() {
	if e.Bedrooms != nil && (*e.Bedrooms < MinRooms || *e.Bedrooms > MaxRooms) {
		e.Bedrooms = nil
	}
	if e.Bathrooms != nil && (*e.Bathrooms < MinRooms || *e.Bathrooms > MaxRooms) {
		e.Bathrooms = nil
	}
	if e.Area != nil && (*e.Area < MinArea || *e.Area > MaxArea) {
		e.Area = nil
	}
	if e.MinPrice != nil && *e.MinPrice < 0 {
		e.MinPrice = nil
	}
	if e.MaxPrice != nil && *e.MaxPrice < 0 {
		e.MaxPrice = nil
	}
	if e.MinPrice != nil && e.MaxPrice != nil && *e.MinPrice > *e.MaxPrice {
		e.MinPrice, e.MaxPrice = e.MaxPrice, e.MinPrice
	}
}

// Clone returns a deep copy so callers can mutate without aliasing
func (e EntitySet) Clone() EntitySet {
	return EntitySet{
		Type:      clonePtr(e.Type),
		Country:   clonePtr(e.Country),
		Bedrooms:  clonePtr(e.Bedrooms),
		Bathrooms: clonePtr(e.Bathrooms),
		MinPrice:  clonePtr(e.MinPrice),
		MaxPrice:  clonePtr(e.MaxPrice),
		Area:      clonePtr(e.Area),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
