package model

import "time"

// ConversationContext is the running search state for one user
type ConversationContext struct {
	EntitySet
	Name      *string   `json:"name,omitempty"`
	Turns     int       `json:"turns"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Merge copies every non-nil field of e over the context.
// Nil fields leave the previous value untouched. A bound from an earlier
// turn may cross the new one; the two are then swapped so min <= max.
func (c ConversationContext) Merge(e EntitySet) ConversationContext {
	merged := c.Clone()
	if e.Type != nil {
		merged.Type = clonePtr(e.Type)
	}
	if e.Country != nil {
		merged.Country = clonePtr(e.Country)
	}
	if e.Bedrooms != nil {
		merged.Bedrooms = clonePtr(e.Bedrooms)
	}
	if e.Bathrooms != nil {
		merged.Bathrooms = clonePtr(e.Bathrooms)
	}
	if e.MinPrice != nil {
		merged.MinPrice = clonePtr(e.MinPrice)
	}
	if e.MaxPrice != nil {
		merged.MaxPrice = clonePtr(e.MaxPrice)
	}
	if e.Area != nil {
		merged.Area = clonePtr(e.Area)
	}
	if merged.MinPrice != nil && merged.MaxPrice != nil && *merged.MinPrice > *merged.MaxPrice {
		merged.MinPrice, merged.MaxPrice = merged.MaxPrice, merged.MinPrice
	}
	return merged
}

// CanSearch reports whether enough is known to run a listing search
func (c ConversationContext) CanSearch() bool {
	return c.Type != nil && c.Country != nil
}

// Clone returns a deep copy of the context
func (c ConversationContext) Clone() ConversationContext {
	return ConversationContext{
		EntitySet: c.EntitySet.Clone(),
		Name:      clonePtr(c.Name),
		Turns:     c.Turns,
		UpdatedAt: c.UpdatedAt,
	}
}
