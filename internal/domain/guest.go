package domain

import "time"

// Role is the closed set of staff profiles. Values match the role labels
// the front desk already uses; they travel inside session tokens and must
// not change without rotating active sessions.
type Role string

const (
	RoleReception  Role = "RECEPCAO"
	RoleRestaurant Role = "RESTAURANTE"
	RoleValidator  Role = "VALIDAR"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleReception, RoleRestaurant, RoleValidator:
		return Role(s), true
	default:
		return "", false
	}
}

// Guest is one roster row. ConsumptionDate is a civil date (YYYY-MM-DD) in
// the hotel timezone, or nil when the entitlement is unused. UsedToday is
// derived per request from ConsumptionDate and today's date; it is never
// authoritative on its own.
type Guest struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Room            string  `json:"room"`
	Company         string  `json:"company"`
	CheckIn         string  `json:"checkIn"`
	CheckOut        string  `json:"checkOut"`
	Tariff          string  `json:"tariff"`
	Plan            string  `json:"plan"`
	HasBreakfast    bool    `json:"hasBreakfast"`
	UsedToday       bool    `json:"usedToday"`
	ConsumptionDate *string `json:"consumptionDate"`

	CreatedAt time.Time `json:"createdAt"`
}

// PublicGuest is the projection exposed to unauthenticated room lookups:
// just enough for a guest to pick themselves from a room list.
type PublicGuest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	HasBreakfast bool   `json:"hasBreakfast"`
	UsedToday    bool   `json:"usedToday"`
}

// GuestUpdate carries a partial roster edit. Nil fields are left unchanged.
type GuestUpdate struct {
	Name            *string `json:"name"`
	Room            *string `json:"room"`
	Company         *string `json:"company"`
	CheckIn         *string `json:"checkIn"`
	CheckOut        *string `json:"checkOut"`
	Tariff          *string `json:"tariff"`
	Plan            *string `json:"plan"`
	HasBreakfast    *bool   `json:"hasBreakfast"`
	ConsumptionDate *string `json:"consumptionDate"`
}

// Stats summarizes the roster for the reception dashboard.
type Stats struct {
	TotalGuests   int `json:"totalGuests"`
	TotalRooms    int `json:"totalRooms"`
	WithBreakfast int `json:"withBreakfast"`
	UsedToday     int `json:"usedTodayCount"`
}

// MarkUsedToday recomputes the derived flag against the given civil date.
func (g *Guest) MarkUsedToday(today string) {
	g.UsedToday = g.ConsumptionDate != nil && *g.ConsumptionDate == today
}

func (g *Guest) Public() PublicGuest {
	return PublicGuest{
		ID:           g.ID,
		Name:         g.Name,
		HasBreakfast: g.HasBreakfast,
		UsedToday:    g.UsedToday,
	}
}
