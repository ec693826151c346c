package entity

// Zone is one entry of the taxi zone lookup table.
type Zone struct {
	LocationID  int    `json:"LocationID"`
	Borough     string `json:"Borough"`
	Zone        string `json:"Zone"`
	ServiceZone string `json:"service_zone"`
}

// ZoneLookup maps a location identifier to its zone. Empty Borough or Zone means unresolved.
type ZoneLookup map[int]Zone

// Resolve returns the borough and zone name for a location, empty strings when unknown.
func (z ZoneLookup) Resolve(locationID int) (string, string) {
	zone, ok := z[locationID]
	if !ok {
		return "", ""
	}
	return zone.Borough, zone.Zone
}
