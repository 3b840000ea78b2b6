package entity

// City is pre-seeded reference data.
// InServiceArea marks cities where signups are accepted.
type City struct {
	ID            string
	Name          string
	StateID       string
	State         *State
	InServiceArea bool
}

// State is the top of the geographic hierarchy
type State struct {
	ID           string
	Name         string
	Abbreviation string
}
