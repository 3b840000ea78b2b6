package entity

// Address pairs a postal code (CEP) with a City.
// At most one Address exists per CEP.
type Address struct {
	ID     string
	Cep    string
	CityID string
	City   *City
}
