package models

// BusName holds the localized display names of a bus.
type BusName struct {
	English string `json:"English" validate:"required"`
	Bengali string `json:"Bengali"`
	Hindi   string `json:"Hindi"`
}

// Names returns the English, Bengali and Hindi names in that order.
func (n BusName) Names() []string {
	return []string{n.English, n.Bengali, n.Hindi}
}

// BusRoute is the operator-entered route of a bus. StartLocation and
// DepartureLocation name the two endpoints and select the distance table;
// IntermediateStops are display-only waypoints.
type BusRoute struct {
	StartLocation     string   `json:"startLocation" validate:"required"`
	DepartureLocation string   `json:"departureLocation" validate:"required"`
	IntermediateStops []string `json:"intermediateStops"`
}

// Stops returns the full ordered stop list of the route. Blank waypoints left
// over from the registration form are skipped.
func (r BusRoute) Stops() []string {
	stops := make([]string, 0, len(r.IntermediateStops)+2)
	stops = append(stops, r.StartLocation)
	for _, stop := range r.IntermediateStops {
		if stop == "" {
			continue
		}
		stops = append(stops, stop)
	}
	return append(stops, r.DepartureLocation)
}

// Timing is one scheduled run between two stops. Distance and Fare are
// derived values; nil means unresolved.
type Timing struct {
	Start    string   `json:"start" validate:"required"`
	End      string   `json:"end" validate:"required"`
	Time     string   `json:"time" validate:"omitempty,clock"`
	Distance *float64 `json:"distance,omitempty"`
	Fare     *float64 `json:"fare,omitempty"`
}

type BusImages struct {
	Front string `json:"front"`
	Rear  string `json:"rear"`
}

type OwnerDetails struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Address string `json:"address"`
}

// PriceDetails holds per-kilometre rates. Only the adult rate is used to
// derive fares.
type PriceDetails struct {
	PerKmAdult    float64 `json:"perKmAdult" validate:"gte=0"`
	PerKmNonAdult float64 `json:"perKmNonAdult" validate:"gte=0"`
}

// Bus is a registered bus as stored in the buses collection.
type Bus struct {
	ID                 string       `json:"busId,omitempty"`
	BusName            BusName      `json:"busName"`
	Route              BusRoute     `json:"route"`
	Timings            []Timing     `json:"timings" validate:"dive"`
	Images             BusImages    `json:"images"`
	RegistrationNumber string       `json:"registrationNumber"`
	BusType            string       `json:"busType" validate:"omitempty,oneof=AC Non-AC"`
	SeatingCapacity    int          `json:"seatingCapacity" validate:"gte=0"`
	OwnerDetails       OwnerDetails `json:"ownerDetails"`
	PriceDetails       PriceDetails `json:"priceDetails"`
	Email              string       `json:"email" validate:"required,email"`
}

// Float64 returns a pointer to v, for optional derived fields.
func Float64(v float64) *float64 {
	return &v
}
