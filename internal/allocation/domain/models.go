package domain

// Allocation is one clinker shipment line from a plant to a grinding unit.
// Cost, distance and transit time are derived, never user supplied.
type Allocation struct {
	ID          int64   `gorm:"primaryKey" json:"id"`
	PlantID     string  `gorm:"index" json:"plantId"`
	UnitID      string  `gorm:"index" json:"unitId"`
	Quantity    float64 `json:"quantity"`
	Cost        int     `json:"cost"`
	Mode        string  `gorm:"index" json:"mode"`
	Distance    int     `json:"distance"`
	TransitTime int     `json:"transitTime"`
	Status      string  `json:"status"`
	Date        string  `json:"date"`
	Period      int     `json:"period"`
	Trips       float64 `json:"trips"`
}

func (Allocation) TableName() string { return "allocations" }

const (
	StatusPending = "Pending"
	StatusActive  = "Active"
	StatusSuccess = "Success"
	StatusDelayed = "Delayed"
)
