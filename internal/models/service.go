package models

import "time"

// ServiceResponse is the payload of GET /api/v1/service.
// Both maps are keyed by dashboard ids encoded as strings.
type ServiceResponse struct {
	CycleTransferStats map[string]CycleTransferStats `json:"cycle_transfer_stats"`
	Services           map[string]ServiceItem        `json:"services"`
}

// ServiceItem is the availability history of one monitored service
type ServiceItem struct {
	ServiceName string    `json:"service_name"`
	CurrentUp   uint64    `json:"current_up"`
	CurrentDown uint64    `json:"current_down"`
	TotalUp     uint64    `json:"total_up"`
	TotalDown   uint64    `json:"total_down"`
	Delay       []float64 `json:"delay"`
	Up          []uint64  `json:"up"`
	Down        []uint64  `json:"down"`
}

// CycleTransferStats is the traffic usage of one transfer rule for the current cycle
type CycleTransferStats struct {
	Name       string               `json:"name"`
	From       time.Time            `json:"from"`
	To         time.Time            `json:"to"`
	Max        uint64               `json:"max"`
	Min        uint64               `json:"min"`
	Transfer   map[string]uint64    `json:"transfer"`
	NextUpdate map[string]time.Time `json:"next_update"`
	ServerName map[string]string    `json:"server_name"`
}
