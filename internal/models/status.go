package models

import "time"

// RelayStatus describes the bot process host and its token state
type RelayStatus struct {
	TokenState   string    `json:"token_state"`
	HasToken     bool      `json:"has_token"`
	TokenPreview string    `json:"token_preview,omitempty"`
	TokenExpiry  time.Time `json:"token_expiry,omitempty"`
	CPUPercent   string    `json:"cpu_percent"`
	Memory       string    `json:"memory"`
	MemoryUsage  string    `json:"memory_usage"`
	Disk         string    `json:"disk"`
	DiskUsage    string    `json:"disk_usage"`
	Timestamp    time.Time `json:"timestamp"`
}
