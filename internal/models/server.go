package models

import "time"

// Server is a single host as reported by the dashboard
type Server struct {
	ID           uint64    `json:"id"`
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	DisplayIndex int       `json:"display_index"`
	HideForGuest bool      `json:"hide_for_guest"`
	EnableDDNS   bool      `json:"enable_ddns"`
	Note         string    `json:"note"`
	PublicNote   string    `json:"public_note"`
	GeoIP        GeoIP     `json:"geoip"`
	Host         Host      `json:"host"`
	State        HostState `json:"state"`
	LastActive   time.Time `json:"last_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GeoIP holds the location info of a server
type GeoIP struct {
	CountryCode string `json:"country_code"`
	IP          IP     `json:"ip"`
}

// IP holds both address families, either may be empty
type IP struct {
	IPv4Addr string `json:"ipv4_addr"`
	IPv6Addr string `json:"ipv6_addr"`
}

// Host is the static part of a server record
type Host struct {
	Platform        string   `json:"platform"`
	PlatformVersion string   `json:"platform_version"`
	Arch            string   `json:"arch"`
	Virtualization  string   `json:"virtualization"`
	Version         string   `json:"version"`
	CPU             []string `json:"cpu"`
	GPU             []string `json:"gpu"`
	MemTotal        uint64   `json:"mem_total"`
	DiskTotal       uint64   `json:"disk_total"`
	SwapTotal       uint64   `json:"swap_total"`
	BootTime        uint64   `json:"boot_time"`
}

// HostState is the live part of a server record
type HostState struct {
	CPU            float64             `json:"cpu"`
	MemUsed        uint64              `json:"mem_used"`
	SwapUsed       uint64              `json:"swap_used"`
	DiskUsed       uint64              `json:"disk_used"`
	NetInTransfer  uint64              `json:"net_in_transfer"`
	NetOutTransfer uint64              `json:"net_out_transfer"`
	NetInSpeed     uint64              `json:"net_in_speed"`
	NetOutSpeed    uint64              `json:"net_out_speed"`
	Uptime         uint64              `json:"uptime"` // seconds
	Load1          float64             `json:"load_1"`
	Load5          float64             `json:"load_5"`
	Load15         float64             `json:"load_15"`
	TCPConnCount   uint64              `json:"tcp_conn_count"`
	UDPConnCount   uint64              `json:"udp_conn_count"`
	ProcessCount   uint64              `json:"process_count"`
	GPU            []float64           `json:"gpu"`
	Temperatures   []SensorTemperature `json:"temperatures"`
}

// SensorTemperature is one temperature sensor reading
type SensorTemperature struct {
	Name        string  `json:"name,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}
