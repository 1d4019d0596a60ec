package models

import "time"

// OverviewStats is the rollup of a set of servers. It is derived on every
// request and never cached.
type OverviewStats struct {
	Servers        uint64 `json:"servers"`
	OnlineServers  uint64 `json:"online_servers"`
	MemUsed        uint64 `json:"mem_used"`
	MemTotal       uint64 `json:"mem_total"`
	SwapUsed       uint64 `json:"swap_used"`
	SwapTotal      uint64 `json:"swap_total"`
	DiskUsed       uint64 `json:"disk_used"`
	DiskTotal      uint64 `json:"disk_total"`
	NetInSpeed     uint64 `json:"net_in_speed"`
	NetOutSpeed    uint64 `json:"net_out_speed"`
	NetInTransfer  uint64 `json:"net_in_transfer"`
	NetOutTransfer uint64 `json:"net_out_transfer"`
}

// TransferRow is the usage of a single server inside a transfer cycle
type TransferRow struct {
	ServerID   string
	ServerName string
	Transfer   uint64
	NextUpdate time.Time
}
