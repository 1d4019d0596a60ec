package services

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"nezhabot/internal/models"
)

// OfflineAfter is how long a server may stay silent before it is shown as
// offline. This is a liveness heuristic, not something the agent protocol
// guarantees.
const OfflineAfter = 30 * time.Second

// Number is any numeric value the formatters accept
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// IsOffline reports whether more than OfflineAfter elapsed since lastActive.
// Exactly OfflineAfter still counts as online.
func IsOffline(lastActive, now time.Time) bool {
	return now.Sub(lastActive) > OfflineAfter
}

// ComputeOverview sums the resource usage of servers
func ComputeOverview(servers []models.Server, now time.Time) models.OverviewStats {
	var stats models.OverviewStats
	for _, s := range servers {
		stats.Servers++
		if !IsOffline(s.LastActive, now) {
			stats.OnlineServers++
		}
		stats.MemUsed += s.State.MemUsed
		stats.MemTotal += s.Host.MemTotal
		stats.SwapUsed += s.State.SwapUsed
		stats.SwapTotal += s.Host.SwapTotal
		stats.DiskUsed += s.State.DiskUsed
		stats.DiskTotal += s.Host.DiskTotal
		stats.NetInSpeed += s.State.NetInSpeed
		stats.NetOutSpeed += s.State.NetOutSpeed
		stats.NetInTransfer += s.State.NetInTransfer
		stats.NetOutTransfer += s.State.NetOutTransfer
	}
	return stats
}

// FormatUsage renders used/total as a percentage with two decimals.
// It returns "0" when total is zero or the ratio is not a finite number.
func FormatUsage[U, T Number](used U, total T) string {
	t := float64(total)
	if t == 0 {
		return "0"
	}
	ratio := float64(used) / t * 100
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return "0"
	}
	return strconv.FormatFloat(ratio, 'f', 2, 64)
}

// FormatBytes renders a byte count with base-1024 units, e.g. 1536 -> "1.5KB".
// Zero, negative and non-numeric input render as "0B".
func FormatBytes[T Number](bytes T) string {
	v := float64(bytes)
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0B"
	}

	// dividing by 1024 is exact, so 1024^n lands on unit n
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}

	scaled := math.Round(v*100) / 100
	return strconv.FormatFloat(scaled, 'f', -1, 64) + byteUnits[i]
}

// AverageDelay is the arithmetic mean of samples, 0 for none
func AverageDelay(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Availability is the share of successful checks, up/(up+down), as
// FormatUsage renders it. Failed checks are part of the denominator rather
// than subtracted from the successes, so the result stays within 0..100 even
// when downs outnumber ups.
func Availability(totalUp, totalDown uint64) string {
	return FormatUsage(totalUp, float64(totalUp)+float64(totalDown))
}

// CurrentlyUp compares the newest up and down samples of a service. The
// newest sample is the last one, whatever the length of the window; a service
// with no samples is reported down.
func CurrentlyUp(item models.ServiceItem) bool {
	if len(item.Up) == 0 {
		return false
	}
	last := len(item.Up) - 1
	var down uint64
	if last < len(item.Down) {
		down = item.Down[last]
	}
	return item.Up[last] > down
}

// UptimeDays converts an uptime in seconds to whole elapsed days. It is a
// duration, not a calendar date.
func UptimeDays(seconds uint64) uint64 {
	return seconds / 86400
}

// TransferRows lists the servers of a transfer cycle in server id order
func TransferRows(stat models.CycleTransferStats) []models.TransferRow {
	keys := orderedKeys(stat.ServerName)
	rows := make([]models.TransferRow, 0, len(keys))
	for _, sid := range keys {
		rows = append(rows, models.TransferRow{
			ServerID:   sid,
			ServerName: stat.ServerName[sid],
			Transfer:   stat.Transfer[sid],
			NextUpdate: stat.NextUpdate[sid],
		})
	}
	return rows
}

// FlagEmoji turns an ISO country code into its regional indicator flag
func FlagEmoji(countryCode string) string {
	if countryCode == "" {
		return "❔️"
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(countryCode) {
		if r < 'A' || r > 'Z' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(r - 'A' + 0x1F1E6)
	}
	return b.String()
}

// orderedKeys returns map keys in the order the dashboard's web front-end
// iterates the same JSON object: integer-like keys ascending, then the rest
// sorted.
func orderedKeys[V any](m map[string]V) []string {
	type indexed struct {
		key string
		n   uint64
	}
	var numeric []indexed
	var other []string
	for k := range m {
		if n, ok := arrayIndex(k); ok {
			numeric = append(numeric, indexed{k, n})
		} else {
			other = append(other, k)
		}
	}
	sort.Slice(numeric, func(i, j int) bool { return numeric[i].n < numeric[j].n })
	sort.Strings(other)

	keys := make([]string, 0, len(m))
	for _, k := range numeric {
		keys = append(keys, k.key)
	}
	return append(keys, other...)
}

// arrayIndex reports whether k is a canonical non-negative integer
func arrayIndex(k string) (uint64, bool) {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(k, 10, 32)
	if err != nil || n == math.MaxUint32 {
		return 0, false
	}
	return n, true
}
