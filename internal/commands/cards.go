package commands

import (
	"strconv"
	"strings"
	"time"

	tgmodels "github.com/go-telegram/bot/models"

	"nezhabot/internal/models"
	"nezhabot/internal/services"
	"nezhabot/internal/telegram"
)

const (
	separator   = "=========================="
	overviewRow = 4
	markMissing = "❌️"
	markOnline  = "✅"
	markOffline = "❌️"
	markDown    = "❌"
)

func (h *Handlers) refreshRow(data string) [][]tgmodels.InlineKeyboardButton {
	return [][]tgmodels.InlineKeyboardButton{{{Text: h.tr.T("Refresh"), CallbackData: data}}}
}

func (h *Handlers) updatedAt() string {
	return telegram.Build(h.tr.T("Last Updated At"), ": ", telegram.Bold(h.tr.FormatTime(h.now())))
}

func (h *Handlers) usageLine(label string, used, total uint64) string {
	return telegram.Build(h.tr.T(label), ": ",
		services.FormatUsage(used, total), "% ",
		services.FormatBytes(used), "/", services.FormatBytes(total))
}

func (h *Handlers) trafficLine(in, out uint64) string {
	return telegram.Build(h.tr.T("Traffic"), ": ↓", services.FormatBytes(in), " ↑", services.FormatBytes(out))
}

func (h *Handlers) speedLine(in, out uint64) string {
	return telegram.Build(h.tr.T("NIC"), ": ↓", services.FormatBytes(in), "/s ↑", services.FormatBytes(out), "/s")
}

func orMissing(s string) string {
	if s == "" {
		return markMissing
	}
	return s
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (h *Handlers) serverCard(s models.Server) *models.Reply {
	t := h.tr.T

	status := markOnline + " " + t("Online")
	if services.IsOffline(s.LastActive, h.now()) {
		status = markOffline + " " + t("Offline")
	}

	platform := s.Host.Platform
	if platform == "" {
		platform = t("Unknown")
	}

	cpuUsage := "0"
	if s.State.CPU != 0 {
		cpuUsage = strconv.FormatFloat(s.State.CPU, 'f', 2, 64)
	}

	lines := []string{
		telegram.Build(services.FlagEmoji(s.GeoIP.CountryCode), " ", telegram.Bold(s.Name), " ", status),
		telegram.Build(separator),
		telegram.Build(t("ID"), ": ", telegram.Bold(strconv.FormatUint(s.ID, 10))),
		telegram.Build(t("IPv4"), ": ", orMissing(s.GeoIP.IP.IPv4Addr)),
		telegram.Build(t("IPv6"), ": ", orMissing(s.GeoIP.IP.IPv6Addr)),
		telegram.Build(t("Platform"), ": ", platform),
		telegram.Build(t("CPU Model(s)"), ": ", strings.Join(s.Host.CPU, ",")),
	}
	if len(s.Host.GPU) > 0 {
		lines = append(lines, telegram.Build(t("GPU Model(s)"), ": ", strings.Join(s.Host.GPU, ",")))
	}
	lines = append(lines,
		telegram.Build(t("Uptime"), ": ", services.UptimeDays(s.State.Uptime), " ", t("Days")),
		telegram.Build(t("Load"), ": ", formatFloat(s.State.Load1), " ", formatFloat(s.State.Load5), " ", formatFloat(s.State.Load15)),
		telegram.Build(t("CPU Usage"), ": ", cpuUsage, "%"),
		h.usageLine("Memory", s.State.MemUsed, s.Host.MemTotal),
		h.usageLine("Swap", s.State.SwapUsed, s.Host.SwapTotal),
		h.usageLine("Disk", s.State.DiskUsed, s.Host.DiskTotal),
		h.trafficLine(s.State.NetInTransfer, s.State.NetOutTransfer),
		h.speedLine(s.State.NetInSpeed, s.State.NetOutSpeed),
		"",
		h.updatedAt(),
	)

	return &models.Reply{
		Text:           telegram.Lines(lines...),
		InlineKeyboard: h.refreshRow(callbackRefreshServer + strconv.FormatUint(s.ID, 10)),
	}
}

// overviewKeyboard is an "All" row followed by the groups, four per row
func (h *Handlers) overviewKeyboard(groups []models.ServerGroupItem) [][]tgmodels.InlineKeyboardButton {
	keyboard := [][]tgmodels.InlineKeyboardButton{{{Text: h.tr.T("All"), CallbackData: callbackOverview}}}
	for i, g := range groups {
		if i%overviewRow == 0 {
			keyboard = append(keyboard, make([]tgmodels.InlineKeyboardButton, 0, overviewRow))
		}
		last := len(keyboard) - 1
		keyboard[last] = append(keyboard[last], tgmodels.InlineKeyboardButton{
			Text:         g.Group.Name,
			CallbackData: callbackOverview + "_" + g.Group.Name,
		})
	}
	return keyboard
}

func (h *Handlers) overviewCard(stats models.OverviewStats, groupName string, groups []models.ServerGroupItem) *models.Reply {
	t := h.tr.T

	title := telegram.Build("📊 ", t("Statistics"))
	if groupName != "" {
		title += telegram.Build(" ", t("for"), " ", telegram.Bold(groupName))
	}

	lines := []string{
		title,
		telegram.Build(separator),
		telegram.Build(t("Total Servers"), ": ", stats.Servers),
		telegram.Build(t("Online Servers"), ": ", stats.OnlineServers),
		h.usageLine("Memory", stats.MemUsed, stats.MemTotal),
		h.usageLine("Swap", stats.SwapUsed, stats.SwapTotal),
		h.usageLine("Disk", stats.DiskUsed, stats.DiskTotal),
		h.trafficLine(stats.NetInTransfer, stats.NetOutTransfer),
		h.speedLine(stats.NetInSpeed, stats.NetOutSpeed),
		telegram.Build(t("Traffic Symmetry"), ": ", services.FormatUsage(stats.NetOutTransfer, stats.NetInTransfer), "%"),
		"",
		h.updatedAt(),
	}

	return &models.Reply{
		Text:           telegram.Lines(lines...),
		InlineKeyboard: h.overviewKeyboard(groups),
	}
}

func (h *Handlers) monitorCard(item models.ServiceItem) *models.Reply {
	t := h.tr.T

	current := markDown
	if services.CurrentlyUp(item) {
		current = markOnline
	}

	lines := []string{
		telegram.Build("🚨 ", telegram.Bold(item.ServiceName)),
		telegram.Build(separator),
		telegram.Build(t("Current Status"), ": ", current),
		telegram.Build(t("Availability"), ": ", services.Availability(item.TotalUp, item.TotalDown), "%"),
		telegram.Build(t("Average Delay"), ": ", strconv.FormatFloat(services.AverageDelay(item.Delay), 'f', 2, 64), "ms"),
		"",
		h.updatedAt(),
	}

	return &models.Reply{
		Text:           telegram.Lines(lines...),
		InlineKeyboard: h.refreshRow(callbackMonitor + item.ServiceName),
	}
}

func (h *Handlers) formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return h.tr.FormatTime(ts)
}

func (h *Handlers) transferCard(stat models.CycleTransferStats) *models.Reply {
	t := h.tr.T

	lines := []string{
		telegram.Build("🛣 ", telegram.Bold(stat.Name)),
		telegram.Build(separator),
		telegram.Build(t("Cycle Start"), ": ", h.formatTime(stat.From)),
		telegram.Build(t("Cycle End"), ": ", h.formatTime(stat.To)),
	}
	for _, row := range services.TransferRows(stat) {
		lines = append(lines,
			"",
			telegram.Build(t("Server"), ": ", row.ServerName),
			telegram.Build(t("Usage"), ": ",
				services.FormatUsage(row.Transfer, stat.Max), "% ",
				services.FormatBytes(row.Transfer), "/", services.FormatBytes(stat.Max)),
			telegram.Build(t("Next Update Time"), ": ", h.formatTime(row.NextUpdate)),
		)
	}
	lines = append(lines, "", h.updatedAt())

	return &models.Reply{
		Text:           telegram.Lines(lines...),
		InlineKeyboard: h.refreshRow(callbackTransfer + stat.Name),
	}
}
