package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"nezhabot/internal/models"
)

// TokenInfo exposes the token manager's state without the ability to refresh
type TokenInfo interface {
	CurrentToken() string
	Expiry() time.Time
	State() TokenState
}

// StatusService reports the relay's own health: token state and the
// resources of the host the bot runs on.
type StatusService struct {
	tokens   TokenInfo
	diskPath string
}

// NewStatusService creates a status service. diskPath defaults to "/".
func NewStatusService(tokens TokenInfo, diskPath string) *StatusService {
	if diskPath == "" {
		diskPath = "/"
	}
	return &StatusService{tokens: tokens, diskPath: diskPath}
}

// Collect gathers the current relay status
func (s *StatusService) Collect(ctx context.Context) (*models.RelayStatus, error) {
	token := s.tokens.CurrentToken()
	status := &models.RelayStatus{
		TokenState:  s.tokens.State().String(),
		HasToken:    token != "",
		TokenExpiry: s.tokens.Expiry(),
		Timestamp:   time.Now(),
	}
	if token != "" {
		status.TokenPreview = tokenPreview(token)
	}

	percentage, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		log.Printf("[STATUS] Warning: Could not get CPU usage: %v", err)
	} else if len(percentage) > 0 {
		status.CPUPercent = strconv.FormatFloat(percentage[0], 'f', 2, 64)
	}

	virtualMemory, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory usage: %w", err)
	}
	status.Memory = FormatBytes(virtualMemory.Used) + "/" + FormatBytes(virtualMemory.Total)
	status.MemoryUsage = FormatUsage(virtualMemory.Used, virtualMemory.Total)

	usage, err := disk.UsageWithContext(ctx, s.diskPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", err)
	}
	status.Disk = FormatBytes(usage.Used) + "/" + FormatBytes(usage.Total)
	status.DiskUsage = FormatUsage(usage.Used, usage.Total)

	return status, nil
}
