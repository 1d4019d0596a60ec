package commands

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"nezhabot/internal/i18n"
	"nezhabot/internal/models"
	"nezhabot/internal/services"
	"nezhabot/internal/telegram"
)

// Telemetry is the read side of the dashboard
type Telemetry interface {
	ListServers(ctx context.Context, id uint64) ([]models.Server, error)
	ListServerGroups(ctx context.Context) ([]models.ServerGroupItem, error)
	GetServiceData(ctx context.Context) (models.ServiceResponse, error)
}

// Callback data prefixes of the inline keyboards
const (
	callbackRefreshServer = "refresh_server_"
	callbackOverview      = "overview"
	callbackMonitor       = "monitor_"
	callbackTransfer      = "transfer_"
)

// Handlers renders bot replies from dashboard data
type Handlers struct {
	telemetry Telemetry
	tokens    services.Refresher
	tr        *i18n.Translator
	now       func() time.Time
}

// NewHandlers creates the command handlers. tokens may be nil, in which
// case a rejected token is reported instead of refreshed.
func NewHandlers(telemetry Telemetry, tokens services.Refresher, tr *i18n.Translator) *Handlers {
	return &Handlers{
		telemetry: telemetry,
		tokens:    tokens,
		tr:        tr,
		now:       time.Now,
	}
}

// Register wires every command and the callback handler into bot
func (h *Handlers) Register(bot *telegram.Bot) {
	t := h.tr.T
	bot.RegisterCommand("start", t("Print help messages"), h.Start)
	bot.RegisterCommand("help", t("Print help messages"), h.Start)
	bot.RegisterCommand("sid", t("Print server information (with id)"), h.Sid)
	bot.RegisterCommand("server", t("Print server information (with server name)"), h.Server)
	bot.RegisterCommand("overview", t("Print server overview"), h.Overview)
	bot.RegisterCommand("monitor", t("Print monitor info"), h.Monitor)
	bot.RegisterCommand("transfer", t("Print cycle transfer info"), h.Transfer)
	bot.RegisterCallback(h.Callback)
}

// Start lists the available commands
func (h *Handlers) Start(_ context.Context, _ *tgmodels.Message, _ string) (*models.Reply, error) {
	t := h.tr.T
	return &models.Reply{Text: telegram.Lines(
		telegram.Build(telegram.Bold(t("Available commands")), ":"),
		telegram.Build(telegram.Code("/sid server_id"), " - ", t("Print server information (with id)")),
		telegram.Build(telegram.Code("/server server_name"), " - ", t("Print server information (with server name)")),
		telegram.Build(telegram.Code("/overview [group_name]"), " - ", t("Print server overview")),
		telegram.Build(telegram.Code("/monitor service_name"), " - ", t("Print monitor info")),
		telegram.Build(telegram.Code("/transfer service_name"), " - ", t("Print cycle transfer info")),
		telegram.Build(telegram.Code("/help"), " - ", t("Print help messages")),
	)}, nil
}

// Sid shows the server with the given numeric id
func (h *Handlers) Sid(ctx context.Context, _ *tgmodels.Message, args string) (*models.Reply, error) {
	id, err := strconv.ParseUint(args, 10, 64)
	if err != nil {
		return h.plain("The server id is not valid."), nil
	}
	return h.serverByID(ctx, id)
}

// Server shows the first server whose name contains args
func (h *Handlers) Server(ctx context.Context, _ *tgmodels.Message, args string) (*models.Reply, error) {
	if args == "" {
		return h.plain("The server name is not valid."), nil
	}

	servers, err := withReauth(ctx, h, func(ctx context.Context) ([]models.Server, error) {
		return h.telemetry.ListServers(ctx, 0)
	})
	if err != nil {
		return h.failure(err), err
	}
	server, ok := services.FindServerByName(servers, args)
	if !ok {
		return h.plain("No server matches."), nil
	}
	return h.serverCard(server), nil
}

// Overview rolls up all servers, or the members of the first group whose
// name contains args
func (h *Handlers) Overview(ctx context.Context, _ *tgmodels.Message, args string) (*models.Reply, error) {
	return h.overview(ctx, args)
}

// Monitor shows the first monitored service whose name contains args
func (h *Handlers) Monitor(ctx context.Context, _ *tgmodels.Message, args string) (*models.Reply, error) {
	if args == "" {
		return h.plain("The service name is not valid."), nil
	}
	return h.monitor(ctx, args)
}

// Transfer shows the first transfer cycle whose name contains args
func (h *Handlers) Transfer(ctx context.Context, _ *tgmodels.Message, args string) (*models.Reply, error) {
	if args == "" {
		return h.plain("The service name is not valid."), nil
	}
	return h.transfer(ctx, args)
}

// Callback re-renders the card behind a Refresh or group button
func (h *Handlers) Callback(ctx context.Context, query *tgmodels.CallbackQuery) (*models.Reply, error) {
	data := query.Data

	if rest, ok := strings.CutPrefix(data, callbackRefreshServer); ok {
		id, err := strconv.ParseUint(rest, 10, 64)
		if err != nil {
			return h.plain("The server id is not valid."), nil
		}
		return h.serverByID(ctx, id)
	}
	if data == callbackOverview {
		return h.overview(ctx, "")
	}
	if group, ok := strings.CutPrefix(data, callbackOverview+"_"); ok {
		return h.overview(ctx, group)
	}
	if name, ok := strings.CutPrefix(data, callbackMonitor); ok {
		return h.monitor(ctx, name)
	}
	if name, ok := strings.CutPrefix(data, callbackTransfer); ok {
		return h.transfer(ctx, name)
	}

	log.Printf("[BOT] Unknown callback data %q", data)
	return nil, nil
}

func (h *Handlers) serverByID(ctx context.Context, id uint64) (*models.Reply, error) {
	servers, err := withReauth(ctx, h, func(ctx context.Context) ([]models.Server, error) {
		return h.telemetry.ListServers(ctx, id)
	})
	if err != nil {
		return h.failure(err), err
	}
	server, ok := services.FindServerByID(servers, id)
	if !ok {
		return h.plain("The server id is not valid."), nil
	}
	return h.serverCard(server), nil
}

func (h *Handlers) overview(ctx context.Context, groupQuery string) (*models.Reply, error) {
	var (
		servers []models.Server
		groups  []models.ServerGroupItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		servers, err = withReauth(gctx, h, func(ctx context.Context) ([]models.Server, error) {
			return h.telemetry.ListServers(ctx, 0)
		})
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = withReauth(gctx, h, h.telemetry.ListServerGroups)
		return err
	})
	if err := g.Wait(); err != nil {
		return h.failure(err), err
	}

	filtered, group, ok := services.FilterByGroup(servers, groups, groupQuery)
	if !ok {
		return h.plain("No group matches."), nil
	}
	var groupName string
	if group != nil {
		groupName = group.Group.Name
	}
	return h.overviewCard(services.ComputeOverview(filtered, h.now()), groupName, groups), nil
}

func (h *Handlers) monitor(ctx context.Context, name string) (*models.Reply, error) {
	data, err := withReauth(ctx, h, h.telemetry.GetServiceData)
	if err != nil {
		return h.failure(err), err
	}
	if len(data.Services) == 0 {
		return h.plain("No service data available."), nil
	}
	item, ok := services.FindService(data.Services, name)
	if !ok {
		return h.plain("No service matches."), nil
	}
	return h.monitorCard(item), nil
}

func (h *Handlers) transfer(ctx context.Context, name string) (*models.Reply, error) {
	data, err := withReauth(ctx, h, h.telemetry.GetServiceData)
	if err != nil {
		return h.failure(err), err
	}
	if len(data.CycleTransferStats) == 0 {
		return h.plain("No cycle transfer data available."), nil
	}
	stat, ok := services.FindCycleTransfer(data.CycleTransferStats, name)
	if !ok {
		return h.plain("No service matches."), nil
	}
	return h.transferCard(stat), nil
}

// withReauth runs fetch and, when the dashboard rejected the token, refreshes
// it and runs fetch exactly once more.
func withReauth[T any](ctx context.Context, h *Handlers, fetch func(context.Context) (T, error)) (T, error) {
	v, err := fetch(ctx)
	if err == nil || h.tokens == nil || !services.IsUnauthorized(err) {
		return v, err
	}

	log.Printf("[BOT] Dashboard rejected the token (%v), refreshing", err)
	if rerr := h.tokens.Refresh(ctx); rerr != nil {
		return v, rerr
	}
	return fetch(ctx)
}

func (h *Handlers) plain(key string) *models.Reply {
	return &models.Reply{Text: telegram.Build(h.tr.T(key))}
}

func (h *Handlers) failure(err error) *models.Reply {
	return &models.Reply{Text: telegram.Lines(
		telegram.Build("⚠️ ", h.tr.T("Failed to fetch data from the dashboard.")),
		telegram.Build(telegram.Code(err.Error())),
	)}
}
