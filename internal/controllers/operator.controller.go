package controllers

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	tgmodels "github.com/go-telegram/bot/models"

	"nezhabot/internal/services"
)

// WebhookAPI is the part of the Bot API used to (un)register the bot
type WebhookAPI interface {
	SetMyCommands(ctx context.Context, commands []tgmodels.BotCommand) error
	SetWebhook(ctx context.Context, url, secret string) error
	DeleteWebhook(ctx context.Context) error
}

// CommandLister provides the command menu
type CommandLister interface {
	Commands() []tgmodels.BotCommand
}

// OperatorController serves the password protected maintenance routes
type OperatorController struct {
	api          WebhookAPI
	commands     CommandLister
	tokens       services.Refresher
	endpointPath string
	secret       string
}

// NewOperatorController creates the operator controller
func NewOperatorController(api WebhookAPI, commands CommandLister, tokens services.Refresher, endpointPath, secret string) *OperatorController {
	return &OperatorController{
		api:          api,
		commands:     commands,
		tokens:       tokens,
		endpointPath: endpointPath,
		secret:       secret,
	}
}

// WebhookURL is the public webhook address for a request received on host
func (oc *OperatorController) WebhookURL(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return "https://" + host + oc.endpointPath
}

// Register publishes the command menu and points the webhook at this host
func (oc *OperatorController) Register(c *gin.Context) {
	ctx := c.Request.Context()

	if err := oc.api.SetMyCommands(ctx, oc.commands.Commands()); err != nil {
		log.Printf("[TELEGRAM] setMyCommands failed: %v", err)
		writeAPIError(c, err)
		return
	}

	url := oc.WebhookURL(c.Request.Host)
	if err := oc.api.SetWebhook(ctx, url, oc.secret); err != nil {
		log.Printf("[TELEGRAM] setWebhook failed: %v", err)
		writeAPIError(c, err)
		return
	}
	log.Printf("[TELEGRAM] Webhook registered at %s", url)
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"url":         url,
		"description": "Webhook was set",
	})
}

// Unregister removes the webhook
func (oc *OperatorController) Unregister(c *gin.Context) {
	if err := oc.api.DeleteWebhook(c.Request.Context()); err != nil {
		log.Printf("[TELEGRAM] deleteWebhook failed: %v", err)
		writeAPIError(c, err)
		return
	}
	log.Printf("[TELEGRAM] Webhook removed")
	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"description": "Webhook was deleted",
	})
}

// Refresh renews the dashboard token on demand
func (oc *OperatorController) Refresh(c *gin.Context) {
	log.Printf("[TOKEN] Operator requested a refresh from %s", c.ClientIP())
	if err := oc.tokens.Refresh(context.WithoutCancel(c.Request.Context())); err != nil {
		log.Printf("[TOKEN] Operator refresh failed: %v", err)
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	log.Println("[TOKEN] Operator refresh succeeded")
	c.String(http.StatusOK, "refresh completed")
}

// writeAPIError relays a Bot API rejection or transport failure
func writeAPIError(c *gin.Context, err error) {
	c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
}
