package controller

import (
	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/pkg/serverutils"
	"commandcenter-be/internal/service"
	ws "commandcenter-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IKBController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	GetDocuments(ctx *fiber.Ctx) error
	GetStats(ctx *fiber.Ctx) error
	TriggerSync(ctx *fiber.Ctx) error
}

type kbController struct {
	service service.IKBService
	hub     *ws.Hub
}

func NewKBController(service service.IKBService, hub *ws.Hub) IKBController {
	return &kbController{service: service, hub: hub}
}

func (c *kbController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/kb/v1")
	h.Use(jwtMiddleware)
	h.Get("documents", c.GetDocuments)
	h.Get("stats", c.GetStats)
	h.Post("sync-trigger", c.TriggerSync)

	// Live sync progress stream for operator consoles.
	h.Use("sync-progress", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("sync-progress", websocket.New(func(conn *websocket.Conn) {
		ws.ServeWs(c.hub, conn)
	}))
}

func (c *kbController) GetDocuments(ctx *fiber.Ctx) error {
	res, err := c.service.GetDocuments(ctx.Context())
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success get documents", res)
}

func (c *kbController) GetStats(ctx *fiber.Ctx) error {
	res, err := c.service.GetStats(ctx.Context())
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success get stats", res)
}

func (c *kbController) TriggerSync(ctx *fiber.Ctx) error {
	// An empty body means a full sync.
	var req dto.SyncTriggerRequest
	if len(ctx.Body()) > 0 {
		if err := serverutils.ValidateRequest(ctx, &req); err != nil {
			return err
		}
	}

	res, err := c.service.TriggerSync(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusAccepted, "Sync queued", res)
}
