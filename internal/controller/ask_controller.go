package controller

import (
	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/pkg/serverutils"
	"commandcenter-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAskController interface {
	RegisterRoutes(r fiber.Router)
	Ask(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
}

type askController struct {
	service service.IAskService
}

func NewAskController(service service.IAskService) IAskController {
	return &askController{service: service}
}

func (c *askController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ask/v1")
	h.Post("", c.Ask)
	h.Get("sessions", c.GetSessions)
	h.Get("sessions/:id/history", c.GetHistory)
}

func (c *askController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskRequest
	if err := serverutils.ValidateRequest(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Query handled", res)
}

func (c *askController) GetSessions(ctx *fiber.Ctx) error {
	res, err := c.service.GetSessions(ctx.Context())
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success get sessions", res)
}

func (c *askController) GetHistory(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.service.GetHistory(ctx.Context(), sessionId)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success get history", res)
}
