package controller

import (
	"commandcenter-be/internal/dto"
	"commandcenter-be/internal/pkg/logger"
	"commandcenter-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IOpsController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	GetLogs(ctx *fiber.Ctx) error
}

type opsController struct {
	logger logger.ILogger
}

func NewOpsController(log logger.ILogger) IOpsController {
	return &opsController{logger: log}
}

func (c *opsController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/ops/v1")
	h.Use(jwtMiddleware)
	h.Get("logs", c.GetLogs)
}

func (c *opsController) GetLogs(ctx *fiber.Ctx) error {
	var query dto.GetLogsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if query.Limit <= 0 || query.Limit > 500 {
		query.Limit = 100
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	logs, err := c.logger.GetLogs(query.Level, query.Limit, query.Offset)
	if err != nil {
		return err
	}

	return serverutils.SuccessResponse(ctx, fiber.StatusOK, "Success get logs", logs)
}
