package controller

import (
	"context"
	"errors"

	"cskg-agent-be/internal/dto"
	"cskg-agent-be/internal/pkg/serverutils"
	"cskg-agent-be/internal/service"
	"cskg-agent-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	ws "github.com/gofiber/websocket/v2"
)

type IQuestionController interface {
	RegisterRoutes(r fiber.Router, mw ...fiber.Handler)
	Ask(ctx *fiber.Ctx) error
	Submit(ctx *fiber.Ctx) error
	GetRun(ctx *fiber.Ctx) error
	Watch(conn *ws.Conn)
}

type questionController struct {
	service service.IQuestionService
	hub     *websocket.Hub
}

// NewQuestionController serves the live run feed only when hub is non-nil.
func NewQuestionController(service service.IQuestionService, hub *websocket.Hub) IQuestionController {
	return &questionController{service: service, hub: hub}
}

func (c *questionController) RegisterRoutes(r fiber.Router, mw ...fiber.Handler) {
	h := r.Group("/questions/v1", mw...)
	h.Post("ask", c.Ask)
	h.Post("", c.Submit)
	h.Get(":id", c.GetRun)

	if c.hub != nil {
		h.Use(":id/ws", func(ctx *fiber.Ctx) error {
			if ws.IsWebSocketUpgrade(ctx) {
				return ctx.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		h.Get(":id/ws", ws.New(c.Watch))
	}
}

// Ask answers synchronously; the request stays open for the whole pipeline.
func (c *questionController) Ask(ctx *fiber.Ctx) error {
	var req dto.AskQuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success answer question", res))
}

func (c *questionController) Submit(ctx *fiber.Ctx) error {
	var req dto.AskQuestionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Submit(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Success submit question", res))
}

func (c *questionController) GetRun(ctx *fiber.Ctx) error {
	res, err := c.service.GetRun(ctx.UserContext(), ctx.Params("id"))
	if errors.Is(err, service.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Run not found")
	}
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get run", res))
}

// Watch streams status changes of one run. A finished run gets its final
// state and the connection is closed.
func (c *questionController) Watch(conn *ws.Conn) {
	runId := conn.Params("id")
	if _, err := c.service.GetRun(context.Background(), runId); err != nil {
		_ = conn.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.ClosePolicyViolation, "run not found"))
		_ = conn.Close()
		return
	}

	websocket.ServeWs(c.hub, conn, runId, c.runSnapshot(runId))
}

func (c *questionController) runSnapshot(runId string) websocket.Snapshot {
	return func() (interface{}, bool, bool) {
		run, err := c.service.GetRun(context.Background(), runId)
		if err != nil {
			return nil, false, false
		}
		return run, run.CompletedAt != nil, true
	}
}
