package controller

import (
	"bufio"

	"portfolio-chat-be/internal/constant"
	"portfolio-chat-be/internal/dto"
	"portfolio-chat-be/internal/pkg/serverutils"
	"portfolio-chat-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, jwtGuard fiber.Handler)
	Login(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService service.IAdminService
	chatService  service.IChatService
}

func NewAdminController(adminService service.IAdminService, chatService service.IChatService) IAdminController {
	return &adminController{
		adminService: adminService,
		chatService:  chatService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router, jwtGuard fiber.Handler) {
	h := r.Group("/admin")
	h.Post("/v1/login", c.Login)

	protected := h.Group("", jwtGuard)
	protected.Post("/chat/v1", c.SendChat)
	protected.Get("/v1/sessions", c.GetSessions)
	protected.Get("/v1/logs", c.GetLogs)
}

func (c *adminController) Login(ctx *fiber.Ctx) error {
	var req dto.AdminLoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.Login(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success login", res))
}

// SendChat is the admin-side chat: same protocol as the public endpoint,
// different system persona, guarded by the bearer token instead of the
// public API key.
func (c *adminController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	clientKey := ctx.Get(constant.SessionHeader)
	if clientKey == "" {
		clientKey = req.SessionId
	}

	plan, err := c.chatService.PrepareChat(ctx.Context(), &req, clientKey, true)
	if err != nil {
		return err
	}

	ctx.Set(constant.SessionHeader, plan.SessionKey)

	if plan.Mode == service.ModeJSON {
		return ctx.JSON(dto.ChatTextResponse{Text: plan.Text})
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		c.chatService.StreamChat(w, plan)
	}))
	return nil
}

func (c *adminController) GetSessions(ctx *fiber.Ctx) error {
	res, err := c.adminService.GetSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	var req dto.AdminLogsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed query")
	}

	res, err := c.adminService.GetLogs(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success read logs", res))
}
