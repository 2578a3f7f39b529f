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

type IChatController interface {
	RegisterRoutes(r fiber.Router, apiKey fiber.Handler)
	SendChat(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	ClearSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, apiKey fiber.Handler) {
	h := r.Group("/chat/v1")
	h.Use(apiKey)
	h.Post("", c.SendChat)
	h.Get("", c.GetHistory)
	h.Delete("", c.ClearSession)
}

// SendChat decides stream-vs-JSON before committing any header, then for
// the streaming case hands the body off to a detached writer. The handler
// returns as soon as the headers and the writer hookup are in place;
// frames flush to the client while the model is still talking.
func (c *chatController) SendChat(ctx *fiber.Ctx) error {
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

	plan, err := c.chatService.PrepareChat(ctx.Context(), &req, clientKey, false)
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

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	sessionKey := ctx.Query("sessionId")
	if sessionKey == "" {
		sessionKey = ctx.Get(constant.SessionHeader)
	}
	if sessionKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sessionId is required")
	}

	res, err := c.chatService.GetHistory(ctx.Context(), sessionKey)
	if err != nil {
		return err
	}

	ctx.Set(constant.SessionHeader, res.SessionId)
	return ctx.JSON(res)
}

func (c *chatController) ClearSession(ctx *fiber.Ctx) error {
	sessionKey := ctx.Query("sessionId")
	if sessionKey == "" {
		sessionKey = ctx.Get(constant.SessionHeader)
	}
	if sessionKey == "" {
		return fiber.NewError(fiber.StatusBadRequest, "sessionId is required")
	}

	if err := c.chatService.ClearSession(ctx.Context(), sessionKey); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear session", nil))
}
