package controller

import (
	"bufio"

	"github.com/gofiber/fiber/v2"

	"notebook-widget-be/internal/config"
	"notebook-widget-be/internal/dto"
	"notebook-widget-be/internal/pkg/logger"
	"notebook-widget-be/internal/pkg/serverutils"
	"notebook-widget-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SendChat(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	ExtractCitations(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	session config.SessionConfig
	isProd  bool
	log     logger.ILogger
}

func NewChatController(svc service.IChatService, cfg *config.Config, log logger.ILogger) IChatController {
	return &chatController{
		service: svc,
		session: cfg.Session,
		isProd:  cfg.App.Environment == "production",
		log:     log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	r.Post("/chat", c.SendChat)
	r.Post("/chat/reset", c.Reset)
	r.Post("/chat/citations", c.ExtractCitations)
}

// SendChat relays one user message and streams the answer back as plain
// text. The session cookie is set before the body starts streaming.
func (c *chatController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	token := ctx.Cookies(c.session.CookieName)

	turn, newToken, err := c.service.OpenStream(ctx.Context(), token, req.Message)
	if err != nil {
		return err
	}

	if newToken != "" {
		c.setSessionCookie(ctx, newToken)
	}

	ctx.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		relayErr := c.service.Relay(turn, func(chunk string) error {
			if _, err := w.WriteString(chunk); err != nil {
				return err
			}
			// Flush per chunk so the widget sees deltas as they arrive.
			return w.Flush()
		})
		if relayErr != nil {
			// Headers are gone; all we can do is stop and log. Chunks
			// already delivered stand.
			c.log.Warn("chat", "answer stream aborted", map[string]interface{}{
				"error": relayErr.Error(),
			})
		}
	})

	return nil
}

// Reset clears the session cookie and drops the token binding so the next
// message starts a fresh backend conversation.
func (c *chatController) Reset(ctx *fiber.Ctx) error {
	token := ctx.Cookies(c.session.CookieName)

	if err := c.service.ResetSession(ctx.Context(), token); err != nil {
		return err
	}

	ctx.Cookie(&fiber.Cookie{
		Name:     c.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   c.isProd,
		SameSite: c.sameSite(),
	})

	return ctx.JSON(serverutils.SuccessResponse[any]("Session reset", nil))
}

// ExtractCitations rewrites raw references in the posted text into numbered
// markers. Exposed for clients that render the answer without streaming.
func (c *chatController) ExtractCitations(ctx *fiber.Ctx) error {
	var req dto.ExtractCitationsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	result := c.service.ExtractCitations(req.Text)

	return ctx.JSON(serverutils.SuccessResponse("Citations extracted", dto.ExtractCitationsResponse{
		Text:       result.Text,
		References: result.References,
	}))
}

func (c *chatController) setSessionCookie(ctx *fiber.Ctx, token string) {
	ctx.Cookie(&fiber.Cookie{
		Name:     c.session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.session.Lifetime.Seconds()),
		HTTPOnly: true,
		Secure:   c.isProd,
		SameSite: c.sameSite(),
	})
}

// sameSite picks the cross-site policy: the widget lives in an iframe, so
// production needs SameSite=None (which requires Secure).
func (c *chatController) sameSite() string {
	if c.isProd {
		return fiber.CookieSameSiteNoneMode
	}
	return fiber.CookieSameSiteLaxMode
}
