package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// MetadataFetcher is the slice of the upstream client the resolver needs.
// Satisfied by *opennotebook.Client.
type MetadataFetcher interface {
	GetSource(ctx context.Context, id string) ([]byte, error)
	GetInsight(ctx context.Context, id string) ([]byte, error)
}

type IReferenceController interface {
	RegisterRoutes(r fiber.Router)
	GetSource(ctx *fiber.Ctx) error
	GetInsight(ctx *fiber.Ctx) error
}

type referenceController struct {
	fetcher MetadataFetcher
}

func NewReferenceController(fetcher MetadataFetcher) IReferenceController {
	return &referenceController{fetcher: fetcher}
}

func (c *referenceController) RegisterRoutes(r fiber.Router) {
	r.Get("/sources/:id", c.GetSource)
	r.Get("/insights/:id", c.GetInsight)
}

// GetSource resolves a source citation to its parent document metadata.
// The id may be bare, prefixed, or chunk-suffixed; normalization happens in
// the upstream client. The backend JSON is forwarded unmodified.
func (c *referenceController) GetSource(ctx *fiber.Ctx) error {
	body, err := c.fetcher.GetSource(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(body)
}

// GetInsight resolves an insight citation to the extracted-insight document.
func (c *referenceController) GetInsight(ctx *fiber.Ctx) error {
	body, err := c.fetcher.GetInsight(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return ctx.Send(body)
}
