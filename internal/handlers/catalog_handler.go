package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/services"
)

// CatalogHandler proxies the public movie and tv routes to the upstream catalog.
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterRoutes registers /movie and /tv. The category route is last so it
// does not shadow the fixed paths.
func (h *CatalogHandler) RegisterRoutes(router fiber.Router) {
	movies := router.Group("/movie")
	movies.Get("/trending", h.trending(services.MediaMovie))
	movies.Get("/all", h.discover(services.MediaMovie))
	movies.Get("/popular", h.popular(services.MediaMovie))
	movies.Get("/upcoming", h.HandleUpcoming)
	h.registerItemRoutes(movies, services.MediaMovie)

	tv := router.Group("/tv")
	tv.Get("/trending", h.trending(services.MediaTV))
	tv.Get("/all", h.discover(services.MediaTV))
	tv.Get("/popular", h.popular(services.MediaTV))
	h.registerItemRoutes(tv, services.MediaTV)
}

func (h *CatalogHandler) registerItemRoutes(router fiber.Router, kind services.MediaKind) {
	router.Get("/:id/trailers", h.trailers(kind))
	router.Get("/:id/details", h.details(kind))
	router.Get("/:id/similar", h.similar(kind))
	router.Get("/:category", h.category(kind))
}

// listKey is the response key of a page of results.
func listKey(kind services.MediaKind) string {
	if kind == services.MediaTV {
		return "tvShows"
	}
	return "movies"
}

func (h *CatalogHandler) trending(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		content, err := h.catalog.Trending(c.UserContext(), kind)
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "content": content})
	}
}

func (h *CatalogHandler) discover(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, ok := pageParam(c)
		if !ok {
			return invalidPage(c)
		}
		result, err := h.catalog.Discover(c.UserContext(), kind, page)
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, listKey(kind): result.Results, "totalPages": result.TotalPages})
	}
}

func (h *CatalogHandler) popular(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, ok := pageParam(c)
		if !ok {
			return invalidPage(c)
		}
		result, err := h.catalog.Popular(c.UserContext(), kind, page)
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, listKey(kind): result.Results, "totalPages": result.TotalPages})
	}
}

// HandleUpcoming lists upcoming movies.
func (h *CatalogHandler) HandleUpcoming(c *fiber.Ctx) error {
	page, ok := pageParam(c)
	if !ok {
		return invalidPage(c)
	}
	result, err := h.catalog.Upcoming(c.UserContext(), page)
	if err != nil {
		return writeUpstreamError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "movies": result.Results, "totalPages": result.TotalPages})
}

func (h *CatalogHandler) trailers(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		trailers, err := h.catalog.Trailers(c.UserContext(), kind, c.Params("id"))
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "trailers": trailers})
	}
}

func (h *CatalogHandler) details(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		content, err := h.catalog.Details(c.UserContext(), kind, c.Params("id"))
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "content": content})
	}
}

func (h *CatalogHandler) similar(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		similar, err := h.catalog.Similar(c.UserContext(), kind, c.Params("id"))
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "similar": similar})
	}
}

func (h *CatalogHandler) category(kind services.MediaKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		content, err := h.catalog.Category(c.UserContext(), kind, c.Params("category"))
		if err != nil {
			return writeUpstreamError(c, err)
		}
		return c.JSON(fiber.Map{"success": true, "content": content})
	}
}

// pageParam reads ?page=, defaulting to 1.
func pageParam(c *fiber.Ctx) (int, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func invalidPage(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": "Invalid page",
	})
}
