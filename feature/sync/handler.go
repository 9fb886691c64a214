package sync

import (
	"errors"

	"media-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests that trigger sync passes.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/users", h.HandleUsers)
	group.Post("/assets", h.HandleAssets)
	group.Post("/albums", h.HandleAlbums)
	group.Post("/local", h.HandleLocal)
	group.Post("/wipe", h.HandleWipe)
	group.Get("/status", h.HandleStatus)
}

// LocalRequest is the optional body of a device album sync.
type LocalRequest struct {
	// Excluded holds device asset ids to ignore.
	Excluded []string `json:"excluded"`
}

// HandleUsers refreshes the users from the server.
func (h *Handler) HandleUsers(c *fiber.Ctx) error {
	changed, err := h.service.RefreshUsers(c.UserContext())
	return h.respond(c, changed, err)
}

// HandleAssets syncs the server assets.
func (h *Handler) HandleAssets(c *fiber.Ctx) error {
	return h.respond(c, h.service.SyncRemoteAssets(c.UserContext()), nil)
}

// HandleAlbums syncs the server albums. The shared query parameter selects
// albums shared with the user instead of owned ones.
func (h *Handler) HandleAlbums(c *fiber.Ctx) error {
	changed, err := h.service.RefreshRemoteAlbums(c.UserContext(), c.QueryBool("shared", false))
	return h.respond(c, changed, err)
}

// HandleLocal syncs the device albums.
func (h *Handler) HandleLocal(c *fiber.Ctx) error {
	var req LocalRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request body",
			})
		}
	}
	var excluded map[string]struct{}
	if len(req.Excluded) > 0 {
		excluded = make(map[string]struct{}, len(req.Excluded))
		for _, id := range req.Excluded {
			excluded[id] = struct{}{}
		}
	}
	changed, err := h.service.RefreshLocalAlbums(c.UserContext(), excluded)
	return h.respond(c, changed, err)
}

// HandleWipe removes all device data from the snapshot.
func (h *Handler) HandleWipe(c *fiber.Ctx) error {
	return h.respond(c, h.service.WipeLocal(c.UserContext()), nil)
}

// HandleStatus reports whether a pass is running and how many are queued.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

func (h *Handler) respond(c *fiber.Ctx, changed bool, err error) error {
	if err != nil {
		l := logger.WithRayID(h.service.logger, c)
		l.Error("Sync request failed", zap.String("path", c.Path()), zap.Error(err))
		status := fiber.StatusInternalServerError
		if errors.Is(err, ErrUpstreamUnavailable) {
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"changed": changed})
}
