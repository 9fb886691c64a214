package integrity

import (
	"media-sync/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/export", h.HandleExportCheck)
	group.Get("/device", h.HandleDeviceCheck)
	group.Get("/schema", h.HandleSchemaCheck)
	group.Get("/library", h.HandleLibraryCheck)
}

func section(result any, err error) any {
	if err != nil {
		return fiber.Map{"status": "error", "error": err.Error()}
	}
	return result
}

// HandleIntegrityCheck runs every check and reports each one separately.
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	ctx := c.UserContext()
	report := make(map[string]any)

	missing, err := h.service.CheckExport(ctx)
	report["export"] = section(fiber.Map{"status": "ok", "missing": missing}, err)
	device, err := h.service.CheckDevice()
	report["device"] = section(device, err)
	schema, err := h.service.CheckSchema(ctx)
	report["schema"] = section(fiber.Map{"status": "ok", "missing": schema}, err)
	library, err := h.service.CheckLibrary(ctx)
	report["library"] = section(library, err)

	return c.JSON(report)
}

// HandleExportCheck checks the server export documents.
func (h *Handler) HandleExportCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	missing, err := h.service.CheckExport(c.UserContext())
	if err != nil {
		l.Error("Export check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if len(missing) > 0 {
		l.Warn("Missing export documents", zap.Strings("missing", missing))
	}
	return c.JSON(fiber.Map{
		"status":  "checked",
		"missing": missing,
	})
}

// HandleDeviceCheck checks and optionally creates the device media root.
func (h *Handler) HandleDeviceCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	fix := c.QueryBool("fix", false)

	report, err := h.service.CheckDevice()
	if err != nil {
		l.Error("Device check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if !report.Exists && fix {
		l.Info("Creating device root", zap.String("root", report.Root))
		if err := h.service.FixDevice(); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to create device root",
				"details": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "fixed",
			"root":   report.Root,
		})
	}
	return c.JSON(report)
}

// HandleSchemaCheck checks the library table columns.
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	missing, err := h.service.CheckSchema(c.UserContext())
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"matched": len(missing) == 0,
		"missing": missing,
	})
}

// HandleLibraryCheck checks the snapshot invariants.
func (h *Handler) HandleLibraryCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckLibrary(c.UserContext())
	if err != nil {
		l.Error("Library check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if report.OriginlessAssets > 0 {
		l.Warn("Assets without origin found", zap.Int64("count", report.OriginlessAssets))
	}
	return c.JSON(report)
}
