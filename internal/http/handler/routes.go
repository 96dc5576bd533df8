package handler

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/crypto"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/http/middleware"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/service"
	"github.com/ChetanRathod03/Ironclad-Secure-Vault/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// The vault routes require an authenticated actor; health probes do not.
func RegisterRoutes(app *fiber.App, db *sql.DB, vaultSvc service.VaultService, auth fiber.Handler) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	vault := app.Group("/api/v1.0/vault", auth)
	vault.Post("/upload", UploadFile(vaultSvc))
	vault.Get("/files", ListFiles(vaultSvc))
	vault.Get("/search", SearchFiles(vaultSvc))
	vault.Get("/download/:fileId", DownloadFile(vaultSvc))
	vault.Delete("/delete/:fileId", DeleteFile(vaultSvc))
	vault.Get("/audit-logs", ListAuditLogs(vaultSvc))
	vault.Get("/audit-logs/me", ListOwnAuditLogs(vaultSvc))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadFile accepts multipart/form-data with field name "file" and stores
// the payload encrypted, owned by the calling actor.
func UploadFile(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		rec, err := svc.Upload(c.UserContext(), actor, fh.Filename, data)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListFiles returns the records visible to the calling actor.
func ListFiles(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		files, err := svc.List(c.UserContext(), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(files)
	}
}

// SearchFiles filters visible records by filename substring. An empty query
// returns everything the actor can see.
func SearchFiles(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		files, err := svc.Search(c.UserContext(), actor, c.Query("query"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(files)
	}
}

// DownloadFile returns the decrypted content with the original display name.
func DownloadFile(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		id := c.Params("fileId")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		res, err := svc.Download(c.UserContext(), actor, id)
		if err != nil {
			return writeServiceError(c, err)
		}

		// FormatMediaType quotes and, for non-ASCII names, RFC 2231 encodes
		// the filename so display names cannot break the header.
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename})
		if disposition == "" {
			disposition = "attachment"
		}
		c.Set(fiber.HeaderContentDisposition, disposition)
		c.Set(fiber.HeaderContentType, "application/octet-stream")
		return c.Send(res.Data)
	}
}

// DeleteFile removes a file. The service enforces the admin-only rule.
func DeleteFile(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		id := c.Params("fileId")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		if err := svc.Delete(c.UserContext(), actor, id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ListAuditLogs returns the full audit trail; the service enforces admin-only.
func ListAuditLogs(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		entries, err := svc.ListAuditLogs(c.UserContext(), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(entries)
	}
}

// ListOwnAuditLogs returns the calling actor's own trail, any role.
func ListOwnAuditLogs(svc service.VaultService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := middleware.ActorFromCtx(c)
		if !ok {
			return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		}

		entries, err := svc.ListActorAuditLogs(c.UserContext(), actor)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(entries)
	}
}

// writeServiceError translates service-level failures into HTTP responses.
// Internal details (storage paths, key material, backend errors) never reach
// the caller.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyFile):
		return writeError(c, fiber.StatusBadRequest, "EMPTY_FILE", "file is empty")
	case errors.Is(err, service.ErrFilenameRequired):
		return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "file not found")
	case errors.Is(err, service.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "ACCESS_DENIED", "access denied")
	case errors.Is(err, crypto.ErrDecryption):
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	case errors.Is(err, storage.ErrRead), errors.Is(err, storage.ErrWrite):
		return writeError(c, fiber.StatusInternalServerError, "STORAGE_ERROR", "storage unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
