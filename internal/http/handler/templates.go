package handler

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"linkbatch/internal/model"
	"linkbatch/internal/template"
)

// ListTemplates reports each platform's template state: target sheet,
// source (bundled path or upload), and whether it is loaded.
func ListTemplates(reg *template.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"templates": reg.List()})
	}
}

// UploadTemplate installs an uploaded workbook as the in-memory template
// override for a platform. The override lives only for the process
// lifetime; bundled files on disk are never touched.
func UploadTemplate(reg *template.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		platform, ok := model.ParsePlatform(c.Params("platform"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PLATFORM",
				fmt.Sprintf("platform must be one of %v", model.Platforms()))
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

		if err := reg.SetOverride(platform, data); err != nil {
			if errors.Is(err, template.ErrSheetNotFound) {
				return writeError(c, fiber.StatusUnprocessableEntity, "SHEET_NOT_FOUND", err.Error())
			}
			return writeError(c, fiber.StatusBadRequest, "INVALID_TEMPLATE", err.Error())
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"templates": reg.List()})
	}
}
