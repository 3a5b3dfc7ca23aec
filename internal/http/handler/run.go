package handler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"linkbatch/internal/model"
	"linkbatch/internal/service"
)

// SubmitRun handles run submission (multipart/form-data).
//
// Fields: file (required), platform (required: Instagram|TikTok),
// batch_size (optional, 1-500), column (optional explicit link column).
// The archive is streamed back as an attachment; when the run was also
// published to object storage and the client accepts JSON, a JSON body
// with the presigned download URL is returned instead.
func SubmitRun(svc service.RunService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		platform, ok := model.ParsePlatform(c.FormValue("platform"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PLATFORM",
				fmt.Sprintf("platform must be one of %v", model.Platforms()))
		}

		// A zero batchSize means "field absent" to the service (it applies
		// the default), so a present field must be range-checked here.
		batchSize := 0
		if v := c.FormValue("batch_size"); v != "" {
			batchSize, err = strconv.Atoi(v)
			if err != nil || batchSize < service.MinBatchSize || batchSize > service.MaxBatchSize {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BATCH_SIZE",
					fmt.Sprintf("batch_size must be an integer between %d and %d", service.MinBatchSize, service.MaxBatchSize))
			}
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		res, err := svc.Run(c.UserContext(), service.RunInput{
			Reader:    f,
			Filename:  fh.Filename,
			Platform:  platform,
			BatchSize: batchSize,
			Column:    c.FormValue("column"),
		})
		if err != nil {
			return mapRunError(c, err)
		}

		if res.DownloadURL != "" && strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
			return c.JSON(res)
		}

		c.Set("X-Total-Links", strconv.Itoa(res.Stats.TotalLinks))
		c.Set("X-Num-Batches", strconv.Itoa(res.Stats.NumBatches))
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", res.ArchiveName))
		c.Set(fiber.HeaderContentType, "application/zip")
		return c.Send(res.Archive)
	}
}

// InspectFile handles pre-run inspection of an uploaded table: columns,
// auto-detected link column and counts. Drives manual column selection.
func InspectFile(svc service.RunService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		insp, err := svc.Inspect(c.UserContext(), f, fh.Filename)
		if err != nil {
			return mapRunError(c, err)
		}
		return c.JSON(insp)
	}
}
