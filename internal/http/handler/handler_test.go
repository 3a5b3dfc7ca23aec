package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"linkbatch/internal/loader"
	"linkbatch/internal/model"
	"linkbatch/internal/service"
	serviceMocks "linkbatch/internal/service/mocks"
	"linkbatch/internal/template"
)

// multipartBody builds a multipart form with one file part plus fields.
func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func workbookWithSheet(t *testing.T, sheet string) []byte {
	t.Helper()

	f := excelize.NewFile()
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Post link"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return buf.Bytes()
}

func TestSubmitRun(t *testing.T) {
	mockSvc := new(serviceMocks.MockRunService)
	app := fiber.New()
	app.Post("/runs", SubmitRun(mockSvc))

	t.Run("streams archive", func(t *testing.T) {
		mockSvc.On("Run", mock.Anything, mock.MatchedBy(func(in service.RunInput) bool {
			return in.Platform == model.PlatformInstagram && in.BatchSize == 100 && in.Filename == "links.csv"
		})).Return(&model.RunResult{
			ArchiveName: "Instagram_Batches_20260314_150926.zip",
			Archive:     []byte("zip-bytes"),
			Stats:       model.RunStats{TotalLinks: 250, BatchSize: 100, NumBatches: 3, Column: "URL"},
		}, nil).Once()

		body, ct := multipartBody(t, map[string]string{
			"platform":   "Instagram",
			"batch_size": "100",
		}, "links.csv", []byte("URL\nhttps://example.com\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
		assert.Contains(t, resp.Header.Get("Content-Disposition"), "Instagram_Batches_20260314_150926.zip")
		assert.Equal(t, "250", resp.Header.Get("X-Total-Links"))
		assert.Equal(t, "3", resp.Header.Get("X-Num-Batches"))

		payload, _ := io.ReadAll(resp.Body)
		assert.Equal(t, []byte("zip-bytes"), payload)
	})

	t.Run("json response with presigned url", func(t *testing.T) {
		mockSvc.On("Run", mock.Anything, mock.Anything).Return(&model.RunResult{
			ArchiveName: "TikTok_Batches_20260314_150926.zip",
			Archive:     []byte("zip-bytes"),
			Stats:       model.RunStats{TotalLinks: 5, BatchSize: 100, NumBatches: 1, Column: "URL"},
			DownloadURL: "https://minio.local/presigned",
		}, nil).Once()

		body, ct := multipartBody(t, map[string]string{"platform": "TikTok"},
			"links.csv", []byte("URL\nhttps://example.com\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Accept", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var res model.RunResult
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, "https://minio.local/presigned", res.DownloadURL)
		assert.Equal(t, 1, res.Stats.NumBatches)
	})

	t.Run("file required", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"platform": "Instagram"}, "", nil)

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "FILE_REQUIRED", payload.Error.Code)
	})

	t.Run("invalid platform", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"platform": "YouTube"},
			"links.csv", []byte("URL\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "INVALID_PLATFORM", payload.Error.Code)
	})

	t.Run("non-integer batch size", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{
			"platform":   "Instagram",
			"batch_size": "lots",
		}, "links.csv", []byte("URL\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "INVALID_BATCH_SIZE", payload.Error.Code)
	})

	t.Run("zero batch size", func(t *testing.T) {
		// An explicit 0 must be rejected, not silently replaced by the
		// default batch size.
		body, ct := multipartBody(t, map[string]string{
			"platform":   "Instagram",
			"batch_size": "0",
		}, "links.csv", []byte("URL\nhttps://example.com/a\nhttps://example.com/b\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "INVALID_BATCH_SIZE", payload.Error.Code)
	})

	t.Run("batch size above maximum", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{
			"platform":   "Instagram",
			"batch_size": "501",
		}, "links.csv", []byte("URL\nhttps://example.com\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "INVALID_BATCH_SIZE", payload.Error.Code)
	})

	t.Run("missing column surfaces column list", func(t *testing.T) {
		mockSvc.On("Run", mock.Anything, mock.Anything).
			Return(nil, &loader.MissingColumnError{Columns: []string{"id", "href"}}).Once()

		body, ct := multipartBody(t, map[string]string{"platform": "Instagram"},
			"links.csv", []byte("id,href\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "MISSING_COLUMN", payload.Error.Code)
		assert.Equal(t, []string{"id", "href"}, payload.Error.Columns)
	})

	t.Run("no links", func(t *testing.T) {
		mockSvc.On("Run", mock.Anything, mock.Anything).
			Return(nil, service.ErrNoLinks).Once()

		body, ct := multipartBody(t, map[string]string{"platform": "Instagram"},
			"links.csv", []byte("URL\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "NO_LINKS", payload.Error.Code)
	})

	t.Run("template not found", func(t *testing.T) {
		mockSvc.On("Run", mock.Anything, mock.Anything).
			Return(nil, template.ErrTemplateNotFound).Once()

		body, ct := multipartBody(t, map[string]string{"platform": "TikTok"},
			"links.csv", []byte("URL\nhttps://example.com\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "TEMPLATE_NOT_FOUND", payload.Error.Code)
	})
}

func TestInspectFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockRunService)
	app := fiber.New()
	app.Post("/runs/inspect", InspectFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("Inspect", mock.Anything, mock.Anything, "links.csv").
			Return(&model.Inspection{
				Columns:        []string{"Name", "URL"},
				DetectedColumn: "URL",
				RowCount:       10,
				LinkCount:      9,
			}, nil).Once()

		body, ct := multipartBody(t, nil, "links.csv", []byte("Name,URL\n"))

		req := httptest.NewRequest(http.MethodPost, "/runs/inspect", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var insp model.Inspection
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&insp))
		assert.Equal(t, "URL", insp.DetectedColumn)
		assert.Equal(t, 9, insp.LinkCount)
	})

	t.Run("file required", func(t *testing.T) {
		body, ct := multipartBody(t, nil, "", nil)

		req := httptest.NewRequest(http.MethodPost, "/runs/inspect", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUploadTemplate(t *testing.T) {
	reg := template.NewRegistry(nil)
	app := fiber.New()
	app.Put("/templates/:platform", UploadTemplate(reg))

	t.Run("installs override", func(t *testing.T) {
		body, ct := multipartBody(t, nil, "custom.xlsx", workbookWithSheet(t, "category tt"))

		req := httptest.NewRequest(http.MethodPut, "/templates/TikTok", body)
		req.Header.Set("Content-Type", ct)
		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		_, sheet, err := reg.Resolve(model.PlatformTikTok)
		require.NoError(t, err)
		assert.Equal(t, "category tt", sheet)
	})

	t.Run("wrong sheet", func(t *testing.T) {
		body, ct := multipartBody(t, nil, "custom.xlsx", workbookWithSheet(t, "category ig"))

		req := httptest.NewRequest(http.MethodPut, "/templates/TikTok", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var payload errorPayload
		json.NewDecoder(resp.Body).Decode(&payload)
		assert.Equal(t, "SHEET_NOT_FOUND", payload.Error.Code)
	})

	t.Run("not a workbook", func(t *testing.T) {
		body, ct := multipartBody(t, nil, "custom.xlsx", []byte("junk"))

		req := httptest.NewRequest(http.MethodPut, "/templates/Instagram", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown platform", func(t *testing.T) {
		body, ct := multipartBody(t, nil, "custom.xlsx", workbookWithSheet(t, "category ig"))

		req := httptest.NewRequest(http.MethodPut, "/templates/YouTube", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("degraded without templates", func(t *testing.T) {
		app := fiber.New()
		app.Get("/health", HealthCheck(template.NewRegistry(nil)))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("healthy with a template", func(t *testing.T) {
		reg := template.NewRegistry(nil)
		require.NoError(t, reg.SetOverride(model.PlatformInstagram, workbookWithSheet(t, "category ig")))

		app := fiber.New()
		app.Get("/health", HealthCheck(reg))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
