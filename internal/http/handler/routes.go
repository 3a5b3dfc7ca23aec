package handler

import (
	"github.com/gofiber/fiber/v2"

	"linkbatch/internal/service"
	"linkbatch/internal/template"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal; the pipeline lives in the service layer.
func RegisterRoutes(app *fiber.App, svc service.RunService, reg *template.Registry) {
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
  <title>Link Batch Processor API</title>
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

	app.Get("/health", HealthCheck(reg))
	app.Get("/healthz", LivenessProbe())

	// Processing runs
	app.Post("/runs", SubmitRun(svc))
	app.Post("/runs/inspect", InspectFile(svc))

	// Template provisioning
	app.Get("/templates", ListTemplates(reg))
	app.Put("/templates/:platform", UploadTemplate(reg))
}
