package webuiHandler

import (
	"bytes"
	"embed"
	"html/template"

	"CutoutDemo/internal/api/webui"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

func render(ctx *fiber.Ctx, status int, data webui.PageData) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return ctx.Status(status).Send(buf.Bytes())
}
