// Package afrigene embeds the portal's templates and static files.
package afrigene

import "embed"

// In dev mode the portal reads these from disk so edits show up without a rebuild.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
