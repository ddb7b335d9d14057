// Package migrations embeds the schema for every supported dialect, one directory per
// dialect named after it.
package migrations

import (
	"embed"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS
