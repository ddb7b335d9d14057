// Package api provides the reader's JSON API.
//
// It's the outermost layer of the service: it decodes requests, resolves the calling user and
// hands off to the store, the syncer and the retention manager.
package api

import (
	"go.uber.org/fx"
)

var Module = fx.Module("api",
	fx.Provide(
		NewServer,
	),
)
