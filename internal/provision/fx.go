package provision

import "go.uber.org/fx"

// Module exposes the provisioner without invoking it: the schema is
// only applied through the admin surface.
var Module = fx.Module("provision",
	fx.Provide(New),
)
