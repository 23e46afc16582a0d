package draft

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/draft/devicestore"
	"github.com/smallbiznis/folio/internal/draft/migration"
	"github.com/smallbiznis/folio/internal/draft/probe"
	"github.com/smallbiznis/folio/internal/draft/remotestore"
	"github.com/smallbiznis/folio/internal/draft/service"
	"go.uber.org/fx"
)

// Module wires the draft stores, the provisioning probe, the migrator
// and the facade into the application graph.
var Module = fx.Module("draft",
	fx.Provide(
		newSnowflakeNode,
		probe.New,
		devicestore.New,
		remotestore.New,
		migration.New,
		service.New,
	),
)

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
