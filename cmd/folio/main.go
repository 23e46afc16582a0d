package main

import (
	"github.com/smallbiznis/folio/internal/auth/session"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/draft"
	"github.com/smallbiznis/folio/internal/observability"
	"github.com/smallbiznis/folio/internal/providers"
	"github.com/smallbiznis/folio/internal/provision"
	"github.com/smallbiznis/folio/internal/ratelimit"
	"github.com/smallbiznis/folio/internal/server"
	"github.com/smallbiznis/folio/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		clock.Module,

		draft.Module,
		session.Module,
		ratelimit.Module,
		providers.Module,
		provision.Module,

		server.Module,
	)

	app.Run()
}
