// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package supervisor runs the long-lived parts of "wayfarer serve" under a
suture v4 supervisor tree.

	RootSupervisor ("wayfarer")
	├── ArtifactsSupervisor ("artifacts-layer")
	│   └── RebuildService (cron-scheduled artifact rebuilds)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (admin endpoints)

Crashed services restart with backoff; a failing layer does not stop the
other. Supervisor events are logged through sutureslog, which takes a
*slog.Logger; logging.NewSlogLogger bridges it to zerolog.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddArtifactService(services.NewRebuildService(manager, rebuildCfg, logger))
	tree.AddAPIService(services.NewHTTPServerService(server, services.HTTPServiceConfig{Addr: ":8089"}, logger))
	return tree.Serve(ctx)
*/
package supervisor
