// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package config loads the Wayfarer configuration.

# Configuration Sources

Configuration is layered with koanf, later sources overriding earlier ones:

  - Built-in defaults (defaultConfig)
  - An optional YAML file: the path in WAYFARER_CONFIG, else the first of
    ./wayfarer.yaml, ./wayfarer.yml, /etc/wayfarer/wayfarer.yaml
  - WAYFARER_* environment variables from an explicit mapping table

Variables not in the table are ignored. Comma-separated values are split
for slice settings such as WAYFARER_CATALOG.

# Sections

  - catalog: place catalog files (JSON or YAML)
  - feedback: feedback store backend (memory, badger, sqlite) and path
  - artifacts: artifact store backend (memory, file, redis)
  - recommend: ranking weights, re-ranking, cache, artifact build parameters
    and evaluation defaults
  - llm: optional structured query extractor
  - server: admin HTTP server of the serve command
  - schedule: cron spec for periodic rebuilds
  - logging: level, format and caller annotation

# Example

	# wayfarer.yaml
	catalog:
	  paths: [places.yaml]
	feedback:
	  backend: sqlite
	  path: /var/lib/wayfarer/feedback.db
	artifacts:
	  backend: redis
	  redis:
	    addr: redis:6379
	recommend:
	  weights: {content: 0.4, cf: 0.4, cluster: 0.1, global: 0.1}
	schedule:
	  rebuild: "@every 6h"

Validate runs struct tag validation plus cross-field checks: backend paths,
the LLM endpoint URL, the cron spec and the ranking weights.
*/
package config
