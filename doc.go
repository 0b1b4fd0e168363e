// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the board elections API server.

The server runs a community's board elections: it decides which members are
eligible, tracks nominations through acceptance, collects ballots, and
allocates district and at-large seats once voting closes.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... go run .

Or with flags:

	go run . -p 3318 -d "postgres://..."

A .env file and a YAML config file (-c or CONFIG_FILE) are read as well; flags win
over the environment, which wins over the file.

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string or SQLite path
  - ADMIN_KEY_SALT (--admin-salt): Secret for admin key HMAC
  - JWT_SECRET (--jwt-secret): Secret for member bearer tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres or sqlite
  - ACCEPTANCE_PERIOD: time nominees have to respond after nominations close
  - SITE_URL: base for links in notices
  - S3_BUCKET and the other S3_* settings: nominee photo storage
  - TIME_ZONE (--tz): zone used for calendar dates
  - WORKERS: notification worker count

# Architecture

  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, member auth
  - eligibility: EligibilityEvaluator
  - nomination: nomination state machine
  - seats: seat allocation and results
  - notify: job queue, workers and notices
  - photos: presigned nominee photo uploads
  - store: SQL persistence
  - models: domain and request/response types
  - auth: admin keys and member tokens
  - db: connection and migrations
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
