// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Sources

Settings are resolved in order, first match wins:

 1. command-line flags
 2. environment variables (a .env file is loaded first when present)
 3. the YAML file named by -c or CONFIG_FILE
 4. defaults

# CLI Flags

	-p                  Server port
	-d                  Database URL
	-t                  Database type (sqlite or postgres)
	-c                  YAML config file
	-env-file           dotenv file
	-admin-salt         Admin key salt
	-jwt-secret         Member token secret
	-token-ttl          Member token lifetime
	-acceptance-period  Nominee response window after nominations close
	-site-url           Public URL used in notice links
	-workers            Notification workers
	-tz                 Election time zone

# Environment Variables

	PORT, DATABASE_URL, DATABASE_TYPE, ADMIN_KEY_SALT, JWT_SECRET,
	TOKEN_TTL, ACCEPTANCE_PERIOD, SITE_URL, WORKERS, TIME_ZONE,
	S3_BUCKET, S3_REGION, S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY

Durations use Go syntax (168h).

# Validation

ParseFlags returns an error if DATABASE_URL, ADMIN_KEY_SALT or JWT_SECRET is
missing, the database type is unknown or the time zone does not load.
*/
package cliparse
