// Package config loads runtime settings.
//
// Values are layered: repository defaults, then an optional YAML file, then
// environment variables (a .env file is loaded into the environment by the
// root command). Command-line flags are applied last by the commands themselves.
//
// Recognised variables:
//
//	ASDSCREEN_API_URL            base URL of the analysis service (REACT_APP_API_URL also accepted)
//	ASDSCREEN_MAX_FILE_SIZE_MB   upload limit in MiB (default 5)
//	ASDSCREEN_REQUEST_TIMEOUT    per-request timeout, Go duration (default 60s)
//	ASDSCREEN_SESSION_TTL        idle browser session lifetime (default 30m)
//	PORT                         listen port for serve (default 8888)
package config
