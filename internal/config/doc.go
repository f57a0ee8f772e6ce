// Package config handles configuration loading for teams-relay.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation of required fields.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from RELAY_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/teams-relay/relay.yaml
//  3. ~/.config/teams-relay/relay.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${RELAY_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/teams-relay/relay.db"
//
// Downstream invocation targets:
//
//	targets:
//	  ai_handler:
//	    url: "http://ai-handler.internal/invoke"
//	  ticketing_handler:
//	    url: "http://ticketing.internal/invoke"
//	  translation_service:
//	    url: "http://translation.internal/invoke"
//	    timeout: "10s"
//
// Channel directory lookup:
//
//	directory:
//	  token_url: "https://login.microsoftonline.com/botframework.com/oauth2/v2.0/token"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// Metrics:
//
//	metrics:
//	  enabled: true
//	  path: "/metrics"
package config
