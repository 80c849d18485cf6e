// Package config loads runtime configuration for the credstack CLI.
//
// Sources, later ones winning: built-in defaults, an optional JSON file
// (--config), then the command's persistent flags. The JSON file accepts
// durations as strings like "10s":
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "request_timeout": "10s",
//	  "session_file": "/home/me/.config/credstack/session.db"
//	}
package config
