// Package config loads ecoshop's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/ecoshop/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. Missing or empty fields keep their defaults
//
// # TOML Format
//
//	api_url        = "http://127.0.0.1:8000/api"
//	media_url      = "http://127.0.0.1:8000/media"
//	cloudinary     = ""
//	store_path     = "~/.local/share/ecoshop/store.db"
//	log_path       = "~/.local/share/ecoshop/ecoshop.log"
//	log_level      = "info"
//	request_timeout_seconds = 10
//	poll_seconds   = 15
//
// An empty cloudinary cloud name makes image URLs resolve against media_url.
// Tilde expansion is applied to store_path and log_path.
//
// Missing config files are NOT an error. ecoshop works against a local
// development API without any configuration.
package config
