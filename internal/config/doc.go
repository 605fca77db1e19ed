// Package config loads readshelf's settings.
//
// # Resolution Order
//
//  1. Defaults
//  2. The TOML file (~/.config/readshelf/config.toml unless a path is given)
//  3. The dotenv file passed to Load, if it exists
//  4. The process environment
//
// A missing config file or dotenv file is not an error.
//
// # TOML Format
//
//	api_url = "https://books.example.com"
//	token = "..."
//	log_dir = "~/.local/share/readshelf/logs"
//	requests_per_second = 5
//	optimistic_add = false
//
// Every field is optional. Tilde expansion is applied to log_dir.
//
// # Environment
//
//   - READSHELF_API_URL overrides api_url
//   - READSHELF_TOKEN overrides token
//   - READSHELF_OPTIMISTIC_ADD overrides optimistic_add (strconv.ParseBool)
//
// Blank variables are ignored.
package config
