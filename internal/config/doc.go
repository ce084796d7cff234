// Package config provides configuration structures and utilities for citetree.
// It defines the resolved crawl parameters (seeds, depth, direction, limits),
// the YAML config-file loader, and the XDG-based default database location.
//
// Resolution order is defaults, then the config file, then CLI flags, each
// overriding the previous field-by-field. The result is validated once and
// passed through the application immutably.
package config
