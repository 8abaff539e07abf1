// Package file provides the TOML configuration layer. A partial
// config.toml overrides only the settings it names; everything else
// keeps the domain defaults.
package file
