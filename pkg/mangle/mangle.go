// Package mangle is a public shim re-exporting the essential types of
// grafema/internal/mangle, so external tools (custom guarantee authors,
// the CLI's query command) can use the Datalog engine without reaching
// into an internal package.
package mangle

import (
	internal "grafema/internal/mangle"
)

type (
	Engine       = internal.Engine
	Config       = internal.Config
	Fact         = internal.Fact
	QueryResult  = internal.QueryResult
	Persistence  = internal.Persistence
)

var (
	NewEngine     = internal.NewEngine
	DefaultConfig = internal.DefaultConfig
)
