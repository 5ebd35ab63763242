package web

import (
	"embed"
)

// static holds the embedded preview page.
//
//go:embed static/*
var staticFiles embed.FS
