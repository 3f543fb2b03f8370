// Package main runs the finch sidecar: a refresh-ahead cache that
// keeps short-lived signed URLs valid for local consumers.
//
//	@title			Finch Signed URL Cache API
//	@version		1.0
//	@description	Refresh-ahead cache for short-lived signed URLs
//	@host			localhost:8080
//	@BasePath		/
//	@schemes		http https
package main

import (
	"go.uber.org/fx"

	_ "github.com/sp3dr4/finch/docs"
	finchFX "github.com/sp3dr4/finch/internal/fx"
)

func main() {
	fx.New(finchFX.HTTPServerModules).Run()
}
