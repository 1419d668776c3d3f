// Package main is the entry point for comiknet.
package main

import (
	"github.com/comiknet/comiknet/cmd"
	"github.com/comiknet/comiknet/config"
	"github.com/comiknet/comiknet/internal/cache"
	"github.com/comiknet/comiknet/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go func() {
		if err := cache.CollectGarbage(); err != nil {
			log.Warn(err)
		}
	}()

	cmd.Execute()
}
