package main

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/cmd"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/internal/cache"
	"github.com/yato-cli/yato/internal/sync"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/player"
	"github.com/yato-cli/yato/where"
)

// reconcileTimeout bounds the startup replay of failed tracker updates.
const reconcileTimeout = 30 * time.Second

func reconcile() {
	if _, err := anilist.GetToken(); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()

	if _, err := sync.NewQueue(where.Queue()).Reconcile(ctx, anilist.New()); err != nil {
		log.Warnf("sync: %v", err)
	}
}

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	go cache.CollectGarbage()
	if err := player.CleanStale(where.Temp()); err != nil {
		log.Warnf("player: %v", err)
	}
	go reconcile()

	cmd.Execute()
}
