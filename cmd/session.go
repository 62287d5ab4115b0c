package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/yato-cli/yato/anilist"
	"github.com/yato-cli/yato/aniskip"
	"github.com/yato-cli/yato/config"
	"github.com/yato-cli/yato/internal/sync"
	"github.com/yato-cli/yato/jikan"
	"github.com/yato-cli/yato/log"
	"github.com/yato-cli/yato/override"
	"github.com/yato-cli/yato/player"
	"github.com/yato-cli/yato/presence"
	"github.com/yato-cli/yato/progress"
	"github.com/yato-cli/yato/prompt"
	"github.com/yato-cli/yato/provider"
	"github.com/yato-cli/yato/provider/custom"
	"github.com/yato-cli/yato/watch"
	"github.com/yato-cli/yato/where"
)

func interruptible() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func newAnilist(cfg config.Config) *anilist.Client {
	client := anilist.New()
	client.ShowAdult = cfg.Anilist.ShowAdult
	return client
}

func newRegistry() (*provider.Registry, error) {
	registry := provider.NewRegistry()
	languages, err := custom.Discover(registry)
	if err != nil {
		return nil, fmt.Errorf("discover providers: %w", err)
	}
	log.Infof("providers: %v", languages)
	return registry, nil
}

// runSession plays media starting after completed episodes.
func runSession(ctx context.Context, cfg config.Config, client *anilist.Client, media *anilist.Media, completed int, syncing bool) error {
	if err := checkPlayer(cfg.Player.Program); err != nil {
		return err
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	store, err := progress.Load(where.Progress())
	if err != nil {
		return err
	}

	var broadcaster presence.Broadcaster = presence.Nop{}
	if cfg.Presence.Enable {
		discord := presence.NewDiscord(cfg.Presence.ClientID)
		defer func() {
			if err := discord.Close(); err != nil {
				log.Warnf("closing presence: %v", err)
			}
		}()
		broadcaster = discord
	}

	deps := watch.Deps{
		Launcher:  watch.SpawnLauncher{Options: player.Options{Program: cfg.Player.Program, Args: cfg.Player.Args}},
		Resolver:  registry,
		Skips:     watch.SkipSourceFunc(aniskip.Fetch),
		Fillers:   jikan.New(),
		Tracker:   client,
		Progress:  store,
		Overrides: override.Open(where.Overrides()),
		Prompt:    prompt.New(),
		Presence:  broadcaster,
		Queue:     sync.NewQueue(where.Queue()),
	}

	session := watch.NewSession(media, completed, cfg, syncing)
	log.Infof("session: %s from episode %d (syncing=%t)", session.Title, completed+1, syncing)
	return watch.New(cfg, deps, session).Run(ctx)
}
