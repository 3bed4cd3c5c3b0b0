package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/mdlinkcheck/internal/cache"
	"git.home.luguber.info/inful/mdlinkcheck/internal/errors"
)

// CacheCmd groups cache maintenance subcommands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove every cached external link result"`
}

// CacheClearCmd empties the persistent cache.
type CacheClearCmd struct {
	Path string `help:"Cache database path (default: configured cache path)"`
}

func (c *CacheClearCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	path := c.Path
	if path == "" {
		path = cfg.Cache.Path
	}

	store, err := cache.Open(path, cfg.Cache.TTLDuration(), cfg.Cache.FailureTTLDuration())
	if err != nil {
		return errors.CacheError("open", err)
	}
	defer func() { _ = store.Close() }()

	n, err := store.Clear(context.Background())
	if err != nil {
		return errors.CacheError("clear", err)
	}
	_, _ = fmt.Fprintf(g.out(), "Removed %d cached result(s) from %s\n", n, path)
	return nil
}
