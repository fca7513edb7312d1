/*
Opens a window and spins the triangle until Escape is pressed or the
window is closed.
*/
package main

import (
	"flag"
	"os"

	"github.com/spaghettifunk/phase/engine"
	"github.com/spaghettifunk/phase/engine/config"
	"github.com/spaghettifunk/phase/engine/core"
	"github.com/spaghettifunk/phase/engine/platform"
	"github.com/spaghettifunk/phase/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	watch := flag.Bool("watch", true, "reload the [cycle] section when the config file changes")
	flag.Parse()

	if err := run(*configPath, *watch); err != nil {
		core.LogError("%s", err)
		os.Exit(1)
	}
}

func run(configPath string, watch bool) error {
	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	p := platform.New()
	if err := p.Startup(cfg.Application.Name, 100, 100, cfg.Application.Width, cfg.Application.Height); err != nil {
		return err
	}
	defer p.Shutdown()

	width, height := p.FramebufferSize()
	e, err := engine.Init(p, width, height, cfg)
	if err != nil {
		return err
	}
	p.OnResize(e.SignalResize)

	var updates <-chan *config.Config
	if watch {
		w, err := config.Watch(configPath)
		if err != nil {
			core.LogWarn("config hot reload disabled: %s", err)
		} else {
			defer w.Close()
			updates = w.Updates()
		}
	}

	return testbed.NewHost(p, e, cfg, updates).Run()
}
