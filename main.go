/*
Runs one of the demos. The demo and window come from a toml config file;
-demo overrides the file.
*/
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/vkdemos/demos"
	"github.com/spaghettifunk/vkdemos/engine"
	"github.com/spaghettifunk/vkdemos/engine/core"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the toml config file")
	demoName := flag.String("demo", "", "demo to run, overrides the config")
	flag.Parse()

	cfg, err := engine.LoadConfig(*configPath)
	if err != nil {
		core.LogFatal("%+v", err)
	}
	if *demoName != "" {
		cfg.Demo = *demoName
		if err := cfg.Validate(); err != nil {
			core.LogFatal("%+v", err)
		}
	}

	game, err := demos.New(cfg.Demo)
	if err != nil {
		core.LogFatal("%+v", err)
	}

	e, err := engine.New(cfg, game)
	if err != nil {
		core.LogFatal("%+v", err)
	}

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		core.LogFatal("%+v", err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// the render loop owns the device, so a signal only asks it to stop
	go func() {
		<-sigCh
		e.Stop()
	}()

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %v", err)
	}
	if runErr != nil {
		core.LogFatal("%+v", runErr)
	}
}
