package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"go.uber.org/zap"
	"scrm.ca/trolley/mode"
	"scrm.ca/trolley/route"
	"scrm.ca/trolley/sim"
	"scrm.ca/trolley/sound"
	"scrm.ca/trolley/ui"
	"scrm.ca/trolley/web"
)

func main() {
	defer zap.S().Sync()
	level := zap.LevelFlag("log-level", zap.InfoLevel, "set log level")
	modeFlag := flag.String("mode", "easy", "operating mode: easy, start-stop, or full")
	routeFile := flag.String("route", "", "route YAML file (default: built-in museum loop)")
	duration := flag.Duration("duration", 10*time.Minute, "length of the route recording at speed 1.0")
	addr := flag.String("addr", "0.0.0.0:8001", "web listen address")
	soundDir := flag.String("sounds", "", "sound sample directory (empty: silent)")
	logFile := flag.String("log-file", "trolley.log", "log destination (the console owns the terminal)")
	flag.Parse()
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(*level)
	cfg.OutputPaths = []string{*logFile}
	cfg.ErrorOutputPaths = []string{*logFile}
	dev, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	zap.ReplaceGlobals(dev)

	kind, err := mode.ParseKind(*modeFlag)
	if err != nil {
		zap.S().Fatalf("%s", err)
	}

	r := route.Default()
	if *routeFile != "" {
		r, err = route.Load(*routeFile)
		if err != nil {
			zap.S().Fatalf("%s", err)
		}
	}

	var snd sound.Player = sound.Null{}
	if *soundDir != "" {
		snd, err = sound.LoadBeep(*soundDir)
		if err != nil {
			zap.S().Fatalf("load sounds: %s", err)
		}
	}

	driver := sim.NewDriver(sim.Config{
		Mode:      kind,
		Route:     r,
		Sound:     snd,
		Transport: sim.NewVirtualTransport(*duration, nil),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.S().Infof("starting web on %s…", *addr)
	go func() {
		err := http.ListenAndServe(*addr, web.NewServer(driver))
		zap.S().Fatalf("web: %s", err)
	}()

	zap.S().Infof("starting simulation…")
	go driver.Run(ctx)

	err = ui.Run(ctx, driver)
	if err != nil {
		zap.S().Fatalf("console: %s", err)
	}
}
