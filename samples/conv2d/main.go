package main

import (
	"github.com/sarchlab/convsim/config"
	"github.com/tebeka/atexit"
)

func main() {
	cfg := config.Default()

	closer, err := config.SetupLogging(cfg.Log)
	if err != nil {
		panic(err)
	}
	atexit.Register(func() { closer.Close() })

	p, err := config.MakePlatformBuilder().
		WithConfig(cfg).
		Build("TB")
	if err != nil {
		panic(err)
	}

	if err := p.Run(); err != nil {
		panic(err)
	}

	atexit.Exit(0)
}
