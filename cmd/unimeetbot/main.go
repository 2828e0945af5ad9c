package main

import (
	"log"

	corecmd "github.com/unimeeting/unimeetbot/core/cmd"
	"github.com/unimeeting/unimeetbot/internal/app"
	"github.com/unimeeting/unimeetbot/internal/config"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
