package main

import (
	"errors"
	"log"
	"os"

	"github.com/danmuck/viaduct/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	flagSet := pflag.NewFlagSet("configgen", pflag.ContinueOnError)
	kind := flagSet.String("kind", "client", "config kind: client|subscriber")
	output := flagSet.String("output", "cmd/viaductctl/config.toml", "output path for config template")
	validate := flagSet.Bool("validate", false, "validate an existing config file")
	input := flagSet.String("input", "cmd/viaductctl/config.toml", "config path for validation")
	force := flagSet.Bool("force", false, "overwrite existing config file")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	if *validate {
		if _, err := config.LoadClientConfig(*input); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated client config at %s", *input)
		return
	}

	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, *output)
}
