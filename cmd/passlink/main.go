package main

import (
	"context"
	"log"
	"os"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/urfave/cli/v3"

	"github.com/ericfisherdev/passlink/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:   "passlink",
		Usage:  "Link vaccine passes to Telegram accounts and run check-in polls",
		Flags:  config.Flags(),
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
