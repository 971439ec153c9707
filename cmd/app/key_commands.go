package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/piivault/cmd/app/commands"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-master-key",
			Usage: "Generate a new 32-byte master key for envelope encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "key-id",
					Aliases: []string{"k"},
					Usage:   "Identifier for the master key (default: master-key-YYYY-MM-DD)",
				},
				&cli.StringFlag{
					Name:  "kms-provider",
					Usage: "KMS provider: gcpkms, awskms, azurekeyvault, hashivault, localsecrets",
				},
				&cli.StringFlag{
					Name:  "kms-key-uri",
					Usage: "KMS key URI used to encrypt the master key before output",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunCreateMasterKey(
					ctx,
					commands.DefaultIO().Writer,
					cmd.String("key-id"),
					cmd.String("kms-provider"),
					cmd.String("kms-key-uri"),
				)
			},
		},
	}
}
