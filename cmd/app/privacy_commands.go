package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/piivault/cmd/app/commands"
	"github.com/allisson/piivault/internal/app"
	"github.com/allisson/piivault/internal/config"
)

func getPrivacyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "submit-deletion-request",
			Usage: "Submit a right-to-be-forgotten request for a subject",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "subject-id",
					Aliases:  []string{"s"},
					Usage:    "Subject UUID to erase",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "actor",
					Aliases: []string{"a"},
					Value:   "cli",
					Usage:   "Actor recorded in the audit ledger",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				deletionRequestUC, err := container.DeletionRequestUseCase()
				if err != nil {
					return err
				}

				return commands.RunSubmitDeletionRequest(
					ctx,
					deletionRequestUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("subject-id"),
					cmd.String("actor"),
				)
			},
		},
		{
			Name:  "process-deletion-requests",
			Usage: "Drain one batch of pending deletion requests and exit",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				worker, err := container.DeletionWorker()
				if err != nil {
					return err
				}

				return commands.RunProcessDeletionRequests(
					ctx,
					worker,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "export-subject",
			Usage: "Export the full data access bundle for a subject",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "subject-id",
					Aliases:  []string{"s"},
					Usage:    "Subject UUID to export",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "actor",
					Aliases: []string{"a"},
					Value:   "cli",
					Usage:   "Actor recorded in the audit ledger",
				},
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "File path for the export payload (default: stdout)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				exportUC, err := container.ExportUseCase()
				if err != nil {
					return err
				}

				return commands.RunExportSubject(
					ctx,
					exportUC,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("subject-id"),
					cmd.String("actor"),
					cmd.String("output"),
				)
			},
		},
	}
}
