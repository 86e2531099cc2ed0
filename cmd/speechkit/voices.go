package main

import (
	"context"
	"fmt"
	"io"

	"github.com/book-expert/speechkit/internal/azure"
	"github.com/book-expert/speechkit/internal/catalog"
	"github.com/book-expert/speechkit/internal/core"
	"github.com/urfave/cli/v3"
)

func voicesCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "voices",
		Usage: "List the synthesis voices available in the configured region",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "locale", Usage: "Only list voices for this locale, e.g. en-US"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := bootstrap(c, "speechkit-voices.log")
			if err != nil {
				return err
			}
			defer closeLogger(log)

			speechConfig, err := azure.NewSynthesisConfig(cfg)
			if err != nil {
				return err
			}
			defer speechConfig.Close()

			region := cfg.Speech.Region
			if region == "" {
				region = cfg.Speech.Endpoint
			}

			var lister core.VoiceLister = azure.NewVoiceLister(speechConfig)

			err = catalog.ShowVoices(ctx, lister, out, region, c.String("locale"))
			if err != nil {
				log.Error("Failed to list voices: %v", err)
				fmt.Fprintf(out, "Could not retrieve voices; check key/region/network.\nDetails: %v\n", err)

				return err
			}

			return nil
		},
	}
}
