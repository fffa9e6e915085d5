package main

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hadronproject/hadron/internal/common"
	"github.com/hadronproject/hadron/internal/eventingester/datagen"
)

func main() {
	common.ConfigureLogging()
	if err := rootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var rows int
	var out string
	var seed int64

	cmd := &cobra.Command{
		Use:   "datagen",
		Short: "Generates synthetic collision event files for the event ingester",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			g := datagen.NewGenerator(seed)
			if err := g.WriteFile(out, rows); err != nil {
				return err
			}
			log.Infof("Generated %d events in %s", rows, out)
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 10000, "number of events to generate")
	cmd.Flags().StringVar(&out, "out", "data/test_events.csv", "output file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	return cmd
}
