package eventingester

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/hadronproject/hadron/internal/common"
	"github.com/hadronproject/hadron/internal/common/app"
	"github.com/hadronproject/hadron/internal/common/database"
	"github.com/hadronproject/hadron/internal/common/hadroncontext"
	"github.com/hadronproject/hadron/internal/eventingester/configuration"
	"github.com/hadronproject/hadron/internal/eventingester/eventdb"
	"github.com/hadronproject/hadron/internal/eventingester/metrics"
	"github.com/hadronproject/hadron/internal/eventingester/pipeline"
)

// Run will create a pipeline that reads collision events from the configured input
// files and writes the high-energy ones to the event database. It runs until every
// input has been drained or a SIGTERM is received.
func Run(config *configuration.EventIngesterConfiguration) {
	if err := config.Validate(); err != nil {
		panic(errors.WithMessage(err, "Invalid configuration"))
	}
	m := metrics.Get()

	log.Infof("Opening connection pool to postgres")
	db, err := database.OpenPgxPool(config.Postgres.Connection)
	if err != nil {
		panic(errors.WithMessage(err, "Error opening connection to postgres"))
	}
	eventDb := eventdb.NewEventDb(db, m)
	defer eventDb.Close()

	if err := eventdb.Migrate(context.Background(), db); err != nil {
		panic(errors.WithMessage(err, "Error updating database schema"))
	}

	shutdownMetricServer := common.ServeMetrics(config.MetricsPort)
	defer shutdownMetricServer()

	ingester, err := pipeline.NewIngestionPipeline(
		pipeline.Config{
			ReaderCount:     config.ReaderCount,
			ConsumerCount:   config.ConsumerCount,
			BufferCapacity:  config.BufferCapacity,
			BatchSize:       config.BatchSize,
			EnergyThreshold: config.EnergyThresholdGev,
			OfferTimeout:    config.OfferTimeout,
			TakeTimeout:     config.TakeTimeout,
			AbortGrace:      config.AbortGrace,
		},
		config.InputFiles,
		eventDb,
		m,
	)
	if err != nil {
		panic(errors.WithMessage(err, "Error creating ingestion pipeline"))
	}

	ctx := hadroncontext.Ctx(app.CreateContextWithShutdown())
	if _, err := ingester.Run(ctx); err != nil {
		ctx.Log.WithError(err).Error("Ingestion pipeline aborted")
		return
	}

	stats, err := eventDb.Statistics(hadroncontext.Background())
	if err != nil {
		ctx.Log.WithError(err).Warn("Could not read event store statistics")
		return
	}
	ctx.Log.Infof("Event store statistics: %d events, avg %.2f GeV, max %.2f GeV, min %.2f GeV, %d high-energy",
		stats.TotalEvents, stats.AvgEnergy, stats.MaxEnergy, stats.MinEnergy, stats.HighEnergyCount)
}
