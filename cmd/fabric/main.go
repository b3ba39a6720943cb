package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "embed"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pkanduri1/fabric-platform-sub001/internal/app"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/component/source"
	jobdef "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config/jobdef"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// embeddedConfig embeds the content of the application's YAML configuration file.
// This file is used to load configuration at application startup.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// settlementDefinition embeds the daily settlement job definition. Additional
// jobs are embedded the same way and appended to the definition list below.
//
//go:embed resources/jobs/daily_settlement.yaml
var settlementDefinition []byte

// demoSeedParams carries the in-memory source reader when the application runs
// without a configured database. In SQL mode the reader is absent and seeding
// is skipped.
type demoSeedParams struct {
	fx.In

	Reader *source.InMemorySourceReader `optional:"true"`
}

// seedDemoSource loads a hand-full of settlement records into the in-memory
// source so the default configuration produces an output file without any
// external infrastructure. The seed filters match the selectors of the
// daily_settlement.yaml definition.
func seedDemoSource(p demoSeedParams) {
	if p.Reader == nil {
		return
	}
	logger.Infof("Seeding demo source records for the in-memory reader.")

	p.Reader.Seed("record_type = 'SETTLE'", []model.Payload{
		{"account_number": "10024680", "principal": "420.00", "interest": "1.25", "amount_sign": "+"},
		{"account_number": "10012345", "principal": "1250.00", "interest": "3.75", "amount_sign": "+"},
		{"account_number": "10067890", "principal": "87.10", "interest": "0.40", "amount_sign": "-"},
	})
	p.Reader.Seed("record_type = 'FEE'", []model.Payload{
		{"account_number": "10012345", "fee_amount": "12.50", "fee_code": "WIRE", "fee_description": "Wire transfer fee"},
		{"account_number": "10067890", "fee_amount": "3.00", "fee_code": "STMT", "fee_description": "Statement fee"},
	})
	p.Reader.Seed("record_type = 'ADJUST'", []model.Payload{
		{"account_number": "10024680", "adjustment_amount": "-15.00"},
	})
}

// main is the entry point of the application.
// It manages the startup of the batch application, signal handling, and execution of the Fx container.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Signal handling for graceful shutdown (e.g., Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the job...", sig)
		cancel()
	}()

	// Get the path to the .env file from environment variables. Use ".env" as default if not set.
	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	definitions := []jobdef.DefinitionBytes{settlementDefinition}

	// jobDone is closed by the completion listener once the launched execution
	// reaches a terminal status.
	jobDone := make(chan struct{})

	// Run the application
	app.RunApplication(ctx, envFilePath, embeddedConfig, definitions, jobDone,
		fx.Invoke(seedDemoSource))
	// Exit the process with exit code 0 after application execution completes
	os.Exit(0)
}
