package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/joho/godotenv"

	"github.com/johnny-rice/ingestr/internal/data"
	"github.com/johnny-rice/ingestr/internal/jsonlog"
	"github.com/johnny-rice/ingestr/internal/vcs"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
)

var (
	version = vcs.Version()
)

type cfg struct {
	port           int
	env            string
	maxObjectLoads int
	cloudWatch     struct {
		logGroupName  string
		logStreamName string
	}
}

type application struct {
	config           cfg
	ingestionMap     map[string]data.Ingestion
	mu               sync.Mutex
	logger           *jsonlog.Logger
	wg               sync.WaitGroup
	cloudWatchClient *cloudwatchlogs.Client
}

func main() {
	var cfg cfg

	_ = godotenv.Load()

	flag.IntVar(&cfg.port, "port", 9000, "API server port")
	flag.StringVar(&cfg.env, "env", "development", "Environment (development|staging|production)")
	flag.IntVar(&cfg.maxObjectLoads, "max-object-loads", 10, "Maximum concurrent object loads per ingestion")
	flag.StringVar(&cfg.cloudWatch.logGroupName, "cloudwatch-log-group", os.Getenv("CLOUDWATCH_LOG_GROUP"), "CloudWatch log group (empty disables log shipping)")

	sourceURI := flag.String("source-uri", "", "Source URI for a one-shot ingestion")
	sourceTable := flag.String("source-table", "", "Source table (<bucket_name>/<file_glob>) for a one-shot ingestion")
	destURI := flag.String("dest-uri", "", "Destination URI for a one-shot ingestion")
	destTable := flag.String("dest-table", "", "Destination table for a one-shot ingestion")
	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := jsonlog.New(os.Stdout, jsonlog.LevelInfo)

	expvar.NewString("version").Set(version)

	expvar.Publish("goroutines", expvar.Func(func() interface{} {
		return runtime.NumGoroutine()
	}))

	expvar.Publish("timestamp", expvar.Func(func() interface{} {
		return time.Now().Unix()
	}))

	app := &application{
		config:       cfg,
		logger:       logger,
		ingestionMap: make(map[string]data.Ingestion),
	}

	if cfg.cloudWatch.logGroupName != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatalf("Could not load aws default config <- %v", err)
		}

		ip, err := getLocalIPAddress()
		if err != nil {
			log.Fatalf("Error getting local IP address: %v", err)
		}
		app.config.cloudWatch.logStreamName = ip

		app.cloudWatchClient = cloudwatchlogs.NewFromConfig(awsCfg)

		_, err = app.cloudWatchClient.CreateLogGroup(context.Background(), &cloudwatchlogs.CreateLogGroupInput{
			LogGroupName: aws.String(cfg.cloudWatch.logGroupName),
		})
		if err != nil {
			var resourceAlreadyExistsException *types.ResourceAlreadyExistsException
			if !errors.As(err, &resourceAlreadyExistsException) {
				log.Fatalf("CreateLogGroup error: %v", err)
			}
		}

		_, err = app.cloudWatchClient.CreateLogStream(context.Background(), &cloudwatchlogs.CreateLogStreamInput{
			LogGroupName:  aws.String(cfg.cloudWatch.logGroupName),
			LogStreamName: aws.String(app.config.cloudWatch.logStreamName),
		})
		if err != nil {
			var resourceAlreadyExistsException *types.ResourceAlreadyExistsException
			if !errors.As(err, &resourceAlreadyExistsException) {
				log.Fatalf("CreateLogStream error: %v", err)
			}
		}
	}

	if *sourceURI != "" || *sourceTable != "" || *destURI != "" || *destTable != "" {
		err := app.runOnce(*sourceURI, *sourceTable, *destURI, *destTable)
		if err != nil {
			logger.PrintFatal(err, nil)
		}
		os.Exit(0)
	}

	app.putLogEvents(fmt.Sprintf("Starting ingestr on port %v", cfg.port))

	err := app.serve()
	if err != nil {
		logger.PrintFatal(err, nil)
	}
}

// runOnce runs a single ingestion synchronously, for the documented
// command-line invocation.
func (app *application) runOnce(sourceURI, sourceTable, destURI, destTable string) error {
	ingestion, v, err := app.newIngestion(sourceURI, sourceTable, destURI, destTable)
	if err != nil {
		return err
	}
	if !v.Valid() {
		return fmt.Errorf("invalid ingestion request: %+v", v.Errors)
	}

	err = ingestion.Target.Open()
	if err != nil {
		return err
	}
	defer ingestion.Target.Db.Close()

	app.logger.PrintInfo("starting ingestion", map[string]string{
		"source_table":      ingestion.SourceTable.String(),
		"destination_table": ingestion.Target.QualifiedTable(),
	})

	err = app.Run(context.Background(), ingestion)
	if err != nil {
		return err
	}

	var rows int64
	for _, object := range ingestion.Objects {
		rows += object.Rows
	}

	app.logger.PrintInfo("ingestion complete", map[string]string{
		"objects": fmt.Sprintf("%d", len(ingestion.Objects)),
		"rows":    fmt.Sprintf("%d", rows),
	})

	return nil
}
