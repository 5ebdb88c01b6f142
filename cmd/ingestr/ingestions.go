package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"golang.org/x/sync/errgroup"

	"github.com/johnny-rice/ingestr/internal/data"
	"github.com/johnny-rice/ingestr/internal/format"
	"github.com/johnny-rice/ingestr/internal/validator"
	"github.com/johnny-rice/ingestr/pkg"
)

func (app *application) getIngestion(id string) (data.Ingestion, bool) {
	app.mu.Lock()
	defer app.mu.Unlock()
	ingestion, ok := app.ingestionMap[id]
	return ingestion, ok
}

func (app *application) setIngestion(ingestion data.Ingestion) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.ingestionMap[ingestion.Id] = ingestion
}

func (app *application) showIngestionHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	id := app.readString(qs, "id", "")

	ingestion, ok := app.getIngestion(id)
	if !ok {
		app.notFoundResponse(w, r)
		return
	}

	err := app.writeJSON(w, http.StatusOK, envelope{"ingestion": ingestion}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// newIngestion parses and validates the four request strings into an
// ingestion ready to run. Parse failures come back as the error; field-level
// problems land on the validator.
func (app *application) newIngestion(sourceURI, sourceTable, destURI, destTable string) (*data.Ingestion, *validator.Validator, error) {
	source, err := data.ParseSourceURI(sourceURI)
	if err != nil {
		return nil, nil, err
	}

	tableRef, err := data.ParseTableRef(sourceTable)
	if err != nil {
		return nil, nil, err
	}

	target, err := data.ParseTargetURI(destURI)
	if err != nil {
		return nil, nil, err
	}

	err = target.SetTable(destTable)
	if err != nil {
		return nil, nil, err
	}

	v := validator.New()
	data.ValidateSource(v, source)
	data.ValidateTableRef(v, tableRef)
	data.ValidateTarget(v, target)

	ingestion := &data.Ingestion{
		CreatedAt:   time.Now(),
		Source:      source,
		SourceTable: tableRef,
		Target:      target,
	}

	return ingestion, v, nil
}

func (app *application) createIngestionHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		SourceURI        string `json:"source_uri"`
		SourceTable      string `json:"source_table"`
		DestinationURI   string `json:"destination_uri"`
		DestinationTable string `json:"destination_table"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ingestion, v, err := app.newIngestion(input.SourceURI, input.SourceTable, input.DestinationURI, input.DestinationTable)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = ingestion.Target.Open()
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ingestionId, err := pkg.RandomCharacters(32)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	ingestion.Id = ingestionId
	ingestion.Status = data.StatusRunning
	app.setIngestion(*ingestion)

	app.putLogEvents(fmt.Sprintf("ingestion %v started: %v -> %v", ingestionId, ingestion.SourceTable, ingestion.Target.QualifiedTable()))

	responseMessage := envelope{
		"ingestion_id": ingestion.Id,
		"status":       ingestion.Status,
		"error":        "",
	}

	err = app.writeJSON(w, http.StatusOK, responseMessage, make(http.Header))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.background(func() {
		defer ingestion.Target.Db.Close()

		err := app.Run(context.Background(), ingestion)
		if err != nil {
			app.logger.PrintError(err, map[string]string{"ingestion_id": ingestion.Id})
			app.putLogEvents(fmt.Sprintf("ingestion %v failed: %v", ingestion.Id, err))
			ingestion.Status = data.StatusFailed
			ingestion.Error = err.Error()
			app.setIngestion(*ingestion)
			return
		}

		app.putLogEvents(fmt.Sprintf("ingestion %v complete", ingestion.Id))
		ingestion.Status = data.StatusComplete
		app.setIngestion(*ingestion)
	})
}

// Run lists the objects selected by the source table's glob, fixes the
// destination schema from the first object, then loads every object
// concurrently.
func (app *application) Run(ctx context.Context, ingestion *data.Ingestion) error {
	client, err := data.NewS3Client(ctx, ingestion.Source)
	if err != nil {
		return err
	}

	objects, err := data.ListMatches(ctx, client, ingestion.SourceTable)
	if err != nil {
		return err
	}
	ingestion.Objects = objects

	downloader := manager.NewDownloader(client)

	firstBody, err := data.DownloadObject(ctx, downloader, ingestion.SourceTable.Bucket, objects[0].Key)
	if err != nil {
		return err
	}

	firstFile, err := format.Decode(objects[0].Key, firstBody)
	if err != nil {
		return err
	}

	columns := data.InferColumns(firstFile.Columns, firstFile.Rows)
	err = data.ValidateColumns(columns)
	if err != nil {
		return fmt.Errorf("object %v: %v", objects[0].Key, err)
	}
	ingestion.Columns = columns

	target := ingestion.Target

	if stmt, ok := target.CreateSchemaStmt(); ok {
		_, err = target.Db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("error running create schema query, query was %v. error was: %v", stmt, err)
		}
	}

	createTableQuery := target.CreateTableStmt(columns)
	_, err = target.Db.ExecContext(ctx, createTableQuery)
	if err != nil {
		return fmt.Errorf("error running create table query, query was %v. error was: %v", createTableQuery, err)
	}

	limit := app.config.maxObjectLoads
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for objectIndex := range objects {
		objectIndex := objectIndex
		g.Go(func() error {
			object := objects[objectIndex]

			file := firstFile
			if objectIndex != 0 {
				body, err := data.DownloadObject(gctx, downloader, ingestion.SourceTable.Bucket, object.Key)
				if err != nil {
					return err
				}
				file, err = format.Decode(object.Key, body)
				if err != nil {
					return err
				}
			}

			rows, err := app.loadObject(gctx, target, columns, object.Key, file)
			if err != nil {
				return err
			}
			ingestion.Objects[objectIndex].Rows = rows
			return nil
		})
	}

	return g.Wait()
}

// checkColumns rejects an object whose columns are not all present in the
// destination table.
func checkColumns(columns []data.Column, fileColumns []string, key, table string) error {
	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		known[col.Name] = true
	}
	for _, name := range fileColumns {
		if !known[name] {
			return fmt.Errorf("object %v has column %v not present in destination table %v", key, name, table)
		}
	}
	return nil
}

// loadObject inserts one decoded object inside a single transaction. An
// object whose columns disagree with the inferred table schema fails the
// whole ingestion.
func (app *application) loadObject(ctx context.Context, target data.Target, columns []data.Column, key string, file *format.File) (int64, error) {
	err := checkColumns(columns, file.Columns, key, target.QualifiedTable())
	if err != nil {
		return 0, err
	}

	tx, err := target.Db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("object %v: unable to begin transaction: %v", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, target.InsertStmt(columns))
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("object %v: unable to prepare insert: %v", key, err)
	}
	defer stmt.Close()

	var rows int64
	for _, row := range file.Rows {
		args, err := data.FormatRow(columns, row)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("object %v: %v", key, err)
		}

		_, err = stmt.ExecContext(ctx, args...)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("object %v: insert failed: %v", key, err)
		}
		rows++
	}

	err = tx.Commit()
	if err != nil {
		return 0, fmt.Errorf("object %v: unable to commit: %v", key, err)
	}

	return rows, nil
}
