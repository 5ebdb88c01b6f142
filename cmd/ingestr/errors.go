package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

func (app *application) logError(r *http.Request, err error) {

	app.putLogEvents(err.Error())

	app.logger.PrintError(err, map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
	})
}

func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := envelope{"error": message, "stack": string(debug.Stack())}

	app.logError(r, errors.New(fmt.Sprint(message)))

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(500)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.putLogEvents(err.Error())
	app.errorResponse(w, r, http.StatusInternalServerError, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	app.putLogEvents(message)
	app.errorResponse(w, r, http.StatusNotFound, message)
}

func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := fmt.Sprintf("the %s method is not supported for this resource", r.Method)
	app.putLogEvents(message)
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.putLogEvents(err.Error())
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.putLogEvents(fmt.Sprintf("%+v", errors))
	app.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

// putLogEvents ships a message to CloudWatch Logs. A nil client means log
// shipping is disabled.
func (app *application) putLogEvents(message string) {
	if app.cloudWatchClient == nil {
		return
	}

	ctx := context.Background()

	timestamp := aws.Int64(time.Now().UnixNano() / int64(time.Millisecond))
	input := &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(app.config.cloudWatch.logGroupName),
		LogStreamName: aws.String(app.config.cloudWatch.logStreamName),
		LogEvents: []types.InputLogEvent{
			{
				Message:   aws.String(message),
				Timestamp: timestamp,
			},
		},
	}

	_, err := app.cloudWatchClient.PutLogEvents(ctx, input)
	if err != nil {
		log.Printf("PutLogEvents error: %v", err)
	}
}
