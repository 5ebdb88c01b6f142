package main

import (
	"fmt"

	"net/http"

	"github.com/johnny-rice/ingestr/internal/data"
)

func (app *application) showConcurrencyHandler(w http.ResponseWriter, r *http.Request) {
	counter := 0

	app.mu.Lock()
	for _, v := range app.ingestionMap {
		if v.Status == data.StatusRunning {
			counter++
		}
	}
	app.mu.Unlock()

	fmt.Fprintf(w, "%d", counter)
}
