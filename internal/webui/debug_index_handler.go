package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"busroot.app/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	content := spew.Sdump(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	tmpl, err := template.ParseFS(templateFS, "debug_index.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dataStruct := debugData{
		Title: title,
		Pre:   content,
	}

	err = tmpl.Execute(w, dataStruct)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")
	ctx := r.Context()

	var (
		data  interface{}
		title string
		err   error
	)

	switch dataType {
	case "buses":
		data, err = webUI.Fleet.ListBuses(ctx)
		title = "Buses"
	case "distances":
		data, err = webUI.Fleet.ListDistanceTables(ctx)
		title = "Route distance tables"
	case "feedback":
		data, err = webUI.Fleet.ListFeedback(ctx)
		title = "Feedback"
	case "counts":
		data, err = webUI.Store.CollectionCounts(ctx)
		title = "Records per collection"
	default:
		data = map[string]string{
			"error": "Please use one of the following: buses, distances, feedback, counts.",
		}
		title = "Choose a data type"
	}

	if err != nil {
		logging.LogError(logging.FromContext(ctx), "debug data unavailable", err)
		http.Error(w, "could not load "+dataType, http.StatusInternalServerError)
		return
	}

	writeDebugData(w, title, data)
}
