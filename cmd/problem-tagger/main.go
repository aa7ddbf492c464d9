package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/realmath/problempipeline/internal/models"
	"github.com/realmath/problempipeline/internal/services"
)

var (
	taggerInstance *services.TaggerFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Entry point name registered with Cloud Functions.
	functions.HTTP("HandleTagProblems", handleTagProblems)
}

// main is required by the Go Functions Framework.
func main() {}

// handleTagProblems is the HTTP handler called by the tagging workflow.
func handleTagProblems(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		taggerInstance, initErr = services.NewTaggerFunction(context.Background())
	})
	if initErr != nil {
		slog.Error("Tagger initialization failed", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.TagProblemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := taggerInstance.Process(r.Context(), &req)
	if errors.Is(err, services.ErrInvalidRequest) {
		http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		// The specific error is already logged inside Process.
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
