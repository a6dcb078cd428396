package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/draw"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gorilla/mux"

	"github.com/born-ml/detkit/backend/cpu"
	"github.com/born-ml/detkit/tensor"
	"github.com/born-ml/detkit/vis"
)

// maxUploadSize bounds the multipart body of POST /overlay.
const maxUploadSize = 10 << 20

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type server struct {
	weightsDir string
	backend    *cpu.Backend
}

func newRouter(s *server) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/weights/{name}", s.handleWeights).Methods("GET")
	r.HandleFunc("/overlay", s.handleOverlay).Methods("POST")
	return r
}

func runServe(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := flags.String("addr", ":8080", "listen address")
	weightsDir := flags.String("weights", ".", "directory served by /weights")
	if err := flags.Parse(args); err != nil {
		return err
	}

	s := &server{weightsDir: *weightsDir, backend: cpu.New()}
	srv := &http.Server{
		Handler:      newRouter(s),
		Addr:         *addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", srv.Addr)
	return srv.ListenAndServe()
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version,
	})
}

func (s *server) handleWeights(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name != filepath.Base(name) || name == ".." || name == "." {
		sendErrorResponse(w, "invalid_name", "weight file name must not contain a path", http.StatusBadRequest)
		return
	}

	info, err := describe(filepath.Join(s.weightsDir, name))
	switch {
	case errors.Is(err, fs.ErrNotExist):
		sendErrorResponse(w, "not_found", fmt.Sprintf("no weight file %q", name), http.StatusNotFound)
		return
	case err != nil:
		sendErrorResponse(w, "invalid_file", err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(info)
}

func (s *server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	thresh := float32(vis.DefaultThreshold)
	if v := r.URL.Query().Get("thresh"); v != "" {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			sendErrorResponse(w, "invalid_request", "thresh must be a number", http.StatusBadRequest)
			return
		}
		thresh = float32(f)
	}
	className := r.URL.Query().Get("class")

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		sendErrorResponse(w, "invalid_request", "missing image field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file)
	if err != nil {
		sendErrorResponse(w, "invalid_image", "Failed to decode image", http.StatusBadRequest)
		return
	}

	var rows [][]float32
	if err := json.Unmarshal([]byte(r.FormValue("dets")), &rows); err != nil {
		sendErrorResponse(w, "invalid_dets", "dets must be a JSON array of [x1,y1,x2,y2,score] rows", http.StatusBadRequest)
		return
	}

	out, err := s.overlay(img, rows, thresh, className)
	if err != nil {
		sendErrorResponse(w, "invalid_dets", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := imaging.Encode(w, out, imaging.PNG); err != nil {
		log.Printf("overlay: encode failed: %v", err)
	}
}

// overlay draws rows onto img. An empty rows slice returns img unchanged.
func (s *server) overlay(img image.Image, rows [][]float32, thresh float32, className string) (image.Image, error) {
	if len(rows) == 0 {
		return img, nil
	}

	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), cols)
		}
		data = append(data, row...)
	}
	dets, err := tensor.FromSlice(data, tensor.Shape{len(rows), cols}, s.backend)
	if err != nil {
		return nil, err
	}

	var out draw.Image
	if className != "" {
		out, err = vis.DrawLabeledDetections(img, className, dets, thresh)
	} else {
		out, err = vis.DrawDetections(img, dets, thresh)
	}
	return out, err
}

func sendErrorResponse(w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	})
}
