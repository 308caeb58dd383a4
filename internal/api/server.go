// Package api serves the guidance status and control surface over HTTP
// JSON. The surrounding application (display, remote operator UI) polls
// these endpoints; the core itself pushes nothing.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/fieldworks-ag/guidance/internal/boom"
	"github.com/fieldworks-ag/guidance/internal/camera"
	"github.com/fieldworks-ag/guidance/internal/guidance"
	"github.com/fieldworks-ag/guidance/internal/version"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	svc *guidance.Service
}

func NewServer(svc *guidance.Service) *Server {
	return &Server{svc: svc}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	default:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	}
}

// LogRequests wraps a handler with request logging.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("%s %s %s%s%s %.2fms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.showStatus)
	mux.HandleFunc("/api/elevation", s.showElevation)
	mux.HandleFunc("/api/mesh", s.showMesh)
	mux.HandleFunc("/api/camera/pose", s.showCameraPose)
	mux.HandleFunc("/api/camera/mode", s.setCameraMode)
	mux.HandleFunc("/api/boom/target", s.setBoomTarget)
	mux.HandleFunc("/api/boom/auto", s.setBoomAuto)
	mux.HandleFunc("/api/boom/active", s.setBoomActive)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type vehicleStatus struct {
	Northing   float64 `json:"northing"`
	Easting    float64 `json:"easting"`
	HeadingDeg float64 `json:"heading_deg"`
	Known      bool    `json:"known"`
}

type frameStatus struct {
	Initialized bool    `json:"initialized"`
	OriginLat   float64 `json:"origin_lat,omitempty"`
	OriginLon   float64 `json:"origin_lon,omitempty"`
}

type statusResponse struct {
	Version string        `json:"version"`
	Frame   frameStatus   `json:"frame"`
	Vehicle vehicleStatus `json:"vehicle"`
	Boom    boom.Snapshot `json:"boom"`
	Camera  poseResponse  `json:"camera"`
}

type poseResponse struct {
	Mode     camera.Mode  `json:"mode"`
	Phase    camera.Phase `json:"phase"`
	Position [3]float64   `json:"position"`
	Look     [3]float64   `json:"look"`
	Up       [3]float64   `json:"up"`
}

func poseOf(cam *camera.Camera) poseResponse {
	p := cam.Current()
	return poseResponse{
		Mode:     cam.Mode(),
		Phase:    cam.Phase(),
		Position: [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
		Look:     [3]float64{p.Look.X, p.Look.Y, p.Look.Z},
		Up:       [3]float64{p.Up.X, p.Up.Y, p.Up.Z},
	}
}

func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	n, e, heading, known := s.svc.VehicleLocal()
	resp := statusResponse{
		Version: version.Version,
		Vehicle: vehicleStatus{Northing: n, Easting: e, HeadingDeg: heading, Known: known},
		Boom:    s.svc.Controller.Snapshot(),
		Camera:  poseOf(s.svc.Camera),
	}
	if lat, lon, ok := s.svc.Frame.Origin(); ok {
		resp.Frame = frameStatus{Initialized: true, OriginLat: lat, OriginLon: lon}
	}
	s.writeJSON(w, resp)
}

type elevationResponse struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Elevation float64 `json:"elevation"`
	HasData   bool    `json:"has_data"`
}

func (s *Server) showElevation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		s.writeJSONError(w, http.StatusBadRequest, "x and y query parameters are required")
		return
	}

	z, ok := s.svc.Surface.ElevationAt(x, y)
	s.writeJSON(w, elevationResponse{X: x, Y: y, Elevation: z, HasData: ok})
}

type meshResponse struct {
	Vertices  [][3]float64 `json:"vertices"`
	Triangles []int        `json:"triangles"`
	UVs       [][2]float64 `json:"uvs"`
}

func (s *Server) showMesh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lod := 1
	if v := r.URL.Query().Get("lod"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "lod must be an integer")
			return
		}
		lod = parsed
	}

	mesh, err := s.svc.Surface.GenerateMesh(lod)
	if err != nil {
		s.writeJSONError(w, http.StatusNotFound, "no elevation grid loaded")
		return
	}

	resp := meshResponse{Triangles: mesh.Triangles}
	resp.Vertices = make([][3]float64, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		resp.Vertices[i] = [3]float64{v.X, v.Y, v.Z}
	}
	resp.UVs = make([][2]float64, len(mesh.UVs))
	for i, uv := range mesh.UVs {
		resp.UVs[i] = [2]float64{uv.U, uv.V}
	}
	s.writeJSON(w, resp)
}

func (s *Server) showCameraPose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, poseOf(s.svc.Camera))
}

var validModes = map[camera.Mode]bool{
	camera.ModeFieldView:   true,
	camera.ModeTopRearView: true,
	camera.ModeFreeCamera:  true,
	camera.ModeFixedView:   true,
}

func (s *Server) setCameraMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Mode camera.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !validModes[req.Mode] {
		s.writeJSONError(w, http.StatusBadRequest, "unknown camera mode")
		return
	}
	s.svc.Camera.SetMode(req.Mode)
	s.writeJSON(w, poseOf(s.svc.Camera))
}

func (s *Server) setBoomTarget(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		TargetCm float64 `json:"target_cm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	applied := s.svc.Controller.SetTargetHeight(req.TargetCm)
	s.writeJSON(w, map[string]float64{"target_cm": applied})
}

func (s *Server) setBoomAuto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Enable bool `json:"enable"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.Enable {
		s.svc.DeactivateAutoMode(time.Now())
		s.writeJSON(w, s.svc.Controller.Snapshot())
		return
	}
	if err := s.svc.ActivateAutoMode(time.Now()); err != nil {
		// Refusals are expected operational outcomes, not server errors:
		// surface the reason with a 409 so the UI can show it.
		s.writeJSONError(w, http.StatusConflict, err.Error())
		return
	}
	s.writeJSON(w, s.svc.Controller.Snapshot())
}

func (s *Server) setBoomActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.svc.Controller.SetActive(req.Active)
	s.writeJSON(w, s.svc.Controller.Snapshot())
}
