package webd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/rotblauer/bustrack/api"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/render"
	"github.com/rotblauer/bustrack/state"
	"github.com/rotblauer/bustrack/types"
)

func pingPong(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

type webDaemonStatus struct {
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
	DataDir   string    `json:"datadir"`
	WSOpen    bool      `json:"ws_open"`
	WSConns   int       `json:"ws_conns"`
	Sinks     int       `json:"sinks"`
	Influx    bool      `json:"influx"`
}

func (s *WebDaemon) statusReport(w http.ResponseWriter, r *http.Request) {
	st := webDaemonStatus{
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		DataDir:   s.Config.DataDir,
		WSOpen:    !s.melodyInstance.IsClosed(),
		WSConns:   s.melodyInstance.Len(),
		Sinks:     len(s.Service.Sinks),
		Influx:    s.Service.Influx != nil,
	}
	s.writeJSON(w, st)
}

func (s *WebDaemon) writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

// limitBody caps the request body at the configured size.
func (s *WebDaemon) limitBody(w http.ResponseWriter, r *http.Request) io.Reader {
	limit := s.Config.MaxBodyBytes
	if limit <= 0 {
		limit = params.DefaultMaxBodyBytes
	}
	return http.MaxBytesReader(w, r.Body, limit)
}

func getRequestBusID(r *http.Request) conceptual.BusID {
	busID, ok := mux.Vars(r)["bus"]
	if !ok {
		busID = r.URL.Query().Get("bus")
	}
	return conceptual.BusIDFromName(busID)
}

func (s *WebDaemon) handleGetBusForRequest(w http.ResponseWriter, r *http.Request) (*api.Bus, bool) {
	busID := getRequestBusID(r)
	if busID.IsEmpty() {
		s.logger.Warn("Missing bus", "url", r.URL)
		http.Error(w, "Missing bus", http.StatusBadRequest)
		return nil, false
	}
	return s.Service.Bus(busID), true
}

// parseTimeParam reads a query parameter as epoch milliseconds or RFC3339.
// A missing parameter is zero.
func parseTimeParam(r *http.Request, name string) (int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return ms, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return t.UnixMilli(), nil
}

func parseWindow(r *http.Request) (api.Window, error) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		return api.Window{}, err
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		return api.Window{}, err
	}
	if end > 0 && end < start {
		return api.Window{}, errors.New("end before start")
	}
	return api.Window{Start: start, End: end}, nil
}

// handlePopulate is where fixes get posted for a bus.
// It accepts an array of fixes, a single fix, records keyed by timestamp,
// or GeoJSON points.
func (s *WebDaemon) handlePopulate(w http.ResponseWriter, r *http.Request) {
	bus, ok := s.handleGetBusForRequest(w, r)
	if !ok {
		return
	}
	if r.Body == nil {
		http.Error(w, "Please send a request body", http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(s.limitBody(w, r))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.logger.Warn("Request body too large", "limit", tooLarge.Limit)
		http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		s.logger.Error("Failed to read request body", "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	truncatedBytes := string(body)[:int(math.Min(80, float64(len(body))))]
	s.logger.Debug("Decoding", "bus", bus.BusID, "body.len", len(body), "bytes", truncatedBytes)

	fixes, err := types.DecodeFixes(body)
	if err != nil {
		s.logger.Warn("Failed to decode", "error", err)
		http.Error(w, "Failed to decode", http.StatusUnprocessableEntity)
		return
	}

	res, err := bus.Populate(r.Context(), fixes)
	if errors.Is(err, api.ErrNoFixes) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.writeJSON(w, res)
		return
	}
	if err != nil {
		s.logger.Error("Failed to populate", "error", err)
		http.Error(w, "Failed to populate", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, res)
}

const (
	formatGeoJSON  = "geojson"
	formatJSON     = "json"
	formatTimeline = "timeline"
)

// handleHistory serves a bus's cleaned path for a window.
// Query: start, end (ms or RFC3339), smooth (none|gain|kalman),
// format (geojson|json|timeline), tz (IANA name, timeline only).
// Paths too short to draw get 422 and a message.
func (s *WebDaemon) handleHistory(w http.ResponseWriter, r *http.Request) {
	bus, ok := s.handleGetBusForRequest(w, r)
	if !ok {
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = formatGeoJSON
	}
	loc := time.Local
	if tz := q.Get("tz"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			http.Error(w, "Invalid tz", http.StatusBadRequest)
			return
		}
	}

	p, err := bus.History(window, &api.HistoryOptions{Smoother: q.Get("smooth")})
	if err != nil {
		s.logger.Warn("Failed to read history", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !p.Sufficient() {
		http.Error(w, render.InsufficientMessage, http.StatusUnprocessableEntity)
		return
	}

	switch format {
	case formatTimeline:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		err = render.Timeline(w, p.Fixes, loc)
	case formatJSON:
		w.Header().Set("Content-Type", "application/json")
		err = json.NewEncoder(w).Encode(api.NewPathView(p))
	case formatGeoJSON:
		w.Header().Set("Content-Type", "application/geo+json")
		err = render.GeoJSON(w, p)
	default:
		http.Error(w, "Unknown format", http.StatusBadRequest)
		return
	}
	if err != nil {
		s.logger.Error("Failed to write history", "error", err)
	}
}

func (s *WebDaemon) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	bus, ok := s.handleGetBusForRequest(w, r)
	if !ok {
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n, err := bus.DeleteHistory(window)
	if errors.Is(err, state.ErrNoBus) {
		http.Error(w, "No such bus", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to delete history", "error", err)
		http.Error(w, "Failed to delete history", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, map[string]int{"deleted": n})
}

func (s *WebDaemon) handleLast(w http.ResponseWriter, r *http.Request) {
	bus, ok := s.handleGetBusForRequest(w, r)
	if !ok {
		return
	}
	last, err := bus.LastKnown()
	if errors.Is(err, api.ErrNoLocation) {
		http.Error(w, "No known location", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to read last known", "error", err)
		http.Error(w, "Failed to read last known", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, last)
}

func (s *WebDaemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	bus, ok := s.handleGetBusForRequest(w, r)
	if !ok {
		return
	}
	st, err := bus.Status()
	if errors.Is(err, api.ErrNoLocation) {
		http.Error(w, "No known location", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Failed to read status", "error", err)
		http.Error(w, "Failed to read status", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, st)
}

func (s *WebDaemon) handleLive(w http.ResponseWriter, r *http.Request) {
	all, err := s.Service.Statuses()
	if err != nil {
		s.logger.Error("Failed to read statuses", "error", err)
		http.Error(w, "Failed to read statuses", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, all)
}

func (s *WebDaemon) handleBuses(w http.ResponseWriter, r *http.Request) {
	buses, err := s.Service.Buses()
	if err != nil {
		s.logger.Error("Failed to list buses", "error", err)
		http.Error(w, "Failed to list buses", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, buses)
}

func (s *WebDaemon) handlePutDetails(w http.ResponseWriter, r *http.Request) {
	busID := getRequestBusID(r)
	details := state.BusDetails{}
	if err := json.NewDecoder(s.limitBody(w, r)).Decode(&details); err != nil {
		http.Error(w, "Failed to decode", http.StatusUnprocessableEntity)
		return
	}
	details.ID = busID
	if err := s.Service.PutDetails(details); err != nil {
		s.logger.Error("Failed to store bus details", "error", err)
		http.Error(w, "Failed to store bus details", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, details)
}

// handleNearby lists buses near a rider.
// Query: lat, lng, radius (meters, optional).
func (s *WebDaemon) handleNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err1 := strconv.ParseFloat(q.Get("lat"), 64)
	lng, err2 := strconv.ParseFloat(q.Get("lng"), 64)
	if err := errors.Join(err1, err2); err != nil {
		http.Error(w, "Invalid lat/lng", http.StatusBadRequest)
		return
	}
	radius := params.DefaultProximityRadius
	if v := q.Get("radius"); v != "" {
		var err error
		radius, err = strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid radius", http.StatusBadRequest)
			return
		}
	}
	nearby, err := s.Service.Nearby(orb.Point{lng, lat}, radius)
	if err != nil {
		s.logger.Error("Failed to find nearby buses", "error", err)
		http.Error(w, "Failed to find nearby buses", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, nearby)
}
