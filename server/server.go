// Package server exposes the monitored stations over HTTP: station
// listing, snapshots, sensor readings and a guarded manual-refresh
// trigger.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/torhal/flomvakt/middleware"
	"github.com/torhal/flomvakt/monitor"
	"github.com/torhal/flomvakt/response"
	"github.com/torhal/flomvakt/secret"
	"github.com/torhal/flomvakt/sensor"
)

var ErrNoDataYet = fmt.Errorf("no data available yet")

type Server struct {
	service     *monitor.Service
	secretStore secret.Store
	logger      *slog.Logger
}

func New(service *monitor.Service, secretStore secret.Store, logger *slog.Logger) *Server {
	return &Server{
		service:     service,
		secretStore: secretStore,
		logger:      logger,
	}
}

func (s *Server) IsReady() bool {
	if s.logger == nil {
		fmt.Println("Logger of server.Server is not initialized")
		return false
	}

	if s.service == nil {
		s.logger.Error("Monitor service is not initialized")
		return false
	}

	return true
}

// Router assembles the route table. The refresh trigger mutates state and
// is bearer-auth guarded; reads are open.
func (s *Server) Router() *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", s.logged(s.Health))
	router.GET("/stations", s.logged(s.ListStations))
	router.GET("/stations/:id", s.logged(s.GetSnapshot))
	router.GET("/stations/:id/readings", s.logged(s.GetReadings))
	router.POST("/stations/:id/refresh",
		s.logged(middleware.BearerAuth(s.TriggerRefresh, s.secretStore)))

	router.NotFound = response.NewNotFoundHandler(s.logger)

	return router
}

func (s *Server) logged(h httprouter.Handle) httprouter.Handle {
	return middleware.RequestLogger(h, s.logger)
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	response.RenderJSONResponse(w, map[string]string{"status": "ok"})
}

func (s *Server) ListStations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	statuses := s.service.Stations()

	pagination := response.NewPaginationFromRequest(r)
	pagination.Total = len(statuses)

	page := paginate(statuses, pagination.Offset, pagination.Limit)
	response.RenderJSONResponse(w, response.NewCollectionResponse(page, &pagination))
}

func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snapshot, err := s.snapshotFor(ps.ByName("id"))
	if err != nil {
		s.renderSnapshotError(w, err)
		return
	}

	response.RenderJSONResponse(w, snapshot)
}

func (s *Server) GetReadings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snapshot, err := s.snapshotFor(ps.ByName("id"))
	if err != nil {
		s.renderSnapshotError(w, err)
		return
	}

	readings := sensor.Project(snapshot)
	response.RenderJSONResponse(w, response.NewCollectionResponse(readings, nil))
}

func (s *Server) TriggerRefresh(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	stationID := ps.ByName("id")

	err := s.service.Refresh(r.Context(), stationID)
	switch {
	case err == nil:
		response.RenderJSONResponse(w, response.NewPostResponse(true, "refresh completed", nil))
	case errors.Is(err, monitor.ErrUnknownStation):
		response.RenderError(w, err, http.StatusNotFound)
	case errors.Is(err, monitor.ErrRefreshInFlight):
		response.RenderError(w, err, http.StatusConflict)
	default:
		s.logger.Error("Manual refresh failed", "station_id", stationID, "error", err)
		response.RenderError(w, err, http.StatusBadGateway)
	}
}

func (s *Server) snapshotFor(stationID string) (*monitor.Snapshot, error) {
	snapshot, err := s.service.Snapshot(stationID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, ErrNoDataYet
	}
	return snapshot, nil
}

func (s *Server) renderSnapshotError(w http.ResponseWriter, err error) {
	if errors.Is(err, monitor.ErrUnknownStation) || errors.Is(err, ErrNoDataYet) {
		response.RenderError(w, err, http.StatusNotFound)
		return
	}
	response.RenderFatal(w, err)
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		offset = 0
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
