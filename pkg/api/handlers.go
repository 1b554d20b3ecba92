package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/David-Botos/sensor-ingress/pkg/ingest"
	"github.com/David-Botos/sensor-ingress/pkg/store"
	"github.com/David-Botos/sensor-ingress/pkg/transfer"
)

// uploadField is the multipart form field carrying the export
const uploadField = "file"

func (s *Server) handleDebug(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World!"))
}

// handleUpload handles POST /upload
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, http.ErrMissingFile):
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("no file (form field '%s')", uploadField))
		default:
			s.writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("no file (form field '%s')", uploadField))
		return
	}

	summary, err := s.manager.Ingest(r.Context(), file, header.Filename)
	if err != nil {
		s.writeError(w, uploadStatus(err), err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, summary)
}

// uploadStatus maps an upload failure to its status code
func uploadStatus(err error) int {
	switch transfer.CategorizeError(err) {
	case transfer.ErrorCategoryInput:
		if errors.Is(err, ingest.ErrUnsupportedFormat) {
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadRequest
	case transfer.ErrorCategoryStructural:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleGet handles GET /get
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := parseMillis(q.Get("start"), "start")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := parseMillis(q.Get("end"), "end")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	readings, err := s.manager.Query(r.Context(), store.QueryFilter{
		SensorType: q.Get("sensor_type"),
		AssetName:  q.Get("asset_name"),
		Project:    q.Get("project"),
		Start:      start,
		End:        end,
	})
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	rows := make([][]interface{}, len(readings))
	for i := range readings {
		rows[i] = readingRow(&readings[i])
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "rows": rows})
}

// handleGetParam handles GET /get/param
func (s *Server) handleGetParam(w http.ResponseWriter, r *http.Request) {
	params, err := s.manager.Params(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "data": params})
}

// readingRow lays a reading out as the positional row clients chart from
func readingRow(r *store.Reading) []interface{} {
	return []interface{}{
		r.DataType,
		r.AssetNumber,
		r.AssetName,
		r.System,
		r.InstallLocation,
		r.DeviceType,
		r.DeviceID,
		r.Project,
		r.Timestamp,
		r.SensorType,
		r.Value,
	}
}

func parseMillis(v, name string) (int64, error) {
	if v == "" {
		return 0, fmt.Errorf("missing '%s' parameter", name)
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid '%s' parameter %q: expected epoch milliseconds", name, v)
	}
	return ms, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{"ok": false, "error": message})
}
