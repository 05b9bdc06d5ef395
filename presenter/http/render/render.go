package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/logging"
)

var ErrBadRequest = errors.New("bad request")

func JSON(w http.ResponseWriter, r *http.Request, status int, res interface{}) {
	blob, err := marshal(r, res)
	if err != nil {
		Error(w, r, fmt.Errorf("failed to marshal JSON result: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(blob); err != nil {
		logging.LoggerFromContext(r.Context()).WithError(err).Warn("failed to write response")
	}
}

func marshal(r *http.Request, res interface{}) ([]byte, error) {
	if pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty")); pretty {
		return json.MarshalIndent(res, "", "  ")
	}
	return json.Marshal(res)
}

func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	logger := logging.LoggerFromContext(r.Context()).WithError(err)
	if status == http.StatusInternalServerError {
		logger.Error("request handling failed")
	} else {
		logger.Debug("request rejected")
	}
	http.Error(w, err.Error(), status)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, bridge.ErrNotInitialized):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest), bridgeerr.Category(err) != nil:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
