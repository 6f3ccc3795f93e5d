package driver

import (
	"errors"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/gaze.bridge/internal/config"
	"github.com/banshee-data/gaze.bridge/internal/httputil"
)

// maxConfigBody bounds a POSTed configuration patch.
const maxConfigBody = 64 << 10

// AttachAdminRoutes mounts the bridge debug pages on mux under /debug/.
func (b *Bridge) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KVFunc("gaze session", func() any { return b.id })

	debug.HandleFunc("gaze", "eye bridge status and latest samples", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, b.Status())
	})

	// GET returns the live configuration; POST applies a JSON patch of the
	// fields to change.
	debug.HandleFunc("gaze/config", "live eye bridge configuration", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httputil.WriteJSONOK(w, b.cfg.Current())
		case http.MethodPost:
			var patch config.Config
			if err := httputil.DecodeJSON(r, maxConfigBody, &patch); err != nil {
				httputil.BadRequest(w, err.Error())
				return
			}
			if err := b.cfg.Update(&patch); err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, config.ErrInvalidConfig) {
					status = http.StatusBadRequest
				}
				httputil.WriteJSONError(w, status, err.Error())
				return
			}
			httputil.WriteJSONOK(w, b.cfg.Current())
		default:
			httputil.MethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	})
}
