package host

import (
	"net/http"
	"strconv"

	"tailscale.com/tsweb"

	"github.com/banshee-data/gaze.bridge/internal/httputil"
)

// AttachAdminRoutes mounts the host debug pages on mux under /debug/.
func (in *Input) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	debug.HandleFunc("host", "committed state of every registered device", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSONOK(w, in.Status())
	})

	// Toggle the headset session, e.g. to exercise the inactive path
	// without taking the headset off.
	debug.HandleSilentFunc("host/vr", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w, http.MethodPost)
			return
		}
		active, err := strconv.ParseBool(r.FormValue("active"))
		if err != nil {
			httputil.BadRequest(w, "missing or invalid active")
			return
		}
		in.SetVRActive(active)
		httputil.WriteJSONOK(w, map[string]bool{"vr_active": active})
	})
}

// AttachAdminRoutes mounts the loop counters on mux.
func (l *Loop) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KVFunc("tick period", func() any { return l.period.String() })
	debug.KVFunc("ticks", func() any { return l.Stats().Ticks })
	debug.KVFunc("tick errors", func() any { return l.Stats().Errors })
}
