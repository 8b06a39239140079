package rest

import "net/http"

// Set at build time with -ldflags "-X ...".
var (
	Version   = "dev"
	LastBuild = "unknown"
)

type versionResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	LastBuild string `json:"last_build"`
}

func (that *Server) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Error("failed to write ping response", "error", err)
	}
}

func (that *Server) VersionHandler(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, versionResponse{
		Name:      "thud",
		Version:   Version,
		LastBuild: LastBuild,
	})
}
