package profile

import (
	"net/http"

	"github.com/kscalelabs/storefront/internal/services/web/routepath"
)

func registerRoutes(mux *http.ServeMux, h handlers) {
	if mux == nil {
		return
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Profile, h.handleMe)
	mux.HandleFunc(http.MethodGet+" "+routepath.ProfilePrefix+"{$}", h.handleMe)
	mux.HandleFunc(http.MethodGet+" "+routepath.ProfileEdit, h.handleEditGet)
	mux.HandleFunc(http.MethodPost+" "+routepath.ProfileEdit, h.handleEditPost)
	mux.HandleFunc(http.MethodGet+" "+routepath.ProfileLive, h.handleLive)
	mux.HandleFunc(http.MethodGet+" "+routepath.ProfileUserPattern, h.handleUser)
}
