package handlers

import (
	"net/http"

	"github.com/KunalBagaria/tokengate/utils"
)

// GatedContentResponse is returned by the demo protected routes
type GatedContentResponse struct {
	Message  string `json:"message"`
	Strategy string `json:"strategy"`
	Path     string `json:"path"`
}

// GatedContentHandler serves the protected demo resource. It is only
// reached once a token gate has allowed the request.
func GatedContentHandler(strategy string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, GatedContentResponse{
			Message:  "Token ownership verified",
			Strategy: strategy,
			Path:     r.URL.Path,
		})
	}
}
