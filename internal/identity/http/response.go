package http

import (
	"net/http"
	"time"

	"github.com/egx/identity/pkg/httpx"
)

// envelope is the wire shape of every response: a payload under "data"
// and a flat list of error messages.
type envelope struct {
	Data   any      `json:"data"`
	Errors []string `json:"errors"`
}

// tokenPayload carries a freshly issued or reused token pair.
type tokenPayload struct {
	JwtToken     string    `json:"jwtToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// registerPayload is returned after registration: the id the new account
// received and the role it was enrolled into, if any.
type registerPayload struct {
	IDAssigned   string `json:"idAssigned"`
	RoleAssigned string `json:"roleAssigned"`
}

// rolePayload is a single role in roles responses.
type rolePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	httpx.WriteJSON(w, status, envelope{Data: data, Errors: []string{}})
}

func writeErrors(w http.ResponseWriter, status int, msgs ...string) {
	httpx.WriteJSON(w, status, envelope{Errors: msgs})
}

func writeServerError(w http.ResponseWriter) {
	writeErrors(w, http.StatusInternalServerError, "an unhandled internal error has occurred")
}
