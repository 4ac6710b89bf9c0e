package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
)

const flashKey = "flash"

// setFlash stores a one-shot notice shown on the next rendered page.
func setFlash(sm *scs.SessionManager, r *http.Request, notice string) {
	if notice != "" {
		sm.Put(r.Context(), flashKey, notice)
	}
}

// popFlash returns and clears the pending notice.
func popFlash(sm *scs.SessionManager, r *http.Request) string {
	return sm.PopString(r.Context(), flashKey)
}
