package kotsim

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handler serves the site to a real browser. Controls post forms and are
// redirected back to the page they came from.
func (s *Site) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(RecorderPath, s.servePage).Methods(http.MethodGet)
	r.HandleFunc(TimecardPath, s.servePage).Methods(http.MethodGet)
	r.HandleFunc(LogoutPath, s.servePage).Methods(http.MethodGet)
	r.HandleFunc(LoginPath, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/clock/{direction:in|out}", s.handleClock).Methods(http.MethodPost)
	return r
}

func (s *Site) servePage(w http.ResponseWriter, r *http.Request) {
	html, err := s.Render(s.URL(r.URL.Path))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func (s *Site) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Login(r.PostForm.Get("id"), r.PostForm.Get("password"))
	http.Redirect(w, r, RecorderPath, http.StatusSeeOther)
}

func (s *Site) handleClock(w http.ResponseWriter, r *http.Request) {
	s.Clock(mux.Vars(r)["direction"])
	http.Redirect(w, r, RecorderPath, http.StatusSeeOther)
}
