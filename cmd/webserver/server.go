package main

import (
	"context"
	"embed"
	"encoding/gob"
	"errors"
	"fmt"
	"html/template"
	"math/rand/v2"
	"net/http"
	"slices"
	"time"

	"triviacards"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionName = "trivia-session"

// Session value keys
const (
	keyFileID   = "file_id"
	keySelected = "selected"
	keyQuiz     = "quiz"
)

type Server struct {
	cfg       *triviacards.Config
	cache     triviacards.TextCache
	source    triviacards.FileSource
	explainer *triviacards.Explainer
	store     *sessions.CookieStore
	templates map[string]*template.Template
	logger    zerolog.Logger
}

// flash is a one-shot notice shown on the next rendered page
type flash struct {
	Title       string
	Description string
	Destructive bool
}

// quizState is the part of a quiz kept in the browser session. The
// questions themselves are re-read from the cached file on every request.
type quizState struct {
	Episode string
	State   triviacards.SessionState
}

func init() {
	gob.Register(flash{})
	gob.Register(quizState{})
}

func NewServer(cfg *triviacards.Config, cache triviacards.TextCache, source triviacards.FileSource, logger zerolog.Logger) (*Server, error) {
	key := []byte(cfg.Server.SessionKey)
	if len(key) == 0 {
		logger.Warn().Msg("No session key configured, sessions will not survive a restart")
		key = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(key)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	// Browsing-session cookie: gone when the browser closes
	store.Options.MaxAge = 0

	funcMap := template.FuncMap{
		"display": func(e triviacards.Episode) string {
			return e.DisplayName()
		},
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f", f)
		},
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"files", "episodes", "quiz"} {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	s := &Server{
		cfg:       cfg,
		cache:     cache,
		source:    source,
		store:     store,
		templates: templates,
		logger:    logger,
	}

	if cfg.ExplainEnabled() {
		explainer, err := triviacards.NewExplainer(cfg.Explain)
		if err != nil {
			return nil, err
		}
		s.explainer = explainer
	}

	return s, nil
}

// Routes returns the HTTP handler for the quiz front end
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleFiles)
	mux.HandleFunc("POST /file/upload", s.handleUpload)
	mux.HandleFunc("POST /file/load", s.handleLoadCollection)
	mux.HandleFunc("POST /file/close", s.handleCloseFile)
	mux.HandleFunc("GET /episodes", s.handleEpisodes)
	mux.HandleFunc("POST /episodes/select", s.handleSelectEpisode)
	mux.HandleFunc("POST /episodes/random", s.handleRandomEpisode)
	mux.HandleFunc("POST /quiz/start", s.handleStartQuiz)
	mux.HandleFunc("GET /quiz", s.handleQuiz)
	mux.HandleFunc("POST /quiz/back", s.handleBack)
	mux.HandleFunc("POST /quiz/explain", s.handleExplain)
	mux.HandleFunc("POST /quiz/{action}", s.handleQuizAction)

	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})(mux)
	return hlog.NewHandler(s.logger)(h)
}

func (s *Server) session(r *http.Request) *sessions.Session {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		// A cookie from an older key; Get still returns a fresh session
		hlog.FromRequest(r).Debug().Err(err).Msg("Discarding unreadable session")
	}
	return session
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, session *sessions.Session) {
	if err := session.Save(r, w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Session save error")
	}
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, session *sessions.Session, path string) {
	s.save(w, r, session)
	http.Redirect(w, r, path, http.StatusSeeOther)
}

func (s *Server) notify(session *sessions.Session, title, description string, destructive bool) {
	session.AddFlash(flash{Title: title, Description: description, Destructive: destructive})
}

func (s *Server) flashes(session *sessions.Session) []flash {
	var out []flash
	for _, v := range session.Flashes() {
		if f, ok := v.(flash); ok {
			out = append(out, f)
		}
	}
	return out
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("Template error")
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

// loadedFile returns the file text held for this browser session
func (s *Server) loadedFile(r *http.Request, session *sessions.Session) (triviacards.LoadedFile, error) {
	id, _ := session.Values[keyFileID].(string)
	if id == "" {
		return triviacards.LoadedFile{}, triviacards.ErrCacheMiss
	}
	return s.cache.Get(r.Context(), id)
}

// requireFile loads the session's file or sends the user back to the file
// step. It reports whether the request can continue.
func (s *Server) requireFile(w http.ResponseWriter, r *http.Request, session *sessions.Session) (triviacards.LoadedFile, bool) {
	file, err := s.loadedFile(r, session)
	if err == nil {
		return file, true
	}
	if errors.Is(err, triviacards.ErrCacheMiss) {
		s.clear(session)
		s.notify(session, "No file loaded", "Load a trivia file to continue.", true)
	} else {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to read loaded file")
		s.notify(session, "Error loading file", "Could not load the selected file.", true)
	}
	s.redirect(w, r, session, "/")
	return triviacards.LoadedFile{}, false
}

func (s *Server) clear(session *sessions.Session) {
	delete(session.Values, keyFileID)
	delete(session.Values, keySelected)
	delete(session.Values, keyQuiz)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	_, err := s.loadedFile(r, session)
	hasFile := err == nil
	flashes := s.flashes(session)
	s.save(w, r, session)

	s.render(w, r, "files", map[string]interface{}{
		"Collections": s.cfg.Files.Collections,
		"HasFile":     hasFile,
		"Flashes":     flashes,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	limit := s.cfg.Server.MaxUploadBytes

	r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		hlog.FromRequest(r).Info().Err(err).Msg("Upload rejected")
		s.notify(session, "Error reading file", "There was an error processing the file.", true)
		s.redirect(w, r, session, "/")
		return
	}
	defer file.Close()

	text, err := triviacards.ReadUpload(header.Filename, file, limit)
	if err != nil {
		hlog.FromRequest(r).Info().Err(err).Msg("Upload rejected")
		s.notify(session, "Invalid file", "Please upload a CSV file.", true)
		s.redirect(w, r, session, "/")
		return
	}

	s.acceptFile(w, r, session, header.Filename, text)
}

func (s *Server) handleLoadCollection(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	name := r.FormValue("name")

	col, ok := s.cfg.Collection(name)
	if !ok {
		s.notify(session, "Error loading file", "Could not load the selected file.", true)
		s.redirect(w, r, session, "/")
		return
	}

	text, err := s.source.Open(r.Context(), col.Name)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("collection", col.Name).Msg("Failed to load collection")
		s.notify(session, "Error loading file", "Could not load the selected file.", true)
		s.redirect(w, r, session, "/")
		return
	}

	s.acceptFile(w, r, session, col.Name, text)
}

// acceptFile catalogs newly acquired text and caches it for the session
func (s *Server) acceptFile(w http.ResponseWriter, r *http.Request, session *sessions.Session, name, text string) {
	episodes, err := triviacards.LoadCatalog(text)
	if err != nil {
		s.notify(session, "No episodes found", "The file doesn't contain any valid episode data.", true)
		s.redirect(w, r, session, "/")
		return
	}

	id, _ := session.Values[keyFileID].(string)
	if id == "" {
		id = uuid.NewString()
	}

	err = s.cache.Put(r.Context(), id, triviacards.LoadedFile{Name: name, Content: text, LoadedAt: time.Now()})
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Failed to cache file")
		s.notify(session, "Error loading file", "Could not load the selected file.", true)
		s.redirect(w, r, session, "/")
		return
	}

	s.clear(session)
	session.Values[keyFileID] = id
	hlog.FromRequest(r).Info().Str("file", name).Int("episodes", len(episodes)).Msg("File loaded")
	s.notify(session, "File loaded successfully", fmt.Sprintf("Found %d episodes.", len(episodes)), false)
	s.redirect(w, r, session, "/episodes")
}

func (s *Server) handleCloseFile(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	if id, _ := session.Values[keyFileID].(string); id != "" {
		if err := s.cache.Delete(r.Context(), id); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Failed to drop cached file")
		}
	}
	s.clear(session)
	s.redirect(w, r, session, "/")
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	file, ok := s.requireFile(w, r, session)
	if !ok {
		return
	}

	selected, _ := session.Values[keySelected].(string)
	flashes := s.flashes(session)
	s.save(w, r, session)

	s.render(w, r, "episodes", map[string]interface{}{
		"FileName": file.Name,
		"Episodes": triviacards.ListEpisodes(file.Content),
		"Selected": triviacards.Episode(selected),
		"Flashes":  flashes,
	})
}

func (s *Server) handleSelectEpisode(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	file, ok := s.requireFile(w, r, session)
	if !ok {
		return
	}

	ep := triviacards.Episode(r.FormValue("episode"))
	if !slices.Contains(triviacards.ListEpisodes(file.Content), ep) {
		http.Error(w, "Unknown episode", http.StatusBadRequest)
		return
	}
	session.Values[keySelected] = string(ep)
	s.redirect(w, r, session, "/episodes")
}

func (s *Server) handleRandomEpisode(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	file, ok := s.requireFile(w, r, session)
	if !ok {
		return
	}

	episodes := triviacards.ListEpisodes(file.Content)
	if len(episodes) > 0 {
		session.Values[keySelected] = string(episodes[rand.IntN(len(episodes))])
	}
	s.redirect(w, r, session, "/episodes")
}

func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	file, ok := s.requireFile(w, r, session)
	if !ok {
		return
	}

	selected, _ := session.Values[keySelected].(string)
	if selected == "" {
		s.redirect(w, r, session, "/episodes")
		return
	}

	questions, err := triviacards.LoadEpisode(file.Content, triviacards.Episode(selected))
	if err != nil {
		// Selection is kept so another episode can be picked without reloading
		s.notify(session, "No questions found", "This episode doesn't contain any valid questions.", true)
		s.redirect(w, r, session, "/episodes")
		return
	}

	session.Values[keyQuiz] = quizState{Episode: selected}
	s.notify(session, "Episode loaded", fmt.Sprintf("%d questions ready!", len(questions)), false)
	s.redirect(w, r, session, "/quiz")
}

// currentQuiz rebuilds the quiz from the session's stored state
func (s *Server) currentQuiz(w http.ResponseWriter, r *http.Request, session *sessions.Session) (*triviacards.QuizSession, quizState, bool) {
	file, ok := s.requireFile(w, r, session)
	if !ok {
		return nil, quizState{}, false
	}

	state, ok := session.Values[keyQuiz].(quizState)
	if !ok {
		s.redirect(w, r, session, "/episodes")
		return nil, quizState{}, false
	}

	questions := triviacards.ExtractQuestions(file.Content, triviacards.Episode(state.Episode))
	quiz, err := triviacards.ResumeQuizSession(questions, state.State)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Dropping quiz state")
		delete(session.Values, keyQuiz)
		s.redirect(w, r, session, "/episodes")
		return nil, quizState{}, false
	}
	return quiz, state, true
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	quiz, state, ok := s.currentQuiz(w, r, session)
	if !ok {
		return
	}

	var explanations []string
	for _, v := range session.Flashes("explanation") {
		if text, ok := v.(string); ok {
			explanations = append(explanations, text)
		}
	}
	flashes := s.flashes(session)
	s.save(w, r, session)

	s.render(w, r, "quiz", map[string]interface{}{
		"Episode":        triviacards.Episode(state.Episode),
		"View":           quiz.Snapshot(),
		"Flashes":        flashes,
		"Explanations":   explanations,
		"ExplainEnabled": s.explainer != nil,
	})
}

func (s *Server) handleQuizAction(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	quiz, state, ok := s.currentQuiz(w, r, session)
	if !ok {
		return
	}

	var err error
	switch action := r.PathValue("action"); action {
	case "reveal":
		err = quiz.Reveal()
	case "rate":
		rating, perr := triviacards.ParseRating(r.FormValue("value"))
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		err = quiz.Rate(rating)
	case "next":
		err = quiz.Next()
	case "previous":
		err = quiz.Previous()
	case "reset":
		quiz.Reset()
	default:
		http.NotFound(w, r)
		return
	}

	if err != nil {
		// Controls for illegal steps are disabled; this is a stale form
		hlog.FromRequest(r).Debug().Err(err).Msg("Ignoring quiz action")
	}

	state.State = quiz.State()
	session.Values[keyQuiz] = state
	s.redirect(w, r, session, "/quiz")
}

func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	session := s.session(r)
	delete(session.Values, keyQuiz)
	delete(session.Values, keySelected)
	s.redirect(w, r, session, "/episodes")
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.explainer == nil {
		http.NotFound(w, r)
		return
	}

	session := s.session(r)
	quiz, state, ok := s.currentQuiz(w, r, session)
	if !ok {
		return
	}
	if !quiz.State().Revealed {
		s.redirect(w, r, session, "/quiz")
		return
	}

	text, err := s.explainer.Explain(r.Context(), triviacards.Episode(state.Episode), quiz.Current())
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("Explanation failed")
		s.notify(session, "Explanation unavailable", "Could not fetch an explanation for this answer.", true)
	} else {
		session.AddFlash(text, "explanation")
	}
	s.redirect(w, r, session, "/quiz")
}

// pruneLoop drops cached files of sessions idle longer than ttl
func (s *Server) pruneLoop(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := s.cache.Prune(ctx, now.Add(-ttl))
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune file cache")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("removed", n).Msg("Pruned file cache")
			}
		}
	}
}
