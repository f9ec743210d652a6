package http

import (
	_ "embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/aretw0/triage/pkg/runner"
	"github.com/aretw0/triage/pkg/session"
)

// SessionCookie carries the page session id.
const SessionCookie = "triage_session"

// Bubble colors: questions on the left in grey, prompts on the right in blue.
const (
	questionColor = "#E0E0E0"
	promptColor   = "#B3E5FC"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

type pageData struct {
	Title         string
	QuestionColor template.CSS
	PromptColor   template.CSS
	Question      *domain.QuestionView
	Prompt        *domain.PromptView
	Errors        []string
}

// Page handles GET /: it resumes the cookie's session or starts a new one.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	resp, err := s.sessions.Open(r.Context(), s.pageSession(r))
	s.renderPage(w, r, resp, err)
}

// PageAnswer handles the answer buttons.
func (s *Server) PageAnswer(w http.ResponseWriter, r *http.Request) {
	answer, err := runner.SanitizeInput(r.PostFormValue("answer"), s.maxInput)
	if err != nil {
		resp, openErr := s.sessions.Open(r.Context(), s.pageSession(r))
		s.renderPage(w, r, resp, errors.Join(err, openErr))
		return
	}

	id := s.pageSession(r)
	resp, err := s.sessions.Answer(r.Context(), id, answer)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		resp, err = s.sessions.Start(r.Context(), id)
	case err != nil && !errors.Is(err, domain.ErrUnknownStep):
		// The session did not move; draw its step again under the error.
		if current, showErr := s.sessions.Show(r.Context(), id); showErr == nil {
			msgs := []string{err.Error()}
			if resp != nil && len(resp.Errors) > 0 {
				msgs = resp.Errors
			}
			current.Errors = append(msgs, current.Errors...)
			resp, err = current, nil
		}
	}
	s.renderPage(w, r, resp, err)
}

// PageRestart handles the sidebar Restart button.
func (s *Server) PageRestart(w http.ResponseWriter, r *http.Request) {
	id := s.pageSession(r)
	resp, err := s.sessions.Restart(r.Context(), id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		resp, err = s.sessions.Start(r.Context(), id)
	}
	s.renderPage(w, r, resp, err)
}

func (s *Server) pageSession(r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return session.NewID()
}

// renderPage draws the current step. Per-session errors are shown inline; the
// controller has already recorded them in resp.Errors when a state came back.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, resp *runner.RichResponse, err error) {
	data := pageData{
		Title:         s.title,
		QuestionColor: questionColor,
		PromptColor:   promptColor,
	}
	if resp != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    resp.SessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		s.broadcast(resp)
		data.Question = resp.Question
		data.Prompt = resp.Prompt
		data.Errors = resp.Errors
	}
	if err != nil && (resp == nil || len(resp.Errors) == 0) {
		if statusFor(err) == http.StatusInternalServerError {
			s.logger.Error("Page operation failed", "path", r.URL.Path, "err", err)
		}
		data.Errors = append(data.Errors, err.Error())
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error("Render page failed", "err", err)
	}
}
