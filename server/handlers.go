package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/caffeineduck/codecollab/auth"
	"github.com/caffeineduck/codecollab/editor"
	"github.com/caffeineduck/codecollab/interp"
	"github.com/caffeineduck/codecollab/room"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleLanguages(c *gin.Context) {
	respond(c, http.StatusOK, "", gin.H{
		"languages": interp.Languages(),
		"default":   interp.DefaultLanguage,
	})
}

func (s *Server) handleThemes(c *gin.Context) {
	respond(c, http.StatusOK, "", gin.H{
		"themes":  interp.Themes(),
		"default": interp.DefaultTheme,
	})
}

func (s *Server) handleTemplate(c *gin.Context) {
	lang := c.Param("lang")
	code, ok := interp.Template(lang)
	if !ok {
		respond(c, http.StatusNotFound, fmt.Sprintf("Unsupported language: %s", lang), nil)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"language": lang, "code": code})
}

type executeRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Stdin    string `json:"stdin"`
	Timeout  string `json:"timeout,omitempty"`
}

type executeResponse struct {
	Output     string `json:"output"`
	DurationMs int64  `json:"duration_ms"`
}

func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	if !bind(c, &req) {
		return
	}
	if req.Language == "" {
		req.Language = string(interp.DefaultLanguage)
	}

	ctx := c.Request.Context()
	if req.Timeout != "" {
		d, err := time.ParseDuration(req.Timeout)
		if err != nil {
			respond(c, http.StatusBadRequest, fmt.Sprintf("Invalid timeout: %s", req.Timeout), nil)
			return
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	start := time.Now()
	out := s.interp.Execute(ctx, req.Language, req.Code, req.Stdin)
	respond(c, http.StatusOK, "", executeResponse{
		Output:     out,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignIn(c *gin.Context) {
	var req signInRequest
	if !bind(c, &req) {
		return
	}
	sess, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, "Signed in successfully", sess)
}

func (s *Server) handleSignUp(c *gin.Context) {
	var req signUpRequest
	if !bind(c, &req) {
		return
	}
	sess, err := s.auth.SignUp(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, "Account created successfully", sess)
}

func (s *Server) handleOAuth(c *gin.Context) {
	msg, err := s.auth.OAuth(c.Param("provider"))
	if errors.Is(err, auth.ErrNotImplemented) {
		respond(c, http.StatusNotImplemented, msg, nil)
		return
	}
	s.fail(c, err)
}

// session returns the caller's editor session. Anonymous callers share the
// unnamespaced one.
func (s *Server) session(c *gin.Context) (*editor.Session, string) {
	id, _ := auth.FromContext(c)
	return s.editors.Get(c.Request.Context(), id.Email), id.Email
}

func (s *Server) flush(c *gin.Context, user string) {
	if err := s.editors.Flush(c.Request.Context(), user); err != nil {
		_ = c.Error(fmt.Errorf("save editor state: %w", err))
	}
}

func (s *Server) handleGetState(c *gin.Context) {
	sess, _ := s.session(c)
	respond(c, http.StatusOK, "", sess.State())
}

func (s *Server) handlePutState(c *gin.Context) {
	var st editor.State
	if !bind(c, &st) {
		return
	}
	sess, user := s.session(c)
	sess.Replace(st)
	s.flush(c, user)
	respond(c, http.StatusOK, "State saved", sess.State())
}

// runRequest optionally updates the buffer before running it.
type runRequest struct {
	Code     *string `json:"code"`
	Stdin    *string `json:"stdin"`
	Language *string `json:"language"`
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if !bind(c, &req) {
		return
	}
	sess, user := s.session(c)
	if req.Language != nil && *req.Language != sess.State().Language {
		st := sess.State()
		st.Language = *req.Language
		sess.Replace(st)
	}
	if req.Code != nil {
		sess.SetCode(*req.Code)
	}
	if req.Stdin != nil {
		sess.SetStdin(*req.Stdin)
	}

	out, err := sess.Run(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	s.flush(c, user)
	respond(c, http.StatusOK, "", gin.H{"output": out, "state": sess.State()})
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Server) handleLanguage(c *gin.Context) {
	var req languageRequest
	if !bind(c, &req) {
		return
	}
	sess, user := s.session(c)
	if err := sess.SetLanguage(req.Language); err != nil {
		s.fail(c, err)
		return
	}
	s.flush(c, user)
	respond(c, http.StatusOK, "", sess.State())
}

func (s *Server) handleDownload(c *gin.Context) {
	sess, _ := s.session(c)
	name, content := sess.State().Download()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type joinRoomRequest struct {
	Link     string `json:"link"`
	Password string `json:"password"`
}

func (s *Server) handleCreateRoom(c *gin.Context) {
	var req createRoomRequest
	if !bind(c, &req) {
		return
	}
	r, err := s.rooms.Create(c.Request.Context(), req.Name, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, r.CreatedMessage(), gin.H{
		"room": r,
		"link": "/join/" + r.ID,
	})
}

func (s *Server) handleJoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if !bind(c, &req) {
		return
	}
	r, err := s.rooms.Join(c.Request.Context(), req.Link, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, room.JoinedMessage, gin.H{"room": r})
}
