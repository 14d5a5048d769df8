package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/santiagomed/edpgen/artifact"
	"github.com/santiagomed/edpgen/core"
	"github.com/santiagomed/edpgen/extract"
	"github.com/santiagomed/edpgen/fs"
	"github.com/santiagomed/edpgen/llm"
	"github.com/santiagomed/edpgen/logger"
	"github.com/sony/gobreaker"
)

const maxUploadBytes = 20 << 20

// Handler serves the session routes.
type Handler struct {
	sessions *Sessions
	logger   logger.Logger
}

func NewHandler(sessions *Sessions, l logger.Logger) *Handler {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Handler{sessions: sessions, logger: l}
}

// SessionResponse is the JSON view of one session.
type SessionResponse struct {
	ID           string                   `json:"id"`
	Step         string                   `json:"step"`
	State        core.State               `json:"state"`
	Files        []artifact.GeneratedFile `json:"files"`
	ActiveFileID string                   `json:"activeFileId,omitempty"`
}

func newSessionResponse(s *Session) SessionResponse {
	state := s.Wizard.State()
	return SessionResponse{
		ID:           s.ID,
		Step:         state.Step().String(),
		State:        state,
		Files:        state.Files.Files(),
		ActiveFileID: state.Files.ActiveID(),
	}
}

// RegenerateRequest asks for a revision of one generated file.
type RegenerateRequest struct {
	Name        string `json:"name" binding:"required"`
	Instruction string `json:"instruction"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	session := h.sessions.Create()
	c.JSON(http.StatusCreated, newSessionResponse(session))
}

func (h *Handler) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *Handler) DeleteSession(c *gin.Context) {
	if !h.sessions.Delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PostEvent(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	ev, err := req.Event()
	if err != nil {
		h.fail(c, err)
		return
	}
	if _, err := session.Wizard.Dispatch(ev); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// Upload extracts a multipart "file" and summarizes it.
func (h *Handler) Upload(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if header.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	f, err := header.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("error opening upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		h.fail(c, fmt.Errorf("error reading upload: %w", err))
		return
	}
	if err := session.Wizard.Upload(c.Request.Context(), filepath.Base(header.Filename), data); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *Handler) Summarize(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Wizard.Summarize(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *Handler) Generate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Wizard.Generate(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (h *Handler) Regenerate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req RegenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if err := session.Wizard.Regenerate(c.Request.Context(), req.Name, req.Instruction); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// DownloadFile serves one generated file under its download name.
func (h *Handler) DownloadFile(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	id := c.Param("fileId")
	for _, f := range session.Wizard.State().Files.Files() {
		if f.ID == id {
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.DownloadName()))
			c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(f.Content))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
}

// DownloadArchive serves every generated file as one zip.
func (h *Handler) DownloadArchive(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	files := session.Wizard.State().Files.Files()
	if len(files) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no generated files"})
		return
	}
	entries := make([]fs.ZipEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, fs.ZipEntry{Name: f.DownloadName(), Content: []byte(f.Content)})
	}
	data, err := fs.ZipBytes(entries)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.ArchiveName))
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	session, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return session, true
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(fmt.Sprintf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var agentErr *llm.AgentError
	switch {
	case errors.Is(err, core.ErrBusy), errors.Is(err, core.ErrStaleResult):
		return http.StatusConflict
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extract.ErrUnsupportedDocument):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.As(err, &agentErr), errors.Is(err, llm.ErrProtocol):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
