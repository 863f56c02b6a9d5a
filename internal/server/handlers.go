package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/ironsheep/image-probe/internal/imaging"
	"github.com/ironsheep/image-probe/internal/probe"
)

// engineFor resolves the engine query parameter. On failure it writes a 400
// response and returns nil.
func (s *Server) engineFor(c *gin.Context) imaging.Engine {
	e, err := s.opts.Registry.Get(c.Query("engine"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: errorDetail{Message: err.Error()}})
		return nil
	}
	return e
}

// handleImageInfo runs the API job and reports it as JSON.
func (s *Server) handleImageInfo(c *gin.Context) {
	engine := s.engineFor(c)
	if engine == nil {
		return
	}

	res := s.opts.Runner.Run(c.Request.Context(), engine, s.opts.APIJob)

	switch o := res.Outcome.(type) {
	case probe.Success:
		c.JSON(http.StatusOK, newImageInfoResponse(res, o))
	case probe.Failure:
		c.JSON(http.StatusInternalServerError,
			newFailureResponse(res.Environment, o.Message, o.Trace, s.opts.ExposeTraces))
	}
}

// handlePreview runs the page job and returns the encoded image.
func (s *Server) handlePreview(c *gin.Context) {
	engine := s.engineFor(c)
	if engine == nil {
		return
	}

	res := s.opts.Runner.Run(c.Request.Context(), engine, s.opts.PageJob)

	switch o := res.Outcome.(type) {
	case probe.Success:
		c.Header("Cache-Control", "no-store")
		c.Header("X-Probe-Id", res.ID)
		c.Data(http.StatusOK, o.MimeType, o.Image)
	case probe.Failure:
		c.JSON(http.StatusInternalServerError,
			newFailureResponse(res.Environment, o.Message, o.Trace, s.opts.ExposeTraces))
	}
}

// pageData is the template input for the probe page.
type pageData struct {
	Platform       string
	Architecture   string
	Target         string
	RuntimeVersion string
	Engine         string
	LibraryVersion string
	Native         string
	ProcessedAt    string
	EngineQuery    string

	Success    bool
	ByteLength int
	ByteSize   string
	SourceSize string
	OutputSize string
	Format     string
	CenterHex  string
	Message    string
	Trace      string
}

// handleImageProcessing runs the page job and renders it as HTML.
func (s *Server) handleImageProcessing(c *gin.Context) {
	e, err := s.opts.Registry.Get(c.Query("engine"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Message": err.Error()})
		return
	}

	job := s.opts.PageJob
	res := s.opts.Runner.Run(c.Request.Context(), e, job)

	data := pageData{
		Platform:       res.Platform(),
		Architecture:   res.Architecture(),
		Target:         res.Environment.Target,
		RuntimeVersion: res.RuntimeVersion(),
		Engine:         res.Library.Engine,
		LibraryVersion: res.LibraryVersion(),
		Native:         res.NativeDependencyVersion,
		ProcessedAt:    res.GeneratedAt.In(s.opts.Location).Format("2006/01/02 15:04:05 MST"),
		EngineQuery:    c.Query("engine"),
		SourceSize:     sizeString(job.Width, job.Height),
	}

	switch o := res.Outcome.(type) {
	case probe.Success:
		data.Success = true
		data.ByteLength = o.ByteLength
		data.ByteSize = humanize.Bytes(uint64(o.ByteLength))
		data.OutputSize = sizeString(o.Width, o.Height)
		data.Format = strings.ToUpper(o.Format)
		if o.Decoded != nil {
			data.CenterHex = o.Decoded.Center.Hex
		}
	case probe.Failure:
		data.Message = o.Message
		if s.opts.ExposeTraces {
			data.Trace = o.Trace
		}
	}

	c.HTML(http.StatusOK, "image_processing.html", data)
}

// handleIndex renders the landing page.
func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Engines": s.opts.Registry.Names(),
		"Default": s.opts.Registry.Default().Name(),
		"Year":    time.Now().Year(),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func sizeString(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}
