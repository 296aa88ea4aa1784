package api

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lixenwraith/voiceloop/engine"
)

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "voiceloop",
	})
}

func (s *Server) getStatus(c *gin.Context) {
	reg := s.engine.Status()
	if s.report != nil {
		s.report(reg)
	}
	c.JSON(http.StatusOK, reg.Snapshot())
}

func (s *Server) listPads(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pads": s.engine.Snapshot()})
}

func (s *Server) getPad(c *gin.Context) {
	st, err := s.engine.Pad(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) updatePad(c *gin.Context) {
	var u engine.PadUpdate
	if err := c.ShouldBindJSON(&u); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if u.PlaybackMode != nil {
		mode, err := engine.ParseMode(string(*u.PlaybackMode))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		u.PlaybackMode = &mode
	}

	st, err := s.engine.UpdateConfig(c.Param("id"), u)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// triggerPad is the play button; ?mode= forces a playback mode
func (s *Server) triggerPad(c *gin.Context) {
	var override *engine.PlaybackMode
	if q := c.Query("mode"); q != "" {
		mode, err := engine.ParseMode(q)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		override = &mode
	}

	id := c.Param("id")
	if err := s.engine.TriggerOrToggle(id, override); err != nil {
		abortWithError(c, err)
		return
	}
	s.respondPad(c, id)
}

func (s *Server) stopPad(c *gin.Context) {
	id := c.Param("id")
	if err := s.engine.StopPad(id); err != nil {
		abortWithError(c, err)
		return
	}
	s.respondPad(c, id)
}

func (s *Server) recordPad(c *gin.Context) {
	id := c.Param("id")
	st, err := s.engine.Pad(id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if st.IsRecording {
		// A client hanging up mid-stop must not lose the take
		err = s.engine.StopRecording(context.WithoutCancel(ctx), id)
	} else {
		err = s.engine.StartRecording(ctx, id)
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	s.respondPad(c, id)
}

func (s *Server) clearPad(c *gin.Context) {
	id := c.Param("id")
	if err := s.engine.ClearPad(id); err != nil {
		abortWithError(c, err)
		return
	}
	s.respondPad(c, id)
}

func (s *Server) respondPad(c *gin.Context, id string) {
	st, err := s.engine.Pad(id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) stopAll(c *gin.Context) {
	if err := s.engine.StopAll(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pads": s.engine.Snapshot()})
}

func (s *Server) masterView() gin.H {
	return gin.H{
		"recording": s.engine.IsMasterRecording(),
		"volume":    s.engine.MasterVolume(),
		"bpm":       s.engine.BPM(),
	}
}

func (s *Server) getMaster(c *gin.Context) {
	c.JSON(http.StatusOK, s.masterView())
}

// toggleMasterRecord returns the artifact name when a recording is finished
func (s *Server) toggleMasterRecord(c *gin.Context) {
	name, err := s.engine.ToggleMasterRecord()
	if err != nil {
		abortWithError(c, err)
		return
	}
	view := s.masterView()
	if name != "" {
		view["artifact"] = name
	}
	c.JSON(http.StatusOK, view)
}

type volumeRequest struct {
	Volume *float64 `json:"volume" binding:"required"`
}

func (s *Server) setMasterVolume(c *gin.Context) {
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.engine.SetMasterVolume(*req.Volume)
	c.JSON(http.StatusOK, s.masterView())
}

type bpmRequest struct {
	BPM int `json:"bpm" binding:"required"`
}

func (s *Server) getBPM(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bpm": s.engine.BPM()})
}

// setBPM stores the clamped tempo and echoes it
func (s *Server) setBPM(c *gin.Context) {
	var req bpmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bpm": s.engine.SetBPM(req.BPM)})
}

func (s *Server) saveBankHandler(c *gin.Context) {
	if s.saveBank == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "pad bank saving disabled"})
		return
	}
	if err := s.saveBank(); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": len(s.engine.Configs())})
}

// events streams pad changes as server-sent events until the client leaves
func (s *Server) events(c *gin.Context) {
	if s.feed == nil {
		c.AbortWithStatusJSON(http.StatusNotImplemented, gin.H{"error": "event stream disabled"})
		return
	}

	changes, cancel := s.feed.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ch, ok := <-changes:
			if !ok {
				return false
			}
			if ch.PadID == "" {
				c.SSEvent("master", s.masterView())
				return true
			}
			st, err := s.engine.Pad(ch.PadID)
			if err != nil {
				return true
			}
			c.SSEvent("pad", st)
			return true
		}
	})
}
