package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Tiliavir/ghosttrack/internal/model"
	"github.com/Tiliavir/ghosttrack/internal/remote"
	"github.com/Tiliavir/ghosttrack/internal/timecalc"
)

const (
	maxBodySize  = 1 << 20 // 1MB
	defaultLimit = 30
	maxLimit     = 100
)

func writeOK(c *gin.Context, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "encoding response failed")
		return
	}
	c.JSON(http.StatusOK, remote.Envelope{OK: true, Data: raw})
}

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, remote.Envelope{Error: &remote.ErrorBody{Message: msg}})
}

func (s *Server) handleHealth(c *gin.Context) {
	writeOK(c, gin.H{"status": "ok"})
}

func (s *Server) handlePostLog(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize))
	if err != nil {
		writeError(c, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if err := s.validator.Validate(body); err != nil {
		s.log.Warn("rejecting day log", "err", err)
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	var log model.DayLog
	if err := json.Unmarshal(body, &log); err != nil {
		writeError(c, http.StatusBadRequest, "invalid day log: "+err.Error())
		return
	}
	log = model.NormalizeLog(log)
	if log.ID == "" {
		log.ID = log.Date
	}

	stored, err := json.Marshal(log)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "encoding log failed")
		return
	}
	if err := s.repo.Upsert(c.Request.Context(), log.Date, log.ID, stored); err != nil {
		s.log.Error("storing day log", "date", log.Date, "err", err)
		writeError(c, http.StatusInternalServerError, "storing log failed")
		return
	}
	writeOK(c, gin.H{"id": log.ID, "date": log.Date})
}

func (s *Server) handleGetLog(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		writeError(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	body, err := s.repo.Get(c.Request.Context(), date)
	if errors.Is(err, ErrNotFound) {
		writeError(c, http.StatusNotFound, "no log for "+date)
		return
	}
	if err != nil {
		s.log.Error("reading day log", "date", date, "err", err)
		writeError(c, http.StatusInternalServerError, "reading log failed")
		return
	}
	c.JSON(http.StatusOK, remote.Envelope{OK: true, Data: body})
}

func (s *Server) handleListLogs(c *gin.Context) {
	limit := defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLimit)
	}
	before := c.Query("before")
	if before != "" && !validDate(before) {
		writeError(c, http.StatusBadRequest, "before must be YYYY-MM-DD")
		return
	}

	bodies, next, err := s.repo.List(c.Request.Context(), limit, before)
	if err != nil {
		s.log.Error("listing day logs", "err", err)
		writeError(c, http.StatusInternalServerError, "listing logs failed")
		return
	}
	page := remote.Page{Logs: make([]json.RawMessage, len(bodies)), NextBefore: next}
	for i, b := range bodies {
		page.Logs[i] = b
	}
	writeOK(c, page)
}

func validDate(s string) bool {
	_, err := time.Parse(timecalc.DateLayout, s)
	return err == nil
}
