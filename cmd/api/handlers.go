package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qrattend/internal/attendance"
	"qrattend/internal/auth"
	"qrattend/internal/cloudinary"
	"qrattend/internal/config"
	"qrattend/internal/feed"
	"qrattend/internal/observability"
	"qrattend/internal/qrimage"
	"qrattend/internal/queue"
	"qrattend/internal/store"
)

type server struct {
	cfg    config.App
	log    *zap.Logger
	store  attendance.Store
	issuer *attendance.Issuer
	engine *attendance.Engine
	agg    *attendance.Aggregator
	queue  queue.Queue
	feed   *feed.Feed
	cdn    *cloudinary.Client
	redis  *store.Redis
	db     *store.DB
}

// abortErr maps domain errors to HTTP responses with their stable kind tag.
func (s *server) abortErr(c *gin.Context, err error) {
	kind := attendance.Kind(err)
	status := http.StatusInternalServerError
	switch kind {
	case "validation_error", "invalid_token", "expired_or_inactive":
		status = http.StatusBadRequest
	case "already_claimed":
		status = http.StatusConflict
	case "not_found":
		status = http.StatusNotFound
	case "store_unavailable":
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": kind, "message": err.Error()})
}

func (s *server) handleHealth(c *gin.Context) {
	redisHealthy := s.redis.Healthy(c.Request.Context())
	dbHealthy := s.db == nil || s.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// qrPayload is what ends up inside the QR image, mirroring what scanning
// apps expect to decode.
type qrPayload struct {
	Token     string `json:"token"`
	UnitCode  string `json:"unit_code"`
	UnitName  string `json:"unit_name"`
	Label     string `json:"label"`
	Location  string `json:"location,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

func (s *server) handleIssueSession(c *gin.Context) {
	var req struct {
		UnitCode        string `json:"unit_code" binding:"required"`
		UnitName        string `json:"unit_name" binding:"required"`
		DurationMinutes int    `json:"duration_minutes" binding:"required"`
		Location        string `json:"location"`
		Label           string `json:"label"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	claims, _ := auth.FromContext(c)

	sess, err := s.issuer.Issue(c.Request.Context(), attendance.IssueParams{
		IssuerID: claims.Subject,
		UnitCode: req.UnitCode,
		UnitName: req.UnitName,
		TTL:      time.Duration(req.DurationMinutes) * time.Minute,
		Location: req.Location,
		Label:    req.Label,
	})
	if err != nil {
		s.abortErr(c, err)
		return
	}
	observability.SessionsIssued.Inc()

	resp := gin.H{"session": sess}

	// Rendering is a side effect on top of the issued session; a failure
	// here never unwinds the issuance.
	payload, _ := json.Marshal(qrPayload{
		Token:     sess.Token,
		UnitCode:  sess.UnitCode,
		UnitName:  sess.UnitName,
		Label:     sess.Label,
		Location:  sess.Location,
		ExpiresAt: sess.ExpiresAt.Format(time.RFC3339),
	})
	if dataURL, err := qrimage.DataURL(string(payload), s.cfg.QRSize); err == nil {
		resp["qr_image"] = dataURL
	} else {
		s.log.Warn("qr render failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	if s.cdn != nil {
		if png, err := qrimage.PNG(string(payload), s.cfg.QRSize); err == nil {
			if up, err := s.cdn.UploadPNG(png, sess.ID); err == nil {
				resp["qr_url"] = up.SecureURL
			} else {
				s.log.Warn("qr upload failed", zap.String("session_id", sess.ID), zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *server) handleScan(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": err.Error()})
		return
	}
	claims, _ := auth.FromContext(c)

	claim, err := s.engine.Redeem(c.Request.Context(), claims.Subject, req.Token, time.Now())
	if err != nil {
		observability.Redemptions.WithLabelValues(attendance.Kind(err)).Inc()
		s.abortErr(c, err)
		return
	}
	observability.Redemptions.WithLabelValues("ok").Inc()

	if err := s.queue.Publish(c.Request.Context(), queue.Message{Type: "claim", Body: claim.ID}); err != nil {
		s.log.Warn("queue publish failed", zap.String("claim_id", claim.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "attendance recorded", "claim": claim})
}

func (s *server) handleListSessions(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	issuerID := claims.Subject
	// Admins may inspect any issuer's sessions.
	if claims.Role == auth.RoleAdmin {
		if v := c.Query("issuer_id"); v != "" {
			issuerID = v
		}
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	sessions, err := s.store.SessionsByIssuer(c.Request.Context(), issuerID, limit)
	if err != nil {
		s.abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// ownedSession loads a session and enforces that lecturers only touch their
// own.
func (s *server) ownedSession(c *gin.Context) (attendance.Session, bool) {
	claims, _ := auth.FromContext(c)
	sess, err := s.store.SessionByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abortErr(c, err)
		return attendance.Session{}, false
	}
	if claims.Role != auth.RoleAdmin && sess.IssuerID != claims.Subject {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "not your session"})
		return attendance.Session{}, false
	}
	return sess, true
}

func (s *server) handleSessionClaims(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}
	claimsList, err := s.store.ClaimsBySession(c.Request.Context(), sess.ID)
	if err != nil {
		s.abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "claims": claimsList})
}

func (s *server) handleDeactivateSession(c *gin.Context) {
	sess, ok := s.ownedSession(c)
	if !ok {
		return
	}
	if err := s.store.DeactivateSession(c.Request.Context(), sess.ID); err != nil {
		s.abortErr(c, err)
		return
	}
	s.log.Info("session deactivated", zap.String("session_id", sess.ID))
	c.JSON(http.StatusOK, gin.H{"message": "session deactivated"})
}

func (s *server) handleSubjectSummary(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	summary, err := s.agg.SummarizeSubject(c.Request.Context(), claims.Subject)
	if err != nil {
		s.abortErr(c, err)
		return
	}
	recent, err := s.store.ClaimsBySubject(c.Request.Context(), claims.Subject, "", 10)
	if err != nil {
		s.abortErr(c, err)
		return
	}
	var totalClaims, totalAttended int
	for _, u := range summary {
		totalClaims += u.TotalClaims
		totalAttended += u.Attended
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":        summary,
		"recent":         recent,
		"total_claims":   totalClaims,
		"total_attended": totalAttended,
	})
}

func (s *server) handleSubjectClaims(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	limit := 100
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	list, err := s.store.ClaimsBySubject(c.Request.Context(), claims.Subject, c.Query("unit"), limit)
	if err != nil {
		s.abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": list})
}

func (s *server) handleIssuerSummary(c *gin.Context) {
	claims, _ := auth.FromContext(c)
	issuerID := claims.Subject
	if claims.Role == auth.RoleAdmin {
		if v := c.Query("issuer_id"); v != "" {
			issuerID = v
		}
	}
	summary, err := s.agg.SummarizeIssuer(c.Request.Context(), issuerID)
	if err != nil {
		s.abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (s *server) handleStats(c *gin.Context) {
	stats, err := s.agg.SummarizeGlobal(c.Request.Context())
	if err != nil {
		s.abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (s *server) handleRecent(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	entries, err := s.feed.Recent(c.Request.Context(), limit)
	if err != nil {
		s.abortErr(c, fmt.Errorf("%w: %v", attendance.ErrUnavailable, err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"recent": entries})
}
