// Copyright (C) 2025 the jh maintainers
// See root-dir/LICENSE for more information

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JosuX/jh/internal/auth"
	"github.com/JosuX/jh/internal/db"
	"github.com/JosuX/jh/internal/model"
)

const qrImageSize = 256

func NewHandler(gStore db.GuestStore, sStore db.SessionStore, cutoff time.Time) *Handler {
	return &Handler{
		gStore: gStore,
		sStore: sStore,
		cutoff: cutoff,
		logger: slog.Default().WithGroup("http"),
	}
}

type Handler struct {
	gStore db.GuestStore
	sStore db.SessionStore
	cutoff time.Time
	logger *slog.Logger
}

// live reports whether the event has started. An unset cutoff leaves the
// gate open, so a deployment without the flag behaves as on the event day.
func (h *Handler) live(now time.Time) bool {
	return h.cutoff.IsZero() || !now.Before(h.cutoff)
}

type guestView struct {
	ID            string       `json:"id,omitempty"`
	Name          string       `json:"name"`
	Code          string       `json:"code,omitempty"`
	Status        model.Status `json:"status"`
	RSVPConfirmed *bool        `json:"rsvpConfirmed,omitempty"`
}

// VerifyCode checks a guest code and binds the guest to this device with a
// fresh session token. A guest that already holds a live session elsewhere is
// rejected; the lookup and the create are deliberately not atomic, a
// concurrent double-login is harmless.
func (h *Handler) VerifyCode(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.VerifyCode")
	defer span.End()

	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest code is required"})
		return
	}

	guest, err := h.gStore.GetGuestByCode(ctx, req.Code)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid guest code, please check and try again"})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up guest code", err)
		return
	}

	if _, err := h.sStore.GetSessionByGuest(ctx, guest.ID); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "this code is already in use on another device"})
		return
	} else if !errors.Is(err, db.ErrSessionNotFound) {
		h.fail(c, span, "could not check for an existing session", err)
		return
	}

	token, err := auth.NewToken()
	if err != nil {
		h.fail(c, span, "could not generate session token", err)
		return
	}
	session := &model.Session{GuestID: guest.ID, Token: token}
	if _, err := h.sStore.CreateSession(ctx, session); err != nil {
		h.fail(c, span, "could not create session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   session.Token,
		"guest":   guestView{Name: guest.Name, Status: guest.Status},
	})
}

// Session resolves a bearer token back to its guest.
func (h *Handler) Session(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.Session")
	defer span.End()

	token, ok := auth.ParseBearer(c.GetHeader("Authorization"))
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}

	session, err := h.sStore.GetSessionByToken(ctx, token)
	if errors.Is(err, db.ErrSessionNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up session", err)
		return
	}

	guest, err := h.gStore.GetGuestByID(ctx, session.GuestID)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	if err != nil {
		h.fail(c, span, "could not load session guest", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"guest":         guestView{Name: guest.Name, Status: guest.Status},
	})
}

// RSVPStatus reports whether a code exists and whether it already confirmed.
func (h *Handler) RSVPStatus(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.RSVPStatus")
	defer span.End()

	code := c.Query("code")
	if strings.TrimSpace(code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest code is required"})
		return
	}

	guest, err := h.gStore.GetGuestByCode(ctx, code)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "guest not found"})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up guest code", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"rsvpConfirmed": guest.RSVPConfirmed,
		"guest":         guestView{Name: guest.Name, Code: guest.Code},
	})
}

// ConfirmRSVP marks a guest as attending. Confirming twice is not an error;
// the second call reports the existing state untouched.
func (h *Handler) ConfirmRSVP(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.ConfirmRSVP")
	defer span.End()

	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest code is required"})
		return
	}

	guest, err := h.gStore.GetGuestByCode(ctx, req.Code)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "guest not found, please check your code and try again",
		})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up guest code", err)
		return
	}

	if guest.RSVPConfirmed {
		c.JSON(http.StatusOK, gin.H{
			"success":          true,
			"message":          "you have already confirmed your attendance",
			"alreadyConfirmed": true,
			"guest":            guestView{Name: guest.Name, Code: guest.Code},
		})
		return
	}

	guest.RSVPConfirmed = true
	if err := h.gStore.UpdateGuest(ctx, guest); err != nil {
		h.fail(c, span, "could not confirm rsvp", err)
		return
	}
	span.AddEvent("rsvp confirmed")

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"message":          "your attendance has been confirmed",
		"alreadyConfirmed": false,
		"guest":            guestView{Name: guest.Name, Code: guest.Code},
	})
}

// QRCode renders the guest's check-in QR. The payload is the plaintext guest
// code, exactly what the scan endpoint expects back.
func (h *Handler) QRCode(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.QRCode")
	defer span.End()

	code := c.Query("code")
	if strings.TrimSpace(code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "guest code is required"})
		return
	}

	guest, err := h.gStore.GetGuestByCode(ctx, code)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid guest code, please check and try again"})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up guest code", err)
		return
	}

	png, err := qrcode.Encode(guest.Code, qrcode.Medium, qrImageSize)
	if err != nil {
		h.fail(c, span, "could not encode qr code", err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// extractCode pulls the guest code out of raw scanner output, which may be a
// bare code or a URL ending in the code.
func extractCode(decodedText string) string {
	code := strings.TrimSpace(decodedText)
	if idx := strings.LastIndex(code, "/"); idx >= 0 && idx+1 < len(code) {
		code = code[idx+1:]
	}
	return model.NormalizeCode(code)
}

// Scan handles decoded QR text from the admin scanner. Before the cutoff it
// reports the would-be transition without writing; at or after the cutoff it
// performs the one-way null to in_venue transition.
func (h *Handler) Scan(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.Scan")
	defer span.End()

	var req struct {
		DecodedText string `json:"decodedText"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.DecodedText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decoded text is required"})
		return
	}

	code := extractCode(req.DecodedText)
	guest, err := h.gStore.GetGuestByCode(ctx, code)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusOK, gin.H{
			"success":     false,
			"message":     "guest not found",
			"decodedText": req.DecodedText,
		})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up scanned code", err)
		return
	}

	live := h.live(time.Now())
	status := guest.Status
	var message string

	if live {
		if guest.Status != model.StatusInVenue {
			guest.Status = model.StatusInVenue
			if err := h.gStore.UpdateGuest(ctx, guest); err != nil {
				h.fail(c, span, "could not update guest status", err)
				return
			}
			span.AddEvent("guest checked in")
			message = fmt.Sprintf("%s is now IN VENUE", guest.Name)
		} else {
			message = fmt.Sprintf("%s is already IN VENUE", guest.Name)
		}
		status = guest.Status
	} else {
		if status != model.StatusInVenue {
			status = model.StatusInVenue
			message = fmt.Sprintf("[SIMULATION] %s would be marked IN VENUE", guest.Name)
		} else {
			message = fmt.Sprintf("[SIMULATION] %s is already IN VENUE", guest.Name)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      message,
		"isSimulation": !live,
		"guest":        guestView{Name: guest.Name, Code: guest.Code, Status: status},
		"decodedText":  req.DecodedText,
	})
}

// ListGuests returns the whole directory, newest first, with derived counts.
func (h *Handler) ListGuests(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.ListGuests")
	defer span.End()

	guests, err := h.gStore.ListGuests(ctx)
	if err != nil {
		h.fail(c, span, "could not list guests", err)
		return
	}

	sort.SliceStable(guests, func(i, j int) bool {
		var ti, tj time.Time
		if guests[i].CreatedAt != nil {
			ti = *guests[i].CreatedAt
		}
		if guests[j].CreatedAt != nil {
			tj = *guests[j].CreatedAt
		}
		return ti.After(tj)
	})

	type guestRow struct {
		ID            uuid.UUID    `json:"id"`
		Name          string       `json:"name"`
		Code          string       `json:"code"`
		Status        model.Status `json:"status"`
		RSVPConfirmed bool         `json:"rsvpConfirmed"`
		CreatedAt     *time.Time   `json:"createdAt"`
		UpdatedAt     *time.Time   `json:"updatedAt"`
	}
	rows := make([]guestRow, 0, len(guests))
	for _, g := range guests {
		rows = append(rows, guestRow{
			ID:            g.ID,
			Name:          g.Name,
			Code:          g.Code,
			Status:        g.Status,
			RSVPConfirmed: g.RSVPConfirmed,
			CreatedAt:     g.CreatedAt,
			UpdatedAt:     g.UpdatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"guests":  rows,
		"stats":   model.ComputeStats(guests),
	})
}

// ResetStatus clears a guest's check-in state, the manual undo for a
// mis-scan. Resetting an already clear guest still reports success.
func (h *Handler) ResetStatus(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.ResetStatus")
	defer span.End()

	guestID, ok := h.bindGuestID(c)
	if !ok {
		return
	}

	guest, err := h.gStore.GetGuestByID(ctx, guestID)
	if errors.Is(err, db.ErrGuestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "guest not found"})
		return
	}
	if err != nil {
		h.fail(c, span, "could not look up guest", err)
		return
	}

	if guest.Status != "" {
		guest.Status = ""
		if err := h.gStore.UpdateGuest(ctx, guest); err != nil {
			h.fail(c, span, "could not reset guest status", err)
			return
		}
		span.AddEvent("guest status reset")
	}

	confirmed := guest.RSVPConfirmed
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "guest status reset",
		"guest": guestView{
			ID:            guest.ID.String(),
			Name:          guest.Name,
			Code:          guest.Code,
			Status:        guest.Status,
			RSVPConfirmed: &confirmed,
		},
	})
}

// RemoveSessions drops a guest's device binding so they can log in again with
// their code. Removing none is not an error; the count says what happened.
func (h *Handler) RemoveSessions(c *gin.Context) {
	var span trace.Span
	ctx := c.Request.Context()
	ctx, span = tracer.Start(ctx, "Handler.RemoveSessions")
	defer span.End()

	guestID, ok := h.bindGuestID(c)
	if !ok {
		return
	}

	deleted, err := h.sStore.DeleteSessionsByGuest(ctx, guestID)
	if err != nil {
		h.fail(c, span, "could not remove sessions", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": deleted})
}

func (h *Handler) bindGuestID(c *gin.Context) (uuid.UUID, bool) {
	var req struct {
		GuestID string `json:"guestId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.GuestID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "guest ID is required"})
		return uuid.Nil, false
	}
	guestID, err := uuid.Parse(req.GuestID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "guest ID is not valid"})
		return uuid.Nil, false
	}
	return guestID, true
}

// fail logs, records the error on the span and answers with the uniform
// internal error body, leaking nothing.
func (h *Handler) fail(c *gin.Context, span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	h.logger.ErrorContext(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
