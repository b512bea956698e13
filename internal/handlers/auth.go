package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"voice-journal/backend/internal/auth"
	"voice-journal/backend/internal/models"
)

type pairRequest struct {
	Code       string `json:"code"`
	DeviceName string `json:"device_name"`
}

// Pair exchanges the pairing code for a device token.
func (a *API) Pair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	if err := a.Pairing.Verify(req.Code); err != nil {
		if errors.Is(err, auth.ErrPairingDisabled) {
			writeError(w, http.StatusForbidden, "pairing is disabled")
			return
		}
		writeError(w, http.StatusUnauthorized, "invalid pairing code")
		return
	}

	name := strings.TrimSpace(req.DeviceName)
	if name == "" {
		name = "device"
	}
	device := models.Device{ID: uuid.NewString(), Name: name, PairedAt: time.Now().UTC()}

	csrfToken, err := auth.GenerateCSRFToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate csrf token")
		return
	}
	token, err := a.Auth.GenerateToken(device, csrfToken)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	logger(r).Info("device paired", "device_id", device.ID, "device_name", device.Name)

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"csrf_token": csrfToken,
		"device":     device,
	})
}

// PairingQR renders the pairing link for another device to scan.
func (a *API) PairingQR(w http.ResponseWriter, r *http.Request) {
	serverURL := a.PublicURL
	if serverURL == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		serverURL = scheme + "://" + r.Host
	}
	link, err := a.Pairing.Link(serverURL)
	if err != nil {
		writeError(w, http.StatusForbidden, "pairing is disabled")
		return
	}
	qr, err := auth.QRDataURL(link)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render qr code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link, "qr_code": qr})
}
