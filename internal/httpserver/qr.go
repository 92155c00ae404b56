package httpserver

import (
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"
)

const qrSize = 320 // mobile-friendly size

// handleQR renders a PNG QR code pointing at the client's page for the game.
func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	g, ok := s.lookupGame(w, r)
	if !ok {
		return
	}
	url := strings.TrimRight(s.deps.ClientOrigin, "/") + "/game/" + g.ID
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "qr_failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}
