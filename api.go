package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// stringBool accepts JSON true/false as well as the "true"/"false" strings
// one historical client sent for the completed field.
type stringBool bool

func (b *stringBool) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "true":
		*b = true
	case "false":
		*b = false
	default:
		return fmt.Errorf("invalid boolean: %s", data)
	}
	return nil
}

type createCardRequest struct {
	Title string `json:"title"`
}

type updateCardRequest struct {
	Title     string     `json:"title"`
	Completed stringBool `json:"completed"`
}

type timerRequest struct {
	IsTiming bool `json:"isTiming"`
}

func apiError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTitleRequired):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func cardID(p httprouter.Params) (int64, error) {
	return strconv.ParseInt(p.ByName("id"), 10, 64)
}

func serveCards(cfg *Config, board *Board) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		views, err := board.FetchBoard(r.Context())
		if err != nil {
			apiError(w, err)

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(views)

		logf(cfg, "SERVE: Board snapshot (%d cards) to %s in %s",
			len(views),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func createCard(cfg *Config, board *Board) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)

			return
		}

		card, err := board.AddCard(r.Context(), req.Title)
		if err != nil {
			apiError(w, err)

			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		securityHeaders(cfg, w)

		_ = json.NewEncoder(w).Encode(card)
	}
}

func updateCard(cfg *Config, board *Board) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := cardID(p)
		if err != nil {
			http.Error(w, "invalid card id", http.StatusBadRequest)

			return
		}

		var req updateCardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)

			return
		}

		if err := board.UpdateCard(r.Context(), id, req.Title, bool(req.Completed)); err != nil {
			apiError(w, err)

			return
		}

		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func removeCard(cfg *Config, board *Board) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		id, err := cardID(p)
		if err != nil {
			http.Error(w, "invalid card id", http.StatusBadRequest)

			return
		}

		if err := board.RemoveCard(r.Context(), id); err != nil {
			apiError(w, err)

			return
		}

		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func shuffleCards(cfg *Config, board *Board) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := board.Shuffle(r.Context()); err != nil {
			apiError(w, err)

			return
		}

		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusNoContent)
	}
}

func manageTimer(cfg *Config, board *Board) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req timerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)

			return
		}

		board.ManageTimer(req.IsTiming)

		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// serveQR generates a PNG QR code pointing at the board, for sharing the
// session with the room.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at $prefix/qr; strip the trailing "/qr" to get the board URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")
		if path == "" {
			path = "/"
		}

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// registerBoard sets up the card API, websocket, and share QR:
//   - /api/cards          → GET snapshot (+broadcast), POST create
//   - /api/cards/:id      → PUT update, DELETE remove
//   - /api/shuffle        → advance + reshuffle the incomplete cards
//   - /api/timer          → group timer start/stop signal
//   - /ws                 → realtime board events
//   - /qr                 → PNG QR code for the board URL
func registerBoard(cfg *Config, board *Board, hub *Hub, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/api/cards", serveCards(cfg, board))
	mux.POST(cfg.prefix+"/api/cards", createCard(cfg, board))
	mux.PUT(cfg.prefix+"/api/cards/:id", updateCard(cfg, board))
	mux.DELETE(cfg.prefix+"/api/cards/:id", removeCard(cfg, board))
	mux.POST(cfg.prefix+"/api/shuffle", shuffleCards(cfg, board))
	mux.POST(cfg.prefix+"/api/timer", manageTimer(cfg, board))
	mux.GET(cfg.prefix+"/ws", serveWS(hub))
	mux.GET(cfg.prefix+"/qr", serveQR(cfg))
}
