package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/hub"
	"github.com/skolos/debt-service/internal/middleware"
	"github.com/skolos/debt-service/internal/service"
)

// maxUploadBytes caps the in-memory part of a multipart upload
const maxUploadBytes = 32 << 20

type Handler struct {
	svc *service.Service
	hub *hub.Hub
	log *logrus.Logger
}

func NewHandler(svc *service.Service, h *hub.Hub, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, hub: h, log: log}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles creditor registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if creds.Email == "" || creds.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	creditor, err := h.svc.Register(r.Context(), creds.Name, creds.Email, creds.Password)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to register: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(creditor)
}

// Login handles creditor authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.svc.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// UploadDebts accepts a tabular debt file and runs the ingestion pipeline
// synchronously within the request.
func (h *Handler) UploadDebts(w http.ResponseWriter, r *http.Request) {
	creditorID, err := middleware.CreditorIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := h.svc.Ingest(r.Context(), header.Filename, file, creditorID); err != nil {
		h.writeIngestError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeIngestError maps the ingestion error taxonomy onto HTTP statuses.
// Parse failures report the offending row and field back to the uploader.
func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	var formatErr *apperrors.FormatError
	var parseErr *apperrors.ParseError
	switch {
	case errors.As(err, &formatErr):
		http.Error(w, formatErr.Error(), http.StatusBadRequest)
	case errors.As(err, &parseErr):
		http.Error(w, parseErr.Error(), http.StatusBadRequest)
	case apperrors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Errorf("Ingestion failed: %v", err)
		http.Error(w, "ingestion failed", http.StatusInternalServerError)
	}
}

// StreamEvents pushes "record updated" events for the authenticated
// creditor over server-sent events.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	creditorID, err := middleware.CreditorIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events, cancel := h.hub.Subscribe(creditorID)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.log.Errorf("Failed to marshal event: %v", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}
