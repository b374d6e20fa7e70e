package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/zenith-events/zenith/internal/domain"
	"github.com/zenith-events/zenith/internal/transport/rest/response"
)

type requestView struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	EventTitle    string    `json:"event_title"`
	AttendeeID    string    `json:"attendee_id"`
	AttendeeName  string    `json:"attendee_name"`
	AttendeeEmail string    `json:"attendee_email"`
	OrganizerID   string    `json:"organizer_id"`
	Status        string    `json:"status"`
	RequestedAt   time.Time `json:"requested_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toRequestView(jr *domain.JoinRequest) requestView {
	return requestView{
		ID:            jr.ID,
		EventID:       jr.EventID,
		EventTitle:    jr.EventTitle,
		AttendeeID:    jr.AttendeeID,
		AttendeeName:  jr.AttendeeName,
		AttendeeEmail: jr.AttendeeEmail,
		OrganizerID:   jr.OrganizerID,
		Status:        string(jr.Status),
		RequestedAt:   jr.RequestedAt,
		UpdatedAt:     jr.UpdatedAt,
	}
}

func toRequestViews(reqs []*domain.JoinRequest) []requestView {
	out := make([]requestView, 0, len(reqs))
	for _, jr := range reqs {
		out = append(out, toRequestView(jr))
	}
	return out
}

func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	jr, err := h.lifecycle.Submit(r.Context(), chi.URLParam(r, "eventID"), auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toRequestView(jr))
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	jr, err := h.lifecycle.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	// Requests are visible to the attendee, the organizer and admins only.
	if auth.Role != domain.RoleAdmin && jr.AttendeeID != auth.UserID && jr.OrganizerID != auth.UserID {
		handleErr(w, r, domain.ErrNotFound("join request not found"))
		return
	}
	response.Data(w, http.StatusOK, toRequestView(jr))
}

func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	reqs, err := h.lifecycle.ListForAttendee(r.Context(), auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestViews(reqs))
}

func (h *Handler) ListOrganizerRequests(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	reqs, err := h.lifecycle.ListForOrganizer(r.Context(), auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestViews(reqs))
}

func (h *Handler) ListEventRequests(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	reqs, err := h.lifecycle.ListForEvent(r.Context(), chi.URLParam(r, "eventID"), auth.UserID, auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toRequestViews(reqs))
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

func (h *Handler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req decisionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		fail(w, r, http.StatusBadRequest, "validation_error", "decision must be approved or rejected", validationMeta(err))
		return
	}

	requestID := chi.URLParam(r, "requestID")
	if err := h.lifecycle.Decide(r.Context(), requestID, domain.Decision(req.Decision), auth.UserID, auth.Role); err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]string{"id": requestID, "status": req.Decision})
}

type verifyRequest struct {
	Token string `json:"token" validate:"required"`
}

type verifyView struct {
	Outcome      string `json:"outcome"`
	AttendeeName string `json:"attendee_name,omitempty"`
}

// VerifyCheckIn resolves a scanned ticket token at the door.
func (h *Handler) VerifyCheckIn(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	if auth.Role != domain.RoleOrganizer && auth.Role != domain.RoleAdmin {
		handleErr(w, r, domain.ErrForbidden("only organizers can verify check-ins"))
		return
	}

	var req verifyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		fail(w, r, http.StatusBadRequest, "validation_error", "token is required", validationMeta(err))
		return
	}

	res, err := h.checkin.Verify(r.Context(), req.Token)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, verifyView{
		Outcome:      string(res.Outcome),
		AttendeeName: res.AttendeeName,
	})
}
