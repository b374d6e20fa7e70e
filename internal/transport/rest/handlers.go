package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/zenith-events/zenith/internal/domain"
	appCtx "github.com/zenith-events/zenith/internal/pkg/context"
	"github.com/zenith-events/zenith/internal/service"
	"github.com/zenith-events/zenith/internal/transport/rest/response"
)

var validate = validator.New()

type Handler struct {
	events    *service.EventService
	lifecycle *service.RequestLifecycle
	checkin   *service.CheckInVerifier
	users     *service.UserService
}

func NewHandler(events *service.EventService, lifecycle *service.RequestLifecycle, checkin *service.CheckInVerifier, users *service.UserService) *Handler {
	return &Handler{events: events, lifecycle: lifecycle, checkin: checkin, users: users}
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	response.Fail(w, status, code, message, meta, appCtx.GetRequestID(r.Context()))
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	response.Err(w, err, appCtx.GetRequestID(r.Context()))
}

// validationMeta flattens validator errors into field -> tag pairs.
func validationMeta(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	meta := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		meta[fe.Field()] = fe.Tag()
	}
	return meta
}

// ----- event endpoints -----

type createEventRequest struct {
	Title               string    `json:"title" validate:"required,max=120"`
	Description         string    `json:"description" validate:"required,max=4000"`
	Date                time.Time `json:"date" validate:"required"`
	StartTime           string    `json:"start_time"`
	EndTime             string    `json:"end_time"`
	Location            string    `json:"location" validate:"required,max=160"`
	Category            string    `json:"category" validate:"required,max=80"`
	ImageURL            string    `json:"image_url" validate:"omitempty,url"`
	Capacity            int       `json:"capacity" validate:"required,min=1"`
	IsPaid              bool      `json:"is_paid"`
	Price               float64   `json:"price" validate:"omitempty,gt=0"`
	PaymentCollectionID string    `json:"payment_collection_id"`
}

type eventView struct {
	ID          string    `json:"id"`
	OrganizerID string    `json:"organizer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"start_time,omitempty"`
	EndTime     string    `json:"end_time,omitempty"`
	Location    string    `json:"location"`
	Category    string    `json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	Capacity    int       `json:"capacity"`
	Attendees   int       `json:"attendees"`
	Status      string    `json:"status"`
	IsPaid      bool      `json:"is_paid"`
	Price       float64   `json:"price,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toEventView(e *domain.Event) eventView {
	return eventView{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Category:    e.Category,
		ImageURL:    e.ImageURL,
		Capacity:    e.Capacity,
		Attendees:   e.Attendees,
		Status:      string(e.Status),
		IsPaid:      e.IsPaid,
		Price:       e.Price,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func toEventViews(events []*domain.Event) []eventView {
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, toEventView(e))
	}
	return out
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req createEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		fail(w, r, http.StatusBadRequest, "validation_error", "invalid event", validationMeta(err))
		return
	}

	ev, err := h.events.Create(r.Context(), domain.NewEventInput{
		Title:               req.Title,
		Description:         req.Description,
		Date:                req.Date,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		Location:            req.Location,
		Category:            req.Category,
		ImageURL:            req.ImageURL,
		Capacity:            req.Capacity,
		IsPaid:              req.IsPaid,
		Price:               req.Price,
		PaymentCollectionID: req.PaymentCollectionID,
	}, auth.UserID, auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusCreated, toEventView(ev))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.events.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventView(ev))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	events, err := h.events.ListApproved(r.Context(), limit, offset)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventViews(events))
}

func (h *Handler) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	events, err := h.events.ListByOrganizer(r.Context(), auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventViews(events))
}

func (h *Handler) ListEventsByStatus(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	status := domain.EventStatus(r.URL.Query().Get("status"))
	if !status.Valid() {
		fail(w, r, http.StatusBadRequest, "validation_error", "status must be Pending, Approved or Rejected", nil)
		return
	}
	events, err := h.events.ListByStatus(r.Context(), status, auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventViews(events))
}

type updateEventRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=120"`
	Description *string    `json:"description" validate:"omitempty,max=4000"`
	Date        *time.Time `json:"date"`
	StartTime   *string    `json:"start_time"`
	EndTime     *string    `json:"end_time"`
	Location    *string    `json:"location" validate:"omitempty,max=160"`
	Category    *string    `json:"category" validate:"omitempty,max=80"`
	ImageURL    *string    `json:"image_url" validate:"omitempty,url"`
	Capacity    *int       `json:"capacity" validate:"omitempty,min=1"`
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req updateEventRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		fail(w, r, http.StatusBadRequest, "validation_error", "invalid update", validationMeta(err))
		return
	}

	ev, err := h.events.Update(r.Context(), chi.URLParam(r, "eventID"), domain.EventUpdate{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Location:    req.Location,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Capacity:    req.Capacity,
	}, auth.UserID, auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toEventView(ev))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	if err := h.events.Delete(r.Context(), chi.URLParam(r, "eventID"), auth.UserID, auth.Role); err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]string{"msg": "deleted"})
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Approved Rejected"`
}

func (h *Handler) SetEventStatus(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req setStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}
	if err := validate.Struct(req); err != nil {
		fail(w, r, http.StatusBadRequest, "validation_error", "status must be Approved or Rejected", validationMeta(err))
		return
	}

	if err := h.events.SetStatus(r.Context(), chi.URLParam(r, "eventID"), domain.EventStatus(req.Status), auth.Role); err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) ReviewEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	advice, err := h.events.Review(r.Context(), chi.URLParam(r, "eventID"), auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, advice)
}

// ----- user endpoints -----

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}

// Me upserts the caller's profile from the verified token and returns it.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	u, err := h.users.EnsureUser(r.Context(), auth.UserID, auth.Name, auth.Email)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, toUserView(u))
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}
	users, err := h.users.List(r.Context(), auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	response.Data(w, http.StatusOK, out)
}
