package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"guesthouse/internal/domain"
	"guesthouse/internal/models"
	"guesthouse/internal/report"
)

type roomBody struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	BedOnly     int64    `json:"bed_only"`
	BB          int64    `json:"bb"`
	HalfBoard   int64    `json:"half_board"`
	FullBoard   int64    `json:"full_board"`
	Capacity    int      `json:"capacity"`
	Amenities   []string `json:"amenities"`
	ImageURL    string   `json:"image_url,omitempty"`
}

type bookingBody struct {
	RoomID          string `json:"room_id"`
	GuestName       string `json:"guest_name"`
	GuestEmail      string `json:"guest_email"`
	GuestPhone      string `json:"guest_phone"`
	CheckIn         string `json:"check_in_date"`
	CheckOut        string `json:"check_out_date"`
	Guests          int    `json:"guests"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

type quoteBody struct {
	RoomID    string `json:"room_id"`
	CheckIn   string `json:"check_in_date"`
	CheckOut  string `json:"check_out_date"`
	FareClass string `json:"fare_class,omitempty"`
}

type paymentBody struct {
	Amount           int64  `json:"amount"`
	PaymentType      string `json:"payment_type"`
	PaymentMethod    string `json:"payment_method"`
	PaymentReference string `json:"payment_reference,omitempty"`
}

type statusBody struct {
	Status string `json:"status"`
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]string{"status": "ready"}
	if s.deps.Mode != nil {
		resp["mode"] = s.deps.Mode.Mode()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	checkIn, checkOut, ok := stayFromQuery(w, r)
	if !ok {
		return
	}

	rooms, err := s.deps.Bookings.RoomsWithAvailability(r.Context(), checkIn, checkOut)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) handleRoom(w http.ResponseWriter, r *http.Request) {
	room, err := s.deps.Bookings.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if room == nil {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleRoomAvailability(w http.ResponseWriter, r *http.Request) {
	checkIn, checkOut, ok := stayFromQuery(w, r)
	if !ok {
		return
	}
	if checkIn == nil {
		writeError(w, http.StatusBadRequest, "check_in_date and check_out_date are required")
		return
	}

	roomID := r.PathValue("id")
	available := s.deps.Bookings.CheckAvailability(r.Context(), roomID, *checkIn, *checkOut)
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":        roomID,
		"check_in_date":  checkIn.Format(models.DateLayout),
		"check_out_date": checkOut.Format(models.DateLayout),
		"available":      available,
	})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	var body quoteBody
	if !decodeJSON(w, r, &body) {
		return
	}

	v := domain.NewValidationError()
	checkIn := parseDateField(v, "check_in_date", body.CheckIn)
	checkOut := parseDateField(v, "check_out_date", body.CheckOut)
	if err := v.OrNil(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	q, err := s.deps.Bookings.Quote(r.Context(), body.RoomID, checkIn, checkOut, body.FareClass)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingBody
	if !decodeJSON(w, r, &body) {
		return
	}

	v := domain.NewValidationError()
	req := models.BookingRequest{
		RoomID:          strings.TrimSpace(body.RoomID),
		GuestName:       strings.TrimSpace(body.GuestName),
		GuestEmail:      strings.TrimSpace(body.GuestEmail),
		GuestPhone:      strings.TrimSpace(body.GuestPhone),
		CheckIn:         parseDateField(v, "check_in_date", body.CheckIn),
		CheckOut:        parseDateField(v, "check_out_date", body.CheckOut),
		Guests:          body.Guests,
		SpecialRequests: body.SpecialRequests,
	}
	if err := v.OrNil(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	booking, err := s.deps.Bookings.CreateBooking(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *HTTPServer) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	var body paymentBody
	if !decodeJSON(w, r, &body) {
		return
	}

	payment, err := s.deps.Payments.RecordPayment(r.Context(), models.PaymentRequest{
		BookingID:        r.PathValue("id"),
		Amount:           body.Amount,
		PaymentType:      body.PaymentType,
		PaymentMethod:    body.PaymentMethod,
		PaymentReference: body.PaymentReference,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

// handleContact returns the phone and WhatsApp links. When booking details are
// passed as query parameters the WhatsApp message is prefilled from them.
func (s *HTTPServer) handleContact(w http.ResponseWriter, r *http.Request) {
	if s.deps.Contact == nil {
		writeError(w, http.StatusServiceUnavailable, "contact details are not configured")
		return
	}

	q := r.URL.Query()
	if q.Get("guest_name") == "" && q.Get("room_id") == "" {
		writeJSON(w, http.StatusOK, s.deps.Contact.Links(q.Get("message")))
		return
	}

	req := models.BookingRequest{
		RoomID:    q.Get("room_id"),
		GuestName: q.Get("guest_name"),
	}
	if t, err := models.ParseDate(q.Get("check_in_date")); err == nil {
		req.CheckIn = t
	}
	if t, err := models.ParseDate(q.Get("check_out_date")); err == nil {
		req.CheckOut = t
	}
	req.Guests, _ = strconv.Atoi(q.Get("guests"))

	roomName := req.RoomID
	if req.RoomID != "" {
		if room, err := s.deps.Bookings.GetRoom(r.Context(), req.RoomID); err == nil && room != nil {
			roomName = room.Name
		}
	}
	writeJSON(w, http.StatusOK, s.deps.Contact.ForBooking(req, roomName))
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.BookingFilter{RoomID: strings.TrimSpace(q.Get("room_id"))}

	v := domain.NewValidationError()
	if raw := q.Get("from"); raw != "" {
		filter.From = parseDateField(v, "from", raw)
	}
	if raw := q.Get("to"); raw != "" {
		filter.To = parseDateField(v, "to", raw)
	}
	for _, st := range splitCSV(q.Get("status")) {
		if !models.IsBookingStatus(st) {
			v.Add("status", fmt.Sprintf("unknown status %q", st))
			continue
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add("limit", "must be a non-negative integer")
		}
		filter.Limit = n
	}
	if err := v.OrNil(); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	bookings, err := s.deps.Bookings.ListBookings(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	booking, err := s.deps.Bookings.GetBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if booking == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleSetBookingStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decodeJSON(w, r, &body) {
		return
	}

	booking, err := s.deps.Bookings.SetStatus(r.Context(), r.PathValue("id"), strings.TrimSpace(body.Status))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if booking == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleBookingPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.PaymentsForBooking(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *HTTPServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	booking, err := s.deps.Payments.Reconcile(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if booking == nil {
		writeError(w, http.StatusNotFound, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.ListPayments(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if payments == nil {
		payments = []*models.Payment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (s *HTTPServer) handleSetPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if !decodeJSON(w, r, &body) {
		return
	}

	payment, err := s.deps.Payments.UpdatePaymentStatus(r.Context(), r.PathValue("id"), strings.TrimSpace(body.Status))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if payment == nil {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reports == nil {
		writeError(w, http.StatusServiceUnavailable, "reports are not available")
		return
	}

	name := r.PathValue("name")
	result, err := report.Run(r.Context(), s.deps.Reports, name)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": name, "data": result})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not available")
		return
	}

	// The workbook is built in memory so a failure still yields a clean 500.
	var buf bytes.Buffer
	if err := s.deps.Exporter.WriteTo(r.Context(), &buf); err != nil {
		s.writeServiceError(w, r, fmt.Errorf("export workbook: %w", err))
		return
	}

	fileName := fmt.Sprintf("guesthouse_export_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error().Err(err).Msg("export write failed")
	}
}

func (s *HTTPServer) handlePurge(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Bookings.PurgeStalePending(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"purged": n})
}

func (s *HTTPServer) handleSaveRoom(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rooms == nil {
		writeError(w, http.StatusServiceUnavailable, "room catalog is not editable")
		return
	}
	var body roomBody
	if !decodeJSON(w, r, &body) {
		return
	}

	room, err := s.deps.Rooms.SaveRoom(r.Context(), r.PathValue("id"), models.Room{
		Name:        body.Name,
		Description: body.Description,
		BedOnly:     body.BedOnly,
		BB:          body.BB,
		HalfBoard:   body.HalfBoard,
		FullBoard:   body.FullBoard,
		Capacity:    body.Capacity,
		Amenities:   body.Amenities,
		ImageURL:    body.ImageURL,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *HTTPServer) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if s.deps.Rooms == nil {
		writeError(w, http.StatusServiceUnavailable, "room catalog is not editable")
		return
	}

	deleted, err := s.deps.Rooms.DeleteRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "room not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stayFromQuery reads optional check_in_date/check_out_date query parameters.
// It writes a 400 and returns false on malformed input.
func stayFromQuery(w http.ResponseWriter, r *http.Request) (*time.Time, *time.Time, bool) {
	q := r.URL.Query()
	rawIn, rawOut := q.Get("check_in_date"), q.Get("check_out_date")
	if rawIn == "" && rawOut == "" {
		return nil, nil, true
	}

	v := domain.NewValidationError()
	checkIn := parseDateField(v, "check_in_date", rawIn)
	checkOut := parseDateField(v, "check_out_date", rawOut)
	if rawIn == "" {
		v.Add("check_in_date", "check-in date is required with check-out date")
	}
	if rawOut == "" {
		v.Add("check_out_date", "check-out date is required with check-in date")
	}
	if v.OrNil() == nil && !checkOut.After(checkIn) {
		v.Add("check_out_date", "check-out date must be after check-in date")
	}
	if v.OrNil() != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": v.Fields})
		return nil, nil, false
	}
	return &checkIn, &checkOut, true
}

// parseDateField leaves an empty value zero for the service to report.
func parseDateField(v *domain.ValidationError, field, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		v.Add(field, "invalid date; expected YYYY-MM-DD")
		return time.Time{}
	}
	return t
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
