package app

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/quickshow/quickshow/internal/domain"
	"github.com/shopspring/decimal"
)

type DashboardResponse struct {
	TotalBookings int                 `json:"totalBookings"`
	TotalRevenue  decimal.Decimal     `json:"totalRevenue"`
	TotalUsers    int                 `json:"totalUsers"`
	ActiveShows   []AdminShowResponse `json:"activeShows"`
}

type AdminShowResponse struct {
	Id         uuid.UUID       `json:"id"`
	MovieId    string          `json:"movieId"`
	MovieTitle string          `json:"movieTitle"`
	StartTime  time.Time       `json:"startTime"`
	Price      decimal.Decimal `json:"price"`
}

type AdminBookingResponse struct {
	BookingResponse
	UserId string `json:"userId"`
}

// GetDashboard aggregates booking and show counters for the admin landing
// page. Revenue counts paid bookings only.
func (app *Application) GetDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := app.bookingRepo.GetDashboardData(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	activeShows := make([]AdminShowResponse, 0, len(data.ActiveShows))
	for _, show := range data.ActiveShows {
		activeShows = append(activeShows, toAdminShowResponse(show))
	}

	resp := DashboardResponse{
		TotalBookings: data.TotalBookings,
		TotalRevenue:  data.TotalRevenue,
		TotalUsers:    data.TotalUsers,
		ActiveShows:   activeShows,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ListAllBookings returns every booking across users, newest first.
func (app *Application) ListAllBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := app.bookingRepo.GetAll(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]AdminBookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		resp = append(resp, AdminBookingResponse{
			BookingResponse: toBookingResponse(booking),
			UserId:          booking.UserID,
		})
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ListAllShows returns every upcoming show with its movie, soonest first.
func (app *Application) ListAllShows(w http.ResponseWriter, r *http.Request) {
	shows, err := app.showRepo.GetUpcoming(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := make([]AdminShowResponse, 0, len(shows))
	for _, show := range shows {
		resp = append(resp, toAdminShowResponse(show))
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toAdminShowResponse(show *domain.Show) AdminShowResponse {
	resp := AdminShowResponse{
		Id:        show.ID,
		MovieId:   show.MovieID,
		StartTime: show.StartTime,
		Price:     show.Price,
	}

	if show.Movie != nil {
		resp.MovieTitle = show.Movie.Title
	}

	return resp
}
