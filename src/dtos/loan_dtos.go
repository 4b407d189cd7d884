package dtos

import (
	"time"

	"github.com/biblioteca/loans-service/src/services"
	"github.com/biblioteca/loans-service/src/workers"
)

// DateLayout is the wire format of every calendar date.
const DateLayout = time.DateOnly

// CreateLoanRequestDTO is the body of POST /loans.
type CreateLoanRequestDTO struct {
	BookId  int    `json:"bookId" binding:"required,gt=0"`
	UserId  int    `json:"userId" binding:"required,gt=0"`
	DueDate string `json:"dueDate" binding:"required,datetime=2006-01-02"`
	Notes   string `json:"notes" binding:"max=500"`
}

// UpdateLoanRequestDTO is the body of PUT /loans/:id. Omitted fields are kept.
type UpdateLoanRequestDTO struct {
	DueDate *string `json:"dueDate" binding:"omitempty,datetime=2006-01-02"`
	Notes   *string `json:"notes" binding:"omitempty,max=500"`
}

// ReturnLoanRequestDTO is the optional body of POST /loans/:id/return.
type ReturnLoanRequestDTO struct {
	Notes *string `json:"notes" binding:"omitempty,max=500"`
	Lost  bool    `json:"lost"`
}

type LoanResponseDTO struct {
	ID         int     `json:"id"`
	BookId     int     `json:"bookId"`
	BookTitle  string  `json:"bookTitle"`
	UserId     int     `json:"userId"`
	LoanDate   string  `json:"loanDate"`
	DueDate    string  `json:"dueDate"`
	ReturnDate *string `json:"returnDate"`
	Status     string  `json:"status"`
	DaysLate   int     `json:"daysLate"`
	Overdue    bool    `json:"overdue"`
	Notes      string  `json:"notes,omitempty"`
}

// NewLoanResponseDTO maps a loan to its JSON representation.
func NewLoanResponseDTO(loan *services.LoanDetails) LoanResponseDTO {
	dto := LoanResponseDTO{
		ID:        loan.Id,
		BookId:    loan.BookId,
		BookTitle: loan.BookTitle,
		UserId:    loan.UserId,
		LoanDate:  loan.LoanDate.Format(DateLayout),
		DueDate:   loan.DueDate.Format(DateLayout),
		Status:    string(loan.Status),
		DaysLate:  loan.DaysLate,
		Overdue:   loan.Overdue,
		Notes:     loan.Notes,
	}
	if loan.ReturnDate != nil {
		returned := loan.ReturnDate.Format(DateLayout)
		dto.ReturnDate = &returned
	}
	return dto
}

func NewLoanResponseDTOs(loans []services.LoanDetails) []LoanResponseDTO {
	out := make([]LoanResponseDTO, 0, len(loans))
	for i := range loans {
		out = append(out, NewLoanResponseDTO(&loans[i]))
	}
	return out
}

// StatisticsDTO is the body of GET /loans/statistics.
type StatisticsDTO struct {
	Active      int64    `json:"active"`
	Returned    int64    `json:"returned"`
	Overdue     int64    `json:"overdue"`
	Lost        int64    `json:"lost"`
	Total       int64    `json:"total"`
	PctActive   *float64 `json:"pctActive,omitempty"`
	PctReturned *float64 `json:"pctReturned,omitempty"`
	PctLost     *float64 `json:"pctLost,omitempty"`
	AsOf        string   `json:"asOf"`
}

func NewStatisticsDTO(s *services.Statistics) StatisticsDTO {
	return StatisticsDTO{
		Active:      s.Active,
		Returned:    s.Returned,
		Overdue:     s.Overdue,
		Lost:        s.Lost,
		Total:       s.Total,
		PctActive:   s.PctActive,
		PctReturned: s.PctReturned,
		PctLost:     s.PctLost,
		AsOf:        s.AsOf.Format(DateLayout),
	}
}

// SweepResultDTO is the body of POST /loans/sweep.
type SweepResultDTO = workers.SweepResult

// UpstreamStatusDTO reports whether one upstream service answered.
type UpstreamStatusDTO struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// HealthDTO is the body of the health endpoints.
type HealthDTO struct {
	Status    string              `json:"status"`
	Service   string              `json:"service"`
	Timestamp time.Time           `json:"timestamp"`
	Upstreams []UpstreamStatusDTO `json:"upstreams,omitempty"`
}

func NewUpstreamStatusDTOs(statuses []services.UpstreamStatus) []UpstreamStatusDTO {
	out := make([]UpstreamStatusDTO, 0, len(statuses))
	for _, st := range statuses {
		status := "UP"
		if !st.Up {
			status = "DOWN"
		}
		out = append(out, UpstreamStatusDTO{
			Name:      st.Name,
			Status:    status,
			LatencyMs: st.Latency.Milliseconds(),
			Error:     st.Error,
		})
	}
	return out
}
