package controllers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/biblioteca/loans-service/src/dtos"
	"github.com/biblioteca/loans-service/src/logger"
	"github.com/biblioteca/loans-service/src/models"
	"github.com/biblioteca/loans-service/src/services"
	"github.com/biblioteca/loans-service/src/workers"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type LoanController struct {
	service *services.LoanService
	export  *services.LoanExportService
	sweeper *workers.OverdueSweeper
	log     logger.Logger
}

func NewLoanController(service *services.LoanService, export *services.LoanExportService, sweeper *workers.OverdueSweeper, log logger.Logger) *LoanController {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	UseJSONFieldNames()
	return &LoanController{
		service: service,
		export:  export,
		sweeper: sweeper,
		log:     log.WithComponent("loan-controller"),
	}
}

// pathID reads a positive integer path parameter, answering 400 otherwise.
func pathID(ctx *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		abortWithError(ctx, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name), map[string]string{
			name: "must be a positive number",
		})
		return 0, false
	}
	return id, true
}

// GetAllLoans handles GET requests to retrieve all loan records
func (c *LoanController) GetAllLoans(ctx *gin.Context) {
	loans, err := c.service.GetAllLoans(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTOs(loans))
}

// GetLoanByID handles GET requests to retrieve a loan by its ID
func (c *LoanController) GetLoanByID(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	loan, err := c.service.GetLoan(ctx.Request.Context(), id)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTO(loan))
}

// CreateLoan handles POST requests to create a new loan record
func (c *LoanController) CreateLoan(ctx *gin.Context) {
	var req dtos.CreateLoanRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	due, err := time.Parse(dtos.DateLayout, req.DueDate)
	if err != nil {
		writeError(ctx, c.log, &services.ValidationError{Fields: map[string]string{
			"dueDate": "must be a date formatted as YYYY-MM-DD",
		}})
		return
	}

	loan, err := c.service.CreateLoan(ctx.Request.Context(), services.CreateLoanInput{
		BookId:  req.BookId,
		UserId:  req.UserId,
		DueDate: due,
		Notes:   req.Notes,
	})
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusCreated, dtos.NewLoanResponseDTO(loan))
}

// UpdateLoan handles PUT requests to update an existing loan record
func (c *LoanController) UpdateLoan(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dtos.UpdateLoanRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		writeError(ctx, c.log, err)
		return
	}

	in := services.UpdateLoanInput{Notes: req.Notes}
	if req.DueDate != nil {
		due, err := time.Parse(dtos.DateLayout, *req.DueDate)
		if err != nil {
			writeError(ctx, c.log, &services.ValidationError{Fields: map[string]string{
				"dueDate": "must be a date formatted as YYYY-MM-DD",
			}})
			return
		}
		in.DueDate = &due
	}

	loan, err := c.service.UpdateLoan(ctx.Request.Context(), id, in)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTO(loan))
}

// DeleteLoan handles DELETE requests to remove a loan record
func (c *LoanController) DeleteLoan(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.service.DeleteLoan(ctx.Request.Context(), id); err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// ReturnLoan handles POST /loans/:id/return. The body is optional.
func (c *LoanController) ReturnLoan(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dtos.ReturnLoanRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, c.log, err)
		return
	}

	loan, err := c.service.RegisterReturn(ctx.Request.Context(), id, req.Notes, req.Lost)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTO(loan))
}

func (c *LoanController) GetLoansByUser(ctx *gin.Context) {
	userId, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	loans, err := c.service.GetLoansByUser(ctx.Request.Context(), userId)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTOs(loans))
}

func (c *LoanController) GetLoansByBook(ctx *gin.Context) {
	bookId, ok := pathID(ctx, "bookId")
	if !ok {
		return
	}

	loans, err := c.service.GetLoansByBook(ctx.Request.Context(), bookId)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTOs(loans))
}

func (c *LoanController) GetActiveLoans(ctx *gin.Context) {
	loans, err := c.service.GetActiveLoans(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTOs(loans))
}

func (c *LoanController) GetOverdueLoans(ctx *gin.Context) {
	loans, err := c.service.GetOverdueLoans(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewLoanResponseDTOs(loans))
}

func (c *LoanController) UserHasActiveLoans(ctx *gin.Context) {
	userId, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	has, err := c.service.UserHasActiveLoans(ctx.Request.Context(), userId)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, has)
}

func (c *LoanController) CountActiveLoansForUser(ctx *gin.Context) {
	userId, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	count, err := c.service.CountActiveLoansForUser(ctx.Request.Context(), userId)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, count)
}

func (c *LoanController) IsBookOnLoan(ctx *gin.Context) {
	bookId, ok := pathID(ctx, "bookId")
	if !ok {
		return
	}

	onLoan, err := c.service.IsBookOnLoan(ctx.Request.Context(), bookId)
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, onLoan)
}

func (c *LoanController) GetStatistics(ctx *gin.Context) {
	stats, err := c.service.GetStatistics(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.NewStatisticsDTO(stats))
}

// ExportLoans handles GET /loans/export, optionally filtered with ?status=.
func (c *LoanController) ExportLoans(ctx *gin.Context) {
	var status models.LoanStatus
	if raw := ctx.Query("status"); raw != "" {
		parsed, ok := models.ParseLoanStatus(raw)
		if !ok {
			abortWithError(ctx, http.StatusBadRequest, "Invalid request", map[string]string{
				"status": "must be one of ACTIVE, OVERDUE, RETURNED, LOST",
			})
			return
		}
		status = parsed
	}

	var buf bytes.Buffer
	if err := c.export.ExportLoans(ctx.Request.Context(), &buf, status); err != nil {
		writeError(ctx, c.log, err)
		return
	}

	filename := fmt.Sprintf("loans-%s.xlsx", c.service.Today().Format(dtos.DateLayout))
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	ctx.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// RunSweep handles POST /loans/sweep.
func (c *LoanController) RunSweep(ctx *gin.Context) {
	result, err := c.sweeper.Sweep(ctx.Request.Context())
	if err != nil {
		writeError(ctx, c.log, err)
		return
	}
	ctx.JSON(http.StatusOK, dtos.SweepResultDTO(*result))
}
