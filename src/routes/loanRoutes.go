package routes

import (
	"github.com/biblioteca/loans-service/src/controllers"
	"github.com/gin-gonic/gin"
)

// SetupLoanRoutes mounts the /loans API. guards run before every loan handler.
func SetupLoanRoutes(router gin.IRouter, loanController *controllers.LoanController, guards ...gin.HandlerFunc) {
	loans := router.Group("/loans")
	loans.Use(guards...)
	{
		loans.GET("", loanController.GetAllLoans)
		loans.POST("", loanController.CreateLoan)

		loans.GET("/active", loanController.GetActiveLoans)
		loans.GET("/overdue", loanController.GetOverdueLoans)
		loans.GET("/statistics", loanController.GetStatistics)
		loans.GET("/export", loanController.ExportLoans)
		loans.POST("/sweep", loanController.RunSweep)

		loans.GET("/user/:userId", loanController.GetLoansByUser)
		loans.GET("/user/:userId/active", loanController.UserHasActiveLoans)
		loans.GET("/user/:userId/count-active", loanController.CountActiveLoansForUser)
		loans.GET("/book/:bookId", loanController.GetLoansByBook)
		loans.GET("/book/:bookId/loaned", loanController.IsBookOnLoan)

		loans.GET("/:id", loanController.GetLoanByID)
		loans.PUT("/:id", loanController.UpdateLoan)
		loans.DELETE("/:id", loanController.DeleteLoan)
		loans.POST("/:id/return", loanController.ReturnLoan)
	}
}
