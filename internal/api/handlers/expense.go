package handlers

import (
	"net/http"

	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ExpenseHandler handles HTTP requests for expenses
type ExpenseHandler struct {
	service service.ExpenseServiceInterface
}

// NewExpenseHandler creates a new expense handler
func NewExpenseHandler(service service.ExpenseServiceInterface) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// CreateExpense adds an expense to a group
// @Summary Add an expense
// @Description Add an expense paid by one member and split equally; every other member is notified
// @Tags expenses
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param expense body service.CreateExpenseRequest true "Expense data"
// @Success 201 {object} models.Expense "Successfully created expense"
// @Failure 400 {object} ErrorResponse "Invalid expense"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups/{groupId}/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequestBody)
		return
	}

	expense, err := h.service.Create(c.Request.Context(), p, c.Param("groupId"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, expense)
}

// ListExpenses lists a group's expenses
// @Summary List group expenses
// @Description Get the group's expenses in creation order
// @Tags expenses
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {array} models.Expense "Expenses of the group"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups/{groupId}/expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	expenses, err := h.service.ListByGroup(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenses)
}

// GetSummary returns group totals and balances
// @Summary Group summary
// @Description Total spent, per-head average and each member's paid, owed and net amounts
// @Tags expenses
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} service.GroupSummary "Group summary"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups/{groupId}/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
