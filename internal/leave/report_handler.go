package leave

import (
	"net/http"

	"hr-leave/internal/shared/response"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Balance(c *gin.Context) {
	year, err := ParseYear(c.Query("year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.reports.Balance(c.Request.Context(), c.GetString("company_id"), getActorID(c), c.Param("employeeId"), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Calendar(c *gin.Context) {
	resp, err := h.reports.Calendar(c.Request.Context(), c.GetString("company_id"), getActorID(c), c.Param("month"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) TeamStatus(c *gin.Context) {
	resp, err := h.reports.TeamStatus(c.Request.Context(), c.GetString("company_id"), getActorID(c))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DepartmentStats(c *gin.Context) {
	year, err := ParseYear(c.Query("year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.reports.DepartmentStats(c.Request.Context(), c.GetString("company_id"), getActorID(c), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) EmployeeLog(c *gin.Context) {
	year, err := ParseYear(c.Query("year"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	resp, err := h.reports.EmployeeLog(c.Request.Context(), c.GetString("company_id"), getActorID(c), c.Param("employeeId"), year)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) CreateException(c *gin.Context) {
	var req ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.exceptions.Create(c.Request.Context(), c.GetString("company_id"), getActorID(c), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) ListExceptions(c *gin.Context) {
	resp, err := h.exceptions.List(c.Request.Context(), c.GetString("company_id"), c.Query("month"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetException(c *gin.Context) {
	resp, err := h.exceptions.GetByID(c.Request.Context(), c.GetString("company_id"), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) UpdateException(c *gin.Context) {
	var req ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindError(c, err)
		return
	}

	resp, err := h.exceptions.Update(c.Request.Context(), c.GetString("company_id"), getActorID(c), c.Param("id"), req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DeleteException(c *gin.Context) {
	if err := h.exceptions.Delete(c.Request.Context(), c.GetString("company_id"), getActorID(c), c.Param("id")); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}
