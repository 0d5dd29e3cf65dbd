package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/response"
	"github.com/stemsi/compass-backend/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultHandler serves the HR result views.
type ResultHandler struct {
	results ResultAPI
	log     zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(results ResultAPI, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results: results,
		log:     log.With().Str("component", "result_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/hr/results?page=&per_page=&search=&status=
func (h *ResultHandler) List(c *gin.Context) {
	var q model.ResultListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q.Normalize()

	items, total, err := h.results.List(c.Request.Context(), q)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	if items == nil {
		items = []model.ResultSummary{}
	}
	response.SuccessWithPagination(c, http.StatusOK, items, response.NewPagination(q.Page, q.PerPage, total))
}

// Detail godoc
// GET /api/v1/hr/results/:session_id
func (h *ResultHandler) Detail(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}

	detail, err := h.results.Detail(c.Request.Context(), sid)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, detail)
}

// Export godoc
// GET /api/v1/hr/results/export.xlsx?search=
func (h *ResultHandler) Export(c *gin.Context) {
	var q model.ResultListQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	// Buffered so a failure halfway still yields a JSON error.
	var buf bytes.Buffer
	n, err := h.results.ExportXLSX(c.Request.Context(), &buf, q)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	h.log.Info().Int("rows", n).Msg("Results exported")

	name := fmt.Sprintf("compass-results-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("X-Export-Rows", strconv.Itoa(n))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
