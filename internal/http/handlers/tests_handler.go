package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

// parsePage reads ?page=&item=. Both absent means no paging.
func parsePage(r *http.Request) (*domain.Page, error) {
	q := r.URL.Query()
	rawPage, rawItem := q.Get("page"), q.Get("item")
	if rawPage == "" && rawItem == "" {
		return nil, nil
	}
	if rawPage == "" {
		rawPage = "0"
	}
	index, err := strconv.Atoi(rawPage)
	if err != nil {
		return nil, fmt.Errorf("%w: page must be a number", domain.ErrValidation)
	}
	size := domain.MaxPageSize
	if rawItem != "" {
		if size, err = strconv.Atoi(rawItem); err != nil {
			return nil, fmt.Errorf("%w: item must be a number", domain.ErrValidation)
		}
	}
	p, err := domain.NewPage(index, size)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (h *Handlers) ListTests(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if page == nil {
		tests, err := h.tests.List(r.Context())
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		response.JSON(w, http.StatusOK, tests)
		return
	}

	tests, total, err := h.tests.Page(r.Context(), *page)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	response.JSON(w, http.StatusOK, tests)
}

func (h *Handlers) TotalTestCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.tests.Count(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *Handlers) SearchTestDate(w http.ResponseWriter, r *http.Request) {
	tests, err := h.tests.SearchByDate(r.Context(), chi.URLParam(r, "testDate"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, tests)
}

func (h *Handlers) GetTest(w http.ResponseWriter, r *http.Request) {
	t, err := h.tests.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *Handlers) CreateTest(w http.ResponseWriter, r *http.Request) {
	var in domain.TestInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.tests.Create(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

func (h *Handlers) ReplaceTest(w http.ResponseWriter, r *http.Request) {
	var in domain.TestInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.tests.Replace(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) DeleteTest(w http.ResponseWriter, r *http.Request) {
	res, err := h.tests.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
