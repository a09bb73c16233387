package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/razzbabu4/diagnostic-center-server/internal/domain"
	"github.com/razzbabu4/diagnostic-center-server/internal/http/response"
)

func (h *Handlers) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.banners.List(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, banners)
}

func (h *Handlers) GetBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.banners.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *Handlers) ActiveBanner(w http.ResponseWriter, r *http.Request) {
	b, err := h.banners.Active(r.Context())
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *Handlers) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var in domain.BannerInput
	if err := decodeJSON(w, r, &in); err != nil {
		response.FromError(w, r, err)
		return
	}
	res, err := h.banners.Create(r.Context(), in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

func (h *Handlers) ActivateBanner(w http.ResponseWriter, r *http.Request) {
	res, err := h.banners.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}

func (h *Handlers) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	res, err := h.banners.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, res)
}
