package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-insights/internal/fetch"
	"github.com/JakeFAU/storefront-insights/internal/profiler"
	"github.com/JakeFAU/storefront-insights/internal/storefront"
)

const (
	defaultBrandLimit = 50
	maxBrandLimit     = 500
)

// fetchInsights handles POST /api/v1/fetch-insights. It returns the profile JSON, 400 for bad
// parameters, 404 when the home page is unreachable, 503 when persistence was requested but no
// database is configured, or 500 when persisting fails.
func (s *Server) fetchInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	website := strings.TrimSpace(q.Get("website_url"))
	if website == "" {
		writeError(w, http.StatusBadRequest, "website_url is required")
		return
	}
	saveToDB, err := parseBool(q.Get("save_to_db"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid save_to_db")
		return
	}
	refresh, err := parseBool(q.Get("refresh"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid refresh")
		return
	}
	target, err := fetch.NormalizeURL(website)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid website_url")
		return
	}
	if saveToDB && s.deps.Brands == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}

	ctx := r.Context()
	profile, cached := s.cachedProfile(r, target, refresh)
	if !cached {
		profile, err = s.deps.Profiler.Profile(ctx, target)
		if err != nil {
			if errors.Is(err, profiler.ErrNotFound) {
				writeError(w, http.StatusNotFound, "website not found or not accessible")
				return
			}
			s.logger.Error("profile failed", zap.String("url", target), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		s.storeProfile(r, target, profile)
	}

	if saveToDB {
		id, err := s.deps.Brands.SaveProfile(ctx, target, profile)
		if err != nil {
			s.logger.Error("save profile failed", zap.String("url", target), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
		w.Header().Set("X-Brand-ID", strconv.FormatInt(id, 10))
	}

	if cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) cachedProfile(r *http.Request, key string, refresh bool) (*storefront.BrandProfile, bool) {
	if s.deps.Cache == nil || refresh {
		return nil, false
	}
	profile, ok, err := s.deps.Cache.Get(r.Context(), key)
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.String("url", key), zap.Error(err))
		return nil, false
	}
	return profile, ok
}

// storeProfile caches and archives a fresh profile. Failures are logged, never surfaced.
func (s *Server) storeProfile(r *http.Request, key string, profile *storefront.BrandProfile) {
	ctx := r.Context()
	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, key, profile, s.cfg.CacheTTL()); err != nil {
			s.logger.Warn("cache store failed", zap.String("url", key), zap.Error(err))
		}
	}
	if s.deps.Archiver != nil {
		if _, err := s.deps.Archiver.Archive(ctx, profile); err != nil {
			s.logger.Warn("archive failed", zap.String("url", key), zap.Error(err))
		}
	}
}

// listBrands handles GET /api/v1/brands?limit=&offset=.
func (s *Server) listBrands(w http.ResponseWriter, r *http.Request) {
	if s.deps.Brands == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	limit, offset, err := parseLimitOffset(r, defaultBrandLimit, maxBrandLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	brands, err := s.deps.Brands.ListBrands(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list brands failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"brands": brands})
}

// getBrand handles GET /api/v1/brands/{brand_id}.
func (s *Server) getBrand(w http.ResponseWriter, r *http.Request) {
	if s.deps.Brands == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	id, err := parseBrandID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, err := s.deps.Brands.GetBrand(r.Context(), id)
	if err != nil {
		if errors.Is(err, storefront.ErrBrandNotFound) {
			writeError(w, http.StatusNotFound, "brand not found")
			return
		}
		s.logger.Error("get brand failed", zap.Int64("brand_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load brand")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"brand":    detail.BrandRecord,
		"products": detail.Products,
	})
}

// deleteBrand handles DELETE /api/v1/brands/{brand_id}.
func (s *Server) deleteBrand(w http.ResponseWriter, r *http.Request) {
	if s.deps.Brands == nil {
		writeError(w, http.StatusServiceUnavailable, "database not configured")
		return
	}
	id, err := parseBrandID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.deps.Brands.DeleteBrand(r.Context(), id); err != nil {
		if errors.Is(err, storefront.ErrBrandNotFound) {
			writeError(w, http.StatusNotFound, "brand not found")
			return
		}
		s.logger.Error("delete brand failed", zap.Int64("brand_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete brand")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "brand deleted"})
}

func parseBrandID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "brand_id")
	if raw == "" {
		return 0, errors.New("brand_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid brand_id")
	}
	return id, nil
}

func parseLimitOffset(r *http.Request, def, maxLimit int) (int, int, error) {
	q := r.URL.Query()
	limit := def
	if raw := q.Get("limit"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val <= 0 {
			return 0, 0, errors.New("invalid limit")
		}
		limit = min(val, maxLimit)
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 0 {
			return 0, 0, errors.New("invalid offset")
		}
		offset = val
	}
	return limit, offset, nil
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
