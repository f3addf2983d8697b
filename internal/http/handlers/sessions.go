package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/http/middleware"
	"storefront/internal/pricerange"
	"storefront/internal/services"
	"storefront/internal/state"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type createSessionRequest struct {
	Category string `json:"category"`
}

type sortRequest struct {
	SortBy *string `json:"sortBy"`
}

type categoryRequest struct {
	Category string `json:"category" binding:"required"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type priceInputRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

type priceDragRequest struct {
	Field string   `json:"field" binding:"required"`
	Value *float64 `json:"value" binding:"required"`
}

type slideGotoRequest struct {
	Index *int `json:"index" binding:"required"`
}

type interactionRequest struct {
	Kind string `json:"kind"`
}

// bindOptionalJSON accepts an empty body and leaves dst untouched then.
func bindOptionalJSON[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid payload", err)
		return false
	}
	return true
}

func (a *API) session(c *gin.Context) (*services.Session, bool) {
	s, err := a.Sessions.Get(c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return nil, false
	}
	return s, true
}

// CreateSession opens a browsing session, on the default section unless a
// category is given.
func (a *API) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	category := domain.DefaultCategory
	if strings.TrimSpace(req.Category) != "" {
		parsed, err := domain.ParseCategory(req.Category)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		category = parsed
	}
	s, err := a.Sessions.Create(category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Location", "/api/sessions/"+s.ID())
	c.JSON(http.StatusCreated, s.View())
}

func (a *API) GetSession(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

func (a *API) DeleteSession(c *gin.Context) {
	if err := a.Sessions.Delete(c.Param("id")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PatchSessionFilters merges the given keys into the session filters. A key
// set to null clears it; absent keys are left alone.
func (a *API) PatchSessionFilters(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var raw map[string]json.RawMessage
	if !BindJSONOrError(c, &raw) {
		return
	}
	patch, err := decodeFilterPatch(raw)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	utils.LogEvent(middleware.GetRequestID(c), "session", "patch_filters", "filters changed",
		zap.String("session_id", s.ID()), zap.Int("keys", len(raw)))
	c.JSON(http.StatusOK, s.PatchFilters(patch))
}

func (a *API) ClearSessionFilters(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.ClearFilters())
}

// SetSessionSort sets or, with null or "", removes the sort.
func (a *API) SetSessionSort(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req sortRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	var key *domain.SortKey
	if req.SortBy != nil {
		parsed, err := domain.ParseSortKey(*req.SortBy)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		key = parsed
	}
	c.JSON(http.StatusOK, s.SetSort(key))
}

func (a *API) SetSessionCategory(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req categoryRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	view, err := s.SetCategory(category)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetSessionPage moves to a page. The response says whether the page
// changed and whether the client should scroll to the top.
func (a *API) SetSessionPage(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var req pageRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Page < 1 {
		RespondDomainError(c, domain.ValidationError{Field: "page", Msg: "must be a positive integer"})
		return
	}
	change, view := s.RequestPage(req.Page)
	c.JSON(http.StatusOK, gin.H{"change": change, "session": view})
}

// SessionPrice handles price field input, blur and slider drag.
func (a *API) SessionPrice(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	switch c.Param("action") {
	case "input":
		var req priceInputRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		field, err := parseField(req.Field)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		accepted, view := s.PriceInput(field, req.Value)
		c.JSON(http.StatusOK, gin.H{"accepted": accepted, "session": view})
	case "blur":
		var req priceInputRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		field, err := parseField(req.Field)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.PriceBlur(field))
	case "drag":
		var req priceDragRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		field, err := parseField(req.Field)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.PriceDrag(field, *req.Value))
	default:
		respondError(c, http.StatusNotFound, "not_found", "unknown price action", nil)
	}
}

// SessionSlider handles showcase navigation and autoplay pause/resume.
func (a *API) SessionSlider(c *gin.Context) {
	s, ok := a.session(c)
	if !ok {
		return
	}
	var action state.Action
	switch c.Param("action") {
	case "next":
		action = state.NextSlide{}
	case "prev":
		action = state.PrevSlide{}
	case "goto":
		var req slideGotoRequest
		if !BindJSONOrError(c, &req) {
			return
		}
		action = state.GoToSlide{Index: *req.Index}
	case "pause", "resume":
		req := interactionRequest{Kind: string(state.InteractionHover)}
		if !bindOptionalJSON(c, &req) {
			return
		}
		kind, err := parseInteraction(req.Kind)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if c.Param("action") == "pause" {
			action = state.BeginInteraction{Kind: kind}
		} else {
			action = state.EndInteraction{Kind: kind}
		}
	case "toggle":
		action = state.ToggleAutoPlay{}
	default:
		respondError(c, http.StatusNotFound, "not_found", "unknown slider action", nil)
		return
	}
	c.JSON(http.StatusOK, s.Slider(action))
}

func parseField(raw string) (pricerange.Field, error) {
	f := pricerange.Field(strings.ToLower(strings.TrimSpace(raw)))
	if !f.Valid() {
		return "", domain.ValidationError{Field: "field", Msg: `must be "min" or "max"`}
	}
	return f, nil
}

func parseInteraction(raw string) (state.Interaction, error) {
	switch k := state.Interaction(strings.ToLower(strings.TrimSpace(raw))); k {
	case "", state.InteractionHover:
		return state.InteractionHover, nil
	case state.InteractionTouch:
		return k, nil
	}
	return "", domain.ValidationError{Field: "kind", Msg: `must be "hover" or "touch"`}
}

// decodeFilterPatch turns a JSON object into a patch that only touches the
// keys present in it.
func decodeFilterPatch(raw map[string]json.RawMessage) (state.FilterPatch, error) {
	var p state.FilterPatch
	for key, msg := range raw {
		isNull := strings.TrimSpace(string(msg)) == "null"
		switch key {
		case "fabrics", "colors", "sizes":
			values := []string{}
			if !isNull {
				if err := json.Unmarshal(msg, &values); err != nil {
					return p, domain.ValidationError{Field: key, Msg: "must be an array of strings", Err: err}
				}
			}
			switch key {
			case "fabrics":
				p.Fabrics = values
			case "colors":
				p.Colors = values
			default:
				p.Sizes = values
			}
		case "minPrice", "maxPrice":
			opt := state.Unset[float64]()
			if !isNull {
				var v float64
				if err := json.Unmarshal(msg, &v); err != nil {
					return p, domain.ValidationError{Field: key, Msg: "must be a number", Err: err}
				}
				if v < 0 {
					return p, domain.ValidationError{Field: key, Msg: "must not be negative"}
				}
				opt = state.SetTo(v)
			}
			if key == "minPrice" {
				p.MinPrice = opt
			} else {
				p.MaxPrice = opt
			}
		case "isNew":
			p.IsNew = state.Unset[bool]()
			if !isNull {
				var v bool
				if err := json.Unmarshal(msg, &v); err != nil {
					return p, domain.ValidationError{Field: key, Msg: "must be a boolean", Err: err}
				}
				p.IsNew = state.SetTo(v)
			}
		case "sortBy":
			p.SortBy = state.Unset[domain.SortKey]()
			if !isNull {
				var v string
				if err := json.Unmarshal(msg, &v); err != nil {
					return p, domain.ValidationError{Field: key, Msg: "must be a string", Err: err}
				}
				sk, err := domain.ParseSortKey(v)
				if err != nil {
					return p, err
				}
				if sk != nil {
					p.SortBy = state.SetTo(*sk)
				}
			}
		default:
			return p, domain.ValidationError{Field: key, Msg: fmt.Sprintf("unknown filter %q", key)}
		}
	}
	return p, nil
}
