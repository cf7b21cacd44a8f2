package www

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"partsdesk/market"
	"partsdesk/orders"
	"partsdesk/status"
)

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	if h.db == nil {
		errorJSON(w, http.StatusServiceUnavailable, "no user store")
		return
	}
	user, err := h.db.GetAdminUser(req.Username)
	if err != nil || user == nil || !checkPassword(req.Password, user.PasswordHash) {
		errorJSON(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	h.sessions.setUser(w, r, user.Username)
	writeJSON(w, http.StatusOK, map[string]string{"username": user.Username})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.clear(w, r)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiOpenOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Repo().Open())
}

func (h *Handlers) apiMyBids(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Repo().MyBids())
}

func (h *Handlers) apiAcceptedOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Repo().Accepted())
}

func (h *Handlers) apiGetOrder(w http.ResponseWriter, r *http.Request) {
	num := chi.URLParam(r, "orderNumber")
	order, view, ok := h.engine.Repo().Find(num)
	if !ok {
		// Not in any cached view, try the backend directly.
		fetched, err := h.engine.Repo().FetchOrder(r.Context(), num)
		if err != nil {
			errorJSON(w, http.StatusNotFound, "order not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"order": fetched, "view": ""})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order, "view": view})
}

func (h *Handlers) apiTransitions(w http.ResponseWriter, r *http.Request) {
	num := chi.URLParam(r, "orderNumber")
	next, err := h.engine.Controller().NextStatuses(num)
	if err != nil {
		errorJSON(w, http.StatusNotFound, err.Error())
		return
	}
	type option struct {
		Status string `json:"status"`
		Label  string `json:"label"`
		Color  string `json:"color"`
	}
	out := make([]option, 0, len(next))
	for _, s := range next {
		out = append(out, option{Status: string(s), Label: status.Label(s), Color: status.Color(s)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) apiStatuses(w http.ResponseWriter, r *http.Request) {
	all := []status.Status{
		status.Pending, status.Quoted, status.PaymentPending,
		status.Processing, status.ProviderReceived, status.ReadyForPickup,
		status.Shipped, status.OutForDelivery, status.Delivered,
		status.Completed, status.Cancelled,
	}
	out := make(map[string]map[string]string, len(all))
	for _, s := range all {
		out[string(s)] = map[string]string{"label": status.Label(s), "color": status.Color(s)}
	}
	writeJSON(w, http.StatusOK, out)
}

// apiSubmitQuote accepts either a JSON QuoteDraft body or a multipart
// form with a "quote" JSON field plus media files.
func (h *Handlers) apiSubmitQuote(w http.ResponseWriter, r *http.Request) {
	num := chi.URLParam(r, "orderNumber")

	var draft orders.QuoteDraft
	var media []market.MediaUpload

	ct := r.Header.Get("Content-Type")
	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(64 << 20); err != nil {
			errorJSON(w, http.StatusBadRequest, "bad multipart form")
			return
		}
		if err := decodeJSONString(r.FormValue("quote"), &draft); err != nil {
			errorJSON(w, http.StatusBadRequest, "bad quote field")
			return
		}
		for name, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					continue
				}
				data, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					continue
				}
				kind := r.FormValue(name + "_kind")
				if kind == "" {
					kind = "image"
				}
				media = append(media, market.MediaUpload{
					Kind:     kind,
					Filename: fh.Filename,
					Data:     data,
				})
			}
		}
	} else if err := decodeJSON(r, &draft); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad request body")
		return
	}

	quote, err := h.engine.Quotes().SubmitQuote(r.Context(), num, draft, media)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, quote)
	case errors.Is(err, orders.ErrBadPrice),
		errors.Is(err, orders.ErrBadPart),
		errors.Is(err, orders.ErrBadSize):
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, orders.ErrNotQuotable):
		errorJSON(w, http.StatusConflict, err.Error())
	default:
		errorJSON(w, http.StatusBadGateway, err.Error())
	}
}

func (h *Handlers) apiUpdateStatus(w http.ResponseWriter, r *http.Request) {
	num := chi.URLParam(r, "orderNumber")
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	next := status.Canonical(req.Status)
	if next == status.Unknown {
		errorJSON(w, http.StatusUnprocessableEntity, "unknown status "+req.Status)
		return
	}

	err := h.engine.Controller().UpdateStatus(r.Context(), num, next)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"order_number": num, "status": string(next)})
	case errors.Is(err, orders.ErrUnknownOrder):
		errorJSON(w, http.StatusNotFound, err.Error())
	case errors.Is(err, orders.ErrInvalidTransition):
		errorJSON(w, http.StatusConflict, err.Error())
	default:
		errorJSON(w, http.StatusBadGateway, err.Error())
	}
}

func (h *Handlers) apiWallet(w http.ResponseWriter, r *http.Request) {
	wallet := h.engine.Wallet().Wallet()
	if wallet == nil {
		errorJSON(w, http.StatusNotFound, "wallet not loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *Handlers) apiWithdrawals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Wallet().Withdrawals())
}

func (h *Handlers) apiRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
		Method string `json:"method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		errorJSON(w, http.StatusBadRequest, "bad request body")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, "bad amount")
		return
	}
	wd, err := h.engine.Wallet().RequestWithdrawal(r.Context(), amount, req.Method)
	if err != nil {
		errorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}

func (h *Handlers) apiRefreshAll(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Repo().RefreshAll(r.Context()); err != nil {
		errorJSON(w, http.StatusBadGateway, err.Error())
		return
	}
	if err := h.engine.Wallet().Refresh(r.Context()); err != nil {
		errorJSON(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiGetMedia(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		errorJSON(w, http.StatusNotFound, "no media store")
		return
	}
	item, err := h.db.GetMedia(chi.URLParam(r, "store"), chi.URLParam(r, "id"))
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		errorJSON(w, http.StatusNotFound, "media not cached")
		return
	}
	switch item.Kind {
	case "video":
		w.Header().Set("Content-Type", "video/mp4")
	case "voice":
		w.Header().Set("Content-Type", "audio/webm")
	default:
		w.Header().Set("Content-Type", "image/jpeg")
	}
	w.Write(item.Data)
}

func (h *Handlers) apiPutMedia(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		errorJSON(w, http.StatusServiceUnavailable, "no media store")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<20))
	if err != nil {
		errorJSON(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "image"
	}
	if err := h.db.PutMedia(chi.URLParam(r, "store"), chi.URLParam(r, "id"), kind, data); err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handlers) apiDeleteMedia(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		errorJSON(w, http.StatusServiceUnavailable, "no media store")
		return
	}
	if err := h.db.DeleteMedia(chi.URLParam(r, "store"), chi.URLParam(r, "id")); err != nil {
		errorJSON(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// apiClearCache drops the cached views and snapshots, then pulls fresh
// data from the backend. Used after switching provider credentials so
// the console never shows another account's orders.
func (h *Handlers) apiClearCache(w http.ResponseWriter, r *http.Request) {
	h.engine.Repo().Invalidate(r.Context())
	if err := h.engine.Repo().RefreshAll(r.Context()); err != nil {
		errorJSON(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
