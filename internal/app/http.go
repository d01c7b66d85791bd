package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftflow/api/internal/auth"
	"swiftflow/api/internal/authpw"
	"swiftflow/api/internal/department"
	"swiftflow/api/internal/export"
	"swiftflow/api/internal/rbac"
	"swiftflow/api/internal/search"
	"swiftflow/api/internal/selection"
	"swiftflow/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/register" {
		s.handleAuthRegister(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/login" {
		var body struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Login(r.Context(), body.Username, body.Password)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/logout" {
		session := Session{}
		if token := bearerToken(r); token != "" {
			if parsed, err := s.service.SessionFromToken(r.Context(), token); err == nil {
				session = parsed
			}
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), session, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "username": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "username": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"username":      session.Username,
			"userId":        session.UserID,
			"department":    session.Department,
		})
		return
	}

	session, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/users" {
		if !rbac.Can(session.Department, rbac.ActionRead) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		users, err := s.service.ListUsers(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list users", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/machines" {
		machines, err := s.service.ListMachines(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list machines", nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"machines": machines})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/machines" {
		if !rbac.Can(session.Department, rbac.ActionAdmin) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		var body struct {
			MachineName string `json:"machineName"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		machine, err := s.service.CreateMachine(r.Context(), body.MachineName)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, machine)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/orders/search" {
		q := search.Query{
			Text:       strings.TrimSpace(r.URL.Query().Get("q")),
			Department: strings.TrimSpace(r.URL.Query().Get("department")),
			Limit:      20,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
				return
			}
			q.Limit = parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
				return
			}
			q.Offset = parsed
		}
		writeJSON(w, http.StatusOK, s.service.SearchOrders(q))
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/orders" {
		orders, err := s.service.ListOrdersFor(r.Context(), session)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Could not list orders", nil)
			return
		}
		items := make([]map[string]any, 0, len(orders))
		for _, o := range orders {
			items = append(items, orderPayload(o))
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": items})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/orders" {
		var body CreateOrderInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		order, err := s.service.CreateOrder(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, orderPayload(order))
		return
	}

	parts := splitPath(r.URL.Path)

	if len(parts) == 3 && parts[0] == "api" && parts[1] == "users" && r.Method == http.MethodPut {
		if !rbac.Can(session.Department, rbac.ActionAdmin) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			return
		}
		userID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "user id must be an integer", nil)
			return
		}
		var body UpdateUserInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		user, err := s.service.UpdateUser(r.Context(), userID, body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, user)
		return
	}

	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "orders" {
		orderID, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "order id must be an integer", nil)
			return
		}
		s.handleOrders(w, r, session, orderID, parts)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleOrders(w http.ResponseWriter, r *http.Request, session Session, orderID int64, parts []string) {
	if len(parts) == 3 {
		if r.Method == http.MethodGet {
			order, err := s.service.GetOrder(r.Context(), orderID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, orderPayload(order))
			return
		}
		if r.Method == http.MethodDelete {
			if !rbac.Can(session.Department, rbac.ActionAdmin) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			if err := s.service.DeleteOrder(r.Context(), orderID); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	if len(parts) != 4 {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		return
	}

	switch parts[3] {
	case "status":
		if r.Method == http.MethodGet {
			statuses, err := s.service.ListStatuses(r.Context(), orderID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			items := make([]map[string]any, 0, len(statuses))
			for _, st := range statuses {
				items = append(items, statusPayload(st))
			}
			writeJSON(w, http.StatusOK, map[string]any{"statuses": items})
			return
		}
		if r.Method == http.MethodPost {
			var body CreateStatusInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			status, err := s.service.CreateStatus(r.Context(), orderID, body)
			if err != nil {
				st, code, message, details := mapError(err)
				writeError(w, st, code, message, details)
				return
			}
			writeJSON(w, http.StatusCreated, statusPayload(status))
			return
		}

	case "progress":
		if r.Method == http.MethodPut {
			var body struct {
				Stage   string `json:"stage"`
				Percent int    `json:"percent"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.UpdateStageProgress(r.Context(), orderID, body.Stage, body.Percent); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "assign":
		if r.Method == http.MethodGet {
			assignments, err := s.service.OrderAssignments(r.Context(), orderID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"assignments": assignments})
			return
		}
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionAssign) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			var body AssignOrderInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.AssignOrder(r.Context(), session, orderID, body); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "attachments":
		if r.Method == http.MethodPost {
			s.handleAttachmentUpload(w, r, session, orderID)
			return
		}
		if r.Method == http.MethodGet {
			key := strings.TrimSpace(r.URL.Query().Get("key"))
			if key == "" {
				writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "key is required", nil)
				return
			}
			url, err := s.service.AttachmentURL(r.Context(), key)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"url": url})
			return
		}

	case "three-checkbox-selection":
		if r.Method == http.MethodGet {
			view, err := s.service.SelectionViewFor(r.Context(), session, orderID,
				r.URL.Query().Get("pdfType"), r.URL.Query().Get("scope"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, view)
			return
		}
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionSelect) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			var body ThreeCheckboxInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.SaveThreeCheckboxSelection(r.Context(), session, orderID, body, contextHints(r)); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "machine-send-to-inspection":
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionMerge) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			result, err := s.service.SendToInspection(r.Context(), orderID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		}

	case "machining-selection":
		if r.Method == http.MethodGet {
			result, err := s.service.MachiningSelection(r.Context(), orderID)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		}
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionSelect) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			var body struct {
				SelectedRowIDs []string `json:"selectedRowIds"`
				MachineID      *int64   `json:"machineId"`
				AttachmentURL  string   `json:"attachmentUrl"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.SaveMachiningSelection(r.Context(), orderID, body.SelectedRowIDs, body.MachineID, body.AttachmentURL); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "nesting-selection":
		if r.Method == http.MethodGet {
			view, err := s.service.NestingSelection(r.Context(), orderID, r.URL.Query().Get("table"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, view)
			return
		}
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionSelect) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			var body struct {
				Table          string   `json:"table"`
				SelectedRowIDs []string `json:"selectedRowIds"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.SaveNestingSelection(r.Context(), orderID, session.Department, body.Table, body.SelectedRowIDs); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "checkbox-base":
		if r.Method == http.MethodGet {
			keys, err := s.service.BaseSelectionKeys(r.Context(), orderID,
				r.URL.Query().Get("pdfType"), r.URL.Query().Get("scope"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"selectedRowIds": keys})
			return
		}
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionBaseSelect) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			var body BaseSelectionInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			result, err := s.service.SaveBaseSelection(r.Context(), session, orderID, body)
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, result)
			return
		}

	case "checkbox-assignments":
		if r.Method == http.MethodGet {
			grouped, err := s.service.ProductionAssignments(r.Context(), orderID,
				r.URL.Query().Get("pdfType"), r.URL.Query().Get("scope"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"assignments": grouped})
			return
		}
		if r.Method == http.MethodPost {
			if !rbac.Can(session.Department, rbac.ActionAssign) {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
				return
			}
			var body AssignRowsInput
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			if err := s.service.AssignRowsToEmployees(r.Context(), session, orderID, body); err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}

	case "checkbox-my":
		if r.Method == http.MethodGet {
			view, err := s.service.MyAssignedRows(r.Context(), session, orderID,
				r.URL.Query().Get("pdfType"), r.URL.Query().Get("scope"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			writeJSON(w, http.StatusOK, view)
			return
		}

	case "report":
		if r.Method == http.MethodGet {
			result, err := s.service.OrderReport(r.Context(), session, orderID,
				r.URL.Query().Get("pdfType"), r.URL.Query().Get("scope"))
			if err != nil {
				status, code, message, details := mapError(err)
				writeError(w, status, code, message, details)
				return
			}
			w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
			w.Header().Set("Content-Type", result.MimeType)
			w.Write(result.Data)
			return
		}
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

func (s *HTTPServer) handleAttachmentUpload(w http.ResponseWriter, r *http.Request, session Session, orderID int64) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid multipart body", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "file field is required", nil)
		return
	}
	defer file.Close()

	key, err := s.service.UploadAttachment(r.Context(), session, orderID, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"key": key})
}

func (s *HTTPServer) handleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username    string `json:"username"`
		Password    string `json:"password"`
		FullName    string `json:"fullName"`
		Email       string `json:"email"`
		PhoneNumber string `json:"phoneNumber"`
		Department  string `json:"department"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	user, err := s.service.AuthPasswordService().Register(r.Context(), authpw.RegisterRequest{
		Username:    body.Username,
		Password:    body.Password,
		FullName:    body.FullName,
		Email:       body.Email,
		PhoneNumber: body.PhoneNumber,
		Department:  department.Department(strings.ToUpper(strings.TrimSpace(body.Department))),
	})
	if err != nil {
		if strings.Contains(err.Error(), "already registered") {
			writeError(w, http.StatusConflict, "USERNAME_EXISTS", "Username already registered", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "REGISTRATION_FAILED", err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, userView(user))
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func contextHints(r *http.Request) selection.ContextHints {
	return selection.ContextHints{
		Referer:      r.Header.Get("Referer"),
		ForwardedURI: r.Header.Get("X-Forwarded-Uri"),
		OriginalURI:  r.Header.Get("X-Original-URI"),
		OriginalURL:  r.Header.Get("X-Original-URL"),
	}
}

func sessionPayload(session Session) map[string]any {
	return map[string]any{
		"token":        session.Token,
		"refreshToken": session.RefreshToken,
		"userId":       session.UserID,
		"username":     session.Username,
		"department":   session.Department,
		"expiresAt":    session.ExpiresAt.Unix(),
	}
}

func orderPayload(o store.Order) map[string]any {
	return map[string]any{
		"id":                   o.ID,
		"productDetails":       o.ProductDetails,
		"customProductDetails": o.CustomProductDetails,
		"units":                o.Units,
		"material":             o.Material,
		"department":           o.Department,
		"status":               o.Status,
		"designProgress":       o.DesignProgress,
		"productionProgress":   o.ProductionProgress,
		"machiningProgress":    o.MachiningProgress,
		"inspectionProgress":   o.InspectionProgress,
		"dateAdded":            o.DateAdded,
	}
}

func statusPayload(st store.OrderStatus) map[string]any {
	return map[string]any{
		"id":            st.ID,
		"orderId":       st.OrderID,
		"department":    st.Department,
		"comment":       st.Comment,
		"attachmentUrl": st.AttachmentURL,
		"percentage":    st.Percentage,
		"createdAt":     st.CreatedAt,
	}
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, store.ErrRowAlreadyAssigned) {
		return http.StatusConflict, "ROW_ALREADY_ASSIGNED", err.Error(), nil
	}
	if errors.Is(err, selection.ErrAmbiguousAdminRole) || errors.Is(err, selection.ErrRoleUndetermined) || errors.Is(err, selection.ErrNothingToMerge) {
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil
	}
	if errors.Is(err, authpw.ErrInvalidCredentials) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Invalid username or password", nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF rendering is not available", nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
