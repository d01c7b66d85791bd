package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"swiftflow/api/internal/department"
	"swiftflow/api/internal/email"
	"swiftflow/api/internal/export"
	"swiftflow/api/internal/search"
	"swiftflow/api/internal/selection"
	"swiftflow/api/internal/store"
)

// UserView is the wire shape of a user, without credentials.
type UserView struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Department  string `json:"department"`
	Enabled     bool   `json:"enabled"`
}

func userView(u store.User) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Department:  string(u.Department),
		Enabled:     u.Enabled,
	}
}

func (s *Service) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	return views, nil
}

// UpdateUserInput changes a user's profile fields. Empty strings leave the
// current value untouched; Enabled always applies.
type UpdateUserInput struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Department  string `json:"department"`
	Enabled     *bool  `json:"enabled"`
}

func (s *Service) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (UserView, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserView{}, domainError(http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		}
		return UserView{}, err
	}
	if input.FullName != "" {
		user.FullName = input.FullName
	}
	if input.Email != "" {
		user.Email = input.Email
	}
	if input.PhoneNumber != "" {
		user.PhoneNumber = input.PhoneNumber
	}
	if input.Department != "" {
		dept, ok := department.Parse(input.Department)
		if !ok {
			return UserView{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Unknown department %q", input.Department), nil)
		}
		user.Department = dept
	}
	if input.Enabled != nil {
		user.Enabled = *input.Enabled
	}
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return UserView{}, err
	}
	return userView(user), nil
}

// CreateOrderInput is a new enquiry.
type CreateOrderInput struct {
	ProductDetails       string `json:"productDetails"`
	CustomProductDetails string `json:"customProductDetails"`
	Units                string `json:"units"`
	Material             string `json:"material"`
}

func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (store.Order, error) {
	if strings.TrimSpace(input.ProductDetails) == "" {
		return store.Order{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "productDetails is required", nil)
	}
	order, err := s.store.CreateOrder(ctx, store.Order{
		ProductDetails:       input.ProductDetails,
		CustomProductDetails: input.CustomProductDetails,
		Units:                input.Units,
		Material:             input.Material,
	})
	if err != nil {
		return store.Order{}, err
	}
	s.indexOrder(order)
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (store.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Order{}, domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
	}
	return order, err
}

// ListOrdersFor returns the orders visible to a caller. Machinists only see
// orders currently assigned to them in MACHINING; everyone else sees all.
func (s *Service) ListOrdersFor(ctx context.Context, session Session) ([]store.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	if session.Department != department.Machining {
		return orders, nil
	}
	assigned, err := s.store.ListAssignedOrderIDs(ctx, session.UserID, department.Machining)
	if err != nil {
		return nil, err
	}
	mine := make(map[int64]struct{}, len(assigned))
	for _, id := range assigned {
		mine[id] = struct{}{}
	}
	filtered := make([]store.Order, 0, len(orders))
	for _, o := range orders {
		if _, ok := mine[o.ID]; ok {
			filtered = append(filtered, o)
		}
	}
	return filtered, nil
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	if err := s.store.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return err
	}
	if s.search != nil {
		s.search.DeleteOrder(id)
	}
	return nil
}

// CreateStatusInput appends a ledger entry and optionally moves the order to
// the entry's department.
type CreateStatusInput struct {
	Department    string `json:"department"`
	Comment       string `json:"comment"`
	AttachmentURL string `json:"attachmentUrl"`
	Percentage    string `json:"percentage"`
}

func (s *Service) CreateStatus(ctx context.Context, orderID int64, input CreateStatusInput) (store.OrderStatus, error) {
	dept, ok := department.Parse(input.Department)
	if !ok {
		return store.OrderStatus{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown department %q", input.Department), nil)
	}
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return store.OrderStatus{}, err
	}

	status, err := s.store.AppendStatus(ctx, store.OrderStatus{
		OrderID:       orderID,
		Department:    dept,
		Comment:       input.Comment,
		AttachmentURL: input.AttachmentURL,
		Percentage:    input.Percentage,
	})
	if err != nil {
		return store.OrderStatus{}, err
	}

	if dept != order.Department {
		if err := s.store.UpdateOrderDepartment(ctx, orderID, dept); err != nil {
			return store.OrderStatus{}, fmt.Errorf("transition order %d: %w", orderID, err)
		}
		order.Department = dept
		s.indexOrder(order)
		s.notifyStageChanged(ctx, order, input.Comment)
	}
	return status, nil
}

func (s *Service) ListStatuses(ctx context.Context, orderID int64) ([]store.OrderStatus, error) {
	return s.store.ListStatuses(ctx, orderID)
}

// UpdateStageProgress sets one stage's completion percentage, clamped to
// 0..100.
func (s *Service) UpdateStageProgress(ctx context.Context, orderID int64, stage string, percent int) error {
	dept, ok := department.Parse(stage)
	if !ok || !dept.IsOperational() {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown progress stage %q", stage), nil)
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if err := s.store.UpdateStageProgress(ctx, orderID, dept, percent); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Order not found", nil)
		}
		return err
	}
	return nil
}

// AssignOrderInput puts an order on an employee's queue for a department.
type AssignOrderInput struct {
	UserID     int64  `json:"userId"`
	Department string `json:"department"`
}

func (s *Service) AssignOrder(ctx context.Context, session Session, orderID int64, input AssignOrderInput) error {
	dept, ok := department.Parse(input.Department)
	if !ok || !dept.IsOperational() {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown department %q", input.Department), nil)
	}
	if input.UserID == 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "userId is required", nil)
	}
	if err := s.requireOrder(ctx, orderID); err != nil {
		return err
	}
	assignee, err := s.store.GetUserByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Assigned user not found", nil)
		}
		return err
	}

	if err := s.store.AssignOrder(ctx, store.OrderAssignment{
		OrderID:    orderID,
		UserID:     input.UserID,
		Department: dept,
		AssignedBy: session.Username,
	}); err != nil {
		return err
	}
	s.notifyOrderAssigned(orderID, assignee, dept, session.Username)
	return nil
}

func (s *Service) OrderAssignments(ctx context.Context, orderID int64) ([]store.OrderAssignment, error) {
	return s.store.ListOrderAssignments(ctx, orderID)
}

func (s *Service) CreateMachine(ctx context.Context, name string) (store.Machine, error) {
	if strings.TrimSpace(name) == "" {
		return store.Machine{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "machineName is required", nil)
	}
	return s.store.CreateMachine(ctx, strings.TrimSpace(name))
}

func (s *Service) ListMachines(ctx context.Context) ([]store.Machine, error) {
	return s.store.ListMachines(ctx)
}

// UploadAttachment stores a file for an order and appends a ledger entry
// pointing at it.
func (s *Service) UploadAttachment(ctx context.Context, session Session, orderID int64, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if s.storage == nil {
		return "", domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Attachment storage is not configured", nil)
	}
	if err := s.requireOrder(ctx, orderID); err != nil {
		return "", err
	}
	key, err := s.storage.UploadAttachment(ctx, orderID, filename, r, size, contentType)
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	if _, err := s.store.AppendStatus(ctx, store.OrderStatus{
		OrderID:       orderID,
		Department:    session.Department,
		Comment:       fmt.Sprintf("Attachment uploaded: %s", filename),
		AttachmentURL: key,
	}); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Service) AttachmentURL(ctx context.Context, key string) (string, error) {
	if s.storage == nil {
		return "", domainError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Attachment storage is not configured", nil)
	}
	return s.storage.AttachmentURL(ctx, key, 15*time.Minute)
}

func (s *Service) SearchOrders(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// OrderReport renders the selection report PDF for an order.
func (s *Service) OrderReport(ctx context.Context, session Session, orderID int64, pdfType, scope string) (*export.Result, error) {
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not configured", nil)
	}
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	view, err := s.SelectionViewFor(ctx, session, orderID, pdfType, scope)
	if err != nil {
		return nil, err
	}
	statuses, err := s.store.ListStatuses(ctx, orderID)
	if err != nil {
		return nil, err
	}

	data := export.ReportData{
		OrderID:        order.ID,
		ProductDetails: order.ProductDetails,
		Material:       order.Material,
		Department:     string(order.Department),
		DesignIDs:      view.DesignerSelectedRowIDs,
		ProductionIDs:  view.ProductionSelectedRowIDs,
		MachineIDs:     view.MachineSelectedRowIDs,
		InspectionIDs:  view.InspectionSelectedRowIDs,
		MachineName:    view.MachineName,
	}
	if items := latestDesignItems(ledgerEntries(statuses)); len(items) > 0 {
		data.DesignRows = export.RowsFromItems(items)
	} else if s.extractor != nil {
		if url := latestAttachmentURL(statuses); url != "" {
			if rows, err := s.extractor.ParseRows(ctx, url); err == nil {
				data.DesignRows = export.RowsFromDocument(rows)
			}
		}
	}
	return s.export.OrderReport(ctx, data)
}

func (s *Service) indexOrder(order store.Order) {
	if s.search == nil {
		return
	}
	s.search.IndexOrder(search.OrderRecord{
		ID:                   order.ID,
		ProductDetails:       order.ProductDetails,
		CustomProductDetails: order.CustomProductDetails,
		Material:             order.Material,
		Department:           string(order.Department),
		Status:               order.Status,
	})
}

func (s *Service) notifyOrderAssigned(orderID int64, assignee store.User, dept department.Department, assignedBy string) {
	if s.email == nil || !s.email.IsConfigured() || assignee.Email == "" {
		return
	}
	data := email.OrderAssignedData{
		UserName:   assignee.FullName,
		OrderID:    orderID,
		Department: string(dept),
		AssignedBy: assignedBy,
	}
	if data.UserName == "" {
		data.UserName = assignee.Username
	}
	go func() {
		_ = s.email.SendOrderAssigned(assignee.Email, data)
	}()
}

func (s *Service) notifyStageChanged(ctx context.Context, order store.Order, comment string) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return
	}
	to := make([]string, 0)
	for _, u := range users {
		if u.Enabled && u.Email != "" && u.Department == order.Department {
			to = append(to, u.Email)
		}
	}
	if len(to) == 0 {
		return
	}
	data := email.StageChangedData{
		OrderID:    order.ID,
		Department: string(order.Department),
		Comment:    comment,
	}
	go func() {
		_ = s.email.SendStageChanged(to, data)
	}()
}

func latestAttachmentURL(statuses []store.OrderStatus) string {
	for i := len(statuses) - 1; i >= 0; i-- {
		if statuses[i].AttachmentURL != "" {
			return statuses[i].AttachmentURL
		}
	}
	return ""
}

func latestDesignItems(entries []selection.Entry) []json.RawMessage {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Stage != department.Design || !selection.HasCheckboxMarker(e.Payload) {
			continue
		}
		if p, ok := selection.Decode(e.Payload); ok && len(p.SelectedItems) > 0 {
			return p.SelectedItems
		}
	}
	return nil
}
