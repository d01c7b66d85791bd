package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"swiftflow/api/internal/selection"
	"swiftflow/api/internal/store"
)

// BaseSelectionInput records the designer's base rows for one pdfType/scope
// pair. Employees may later only be assigned rows from this base.
type BaseSelectionInput struct {
	PdfType        string   `json:"pdfType"`
	Scope          string   `json:"scope"`
	SelectedRowIDs []string `json:"selectedRowIds"`
}

type BaseSelectionResult struct {
	Added   int    `json:"added"`
	Message string `json:"message"`
}

// AssignRowsInput distributes base rows across employees within one
// pdfType/scope pair. All groups commit in a single transaction.
type AssignRowsInput struct {
	PdfType     string            `json:"pdfType"`
	Scope       string            `json:"scope"`
	Assignments []AssignmentGroup `json:"assignments"`
}

// AssignmentGroup is one employee's share of the rows being assigned.
type AssignmentGroup struct {
	UserID  int64    `json:"userId"`
	RowKeys []string `json:"rowKeys"`
}

// EmployeeAssignments groups assigned row keys under one employee.
type EmployeeAssignments struct {
	UserID         int64    `json:"userId"`
	Username       string   `json:"username"`
	SelectedRowIDs []string `json:"selectedRowIds"`
}

func validateScopePair(pdfType, scope string) (string, string, error) {
	pt := normalizeEnum(pdfType)
	sc := normalizeEnum(scope)
	if _, ok := selection.ResolveScopeKey(pt, sc); !ok {
		return "", "", domainError(http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown pdfType/scope combination %q/%q", pdfType, scope), nil)
	}
	return pt, sc, nil
}

// SaveBaseSelection stores the designer base rows. Re-submitting keys that
// already exist is not an error; only new rows count as added.
func (s *Service) SaveBaseSelection(ctx context.Context, session Session, orderID int64, input BaseSelectionInput) (BaseSelectionResult, error) {
	pdfType, scope, err := validateScopePair(input.PdfType, input.Scope)
	if err != nil {
		return BaseSelectionResult{}, err
	}
	if len(input.SelectedRowIDs) == 0 {
		return BaseSelectionResult{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No rows selected", nil)
	}
	if err := s.requireOrder(ctx, orderID); err != nil {
		return BaseSelectionResult{}, err
	}

	createdBy := session.UserID
	added, err := s.store.AddBaseSelections(ctx, orderID, pdfType, scope, input.SelectedRowIDs, &createdBy)
	if err != nil {
		return BaseSelectionResult{}, fmt.Errorf("add base selections: %w", err)
	}
	return BaseSelectionResult{Added: added, Message: "Base selection saved"}, nil
}

// BaseSelectionKeys lists the designer base rows for one pair, in insertion
// order.
func (s *Service) BaseSelectionKeys(ctx context.Context, orderID int64, pdfType, scope string) ([]string, error) {
	pt, sc, err := validateScopePair(pdfType, scope)
	if err != nil {
		return nil, err
	}
	return s.store.ListBaseSelectionKeys(ctx, orderID, pt, sc)
}

// AssignRowsToEmployees assigns base rows to one or more employees in a
// single transaction. Rows outside the designer base are rejected, and a row
// already held by another employee conflicts, rolling back the whole batch.
func (s *Service) AssignRowsToEmployees(ctx context.Context, session Session, orderID int64, input AssignRowsInput) error {
	pdfType, scope, err := validateScopePair(input.PdfType, input.Scope)
	if err != nil {
		return err
	}
	if len(input.Assignments) == 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No assignments provided", nil)
	}
	for _, group := range input.Assignments {
		if group.UserID == 0 {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "userId is required for every assignment", nil)
		}
		if len(group.RowKeys) == 0 {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No rows selected", nil)
		}
	}
	if err := s.requireOrder(ctx, orderID); err != nil {
		return err
	}

	baseKeys, err := s.store.ListBaseSelectionKeys(ctx, orderID, pdfType, scope)
	if err != nil {
		return fmt.Errorf("list base selections: %w", err)
	}
	if len(baseKeys) == 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No designer base selection exists for this order and scope", nil)
	}
	base := make(map[string]struct{}, len(baseKeys))
	for _, k := range baseKeys {
		base[k] = struct{}{}
	}

	assignedBy := session.UserID
	var assignments []store.RowAssignment
	for _, group := range input.Assignments {
		for _, key := range group.RowKeys {
			if _, ok := base[key]; !ok {
				return domainError(http.StatusBadRequest, "VALIDATION_ERROR",
					fmt.Sprintf("Row %s is not part of the designer base selection", key), nil)
			}
			assignments = append(assignments, store.RowAssignment{
				OrderID:          orderID,
				PdfType:          pdfType,
				Scope:            scope,
				RowKey:           key,
				AssignedToUserID: group.UserID,
				AssignedByUserID: &assignedBy,
			})
		}
	}
	if err := s.store.AddRowAssignments(ctx, assignments); err != nil {
		if errors.Is(err, store.ErrRowAlreadyAssigned) {
			return domainError(http.StatusConflict, "ROW_ALREADY_ASSIGNED", err.Error(), nil)
		}
		return fmt.Errorf("add row assignments: %w", err)
	}
	return nil
}

// ProductionAssignments lists all row assignments for a pair grouped by
// employee, preserving assignment order within each group.
func (s *Service) ProductionAssignments(ctx context.Context, orderID int64, pdfType, scope string) ([]EmployeeAssignments, error) {
	pt, sc, err := validateScopePair(pdfType, scope)
	if err != nil {
		return nil, err
	}
	assignments, err := s.store.ListRowAssignments(ctx, orderID, pt, sc)
	if err != nil {
		return nil, fmt.Errorf("list row assignments: %w", err)
	}

	order := make([]int64, 0)
	byUser := make(map[int64]*EmployeeAssignments)
	for _, a := range assignments {
		group, ok := byUser[a.AssignedToUserID]
		if !ok {
			group = &EmployeeAssignments{UserID: a.AssignedToUserID, SelectedRowIDs: []string{}}
			byUser[a.AssignedToUserID] = group
			order = append(order, a.AssignedToUserID)
		}
		group.SelectedRowIDs = append(group.SelectedRowIDs, a.RowKey)
	}

	grouped := make([]EmployeeAssignments, 0, len(order))
	for _, userID := range order {
		group := *byUser[userID]
		if user, err := s.store.GetUserByID(ctx, userID); err == nil {
			group.Username = user.Username
		}
		grouped = append(grouped, group)
	}
	return grouped, nil
}

// MyRowsView is what an employee sees on their worksheet: the full designer
// base for context plus the subset of it assigned to them.
type MyRowsView struct {
	DesignerBaseRowKeys []string `json:"designerBaseRowKeys"`
	MyAssignedRowKeys   []string `json:"myAssignedRowKeys"`
}

// MyAssignedRows lists the designer base rows and the subset assigned to the
// calling employee for one pair.
func (s *Service) MyAssignedRows(ctx context.Context, session Session, orderID int64, pdfType, scope string) (MyRowsView, error) {
	pt, sc, err := validateScopePair(pdfType, scope)
	if err != nil {
		return MyRowsView{}, err
	}
	baseKeys, err := s.store.ListBaseSelectionKeys(ctx, orderID, pt, sc)
	if err != nil {
		return MyRowsView{}, fmt.Errorf("list base selections: %w", err)
	}
	mine, err := s.store.ListRowAssignmentKeysForUser(ctx, orderID, pt, sc, session.UserID)
	if err != nil {
		return MyRowsView{}, fmt.Errorf("list assigned rows: %w", err)
	}
	if baseKeys == nil {
		baseKeys = []string{}
	}
	if mine == nil {
		mine = []string{}
	}
	return MyRowsView{DesignerBaseRowKeys: baseKeys, MyAssignedRowKeys: mine}, nil
}
