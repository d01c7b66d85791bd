package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"swiftflow/api/internal/department"
	"swiftflow/api/internal/selection"
	"swiftflow/api/internal/store"
)

// ThreeCheckboxInput is a shared-endpoint selection write. Which array is
// populated helps determine the acting department.
type ThreeCheckboxInput struct {
	DesignerSelectedRowIDs   []string          `json:"designerSelectedRowIds"`
	ProductionSelectedRowIDs []string          `json:"productionSelectedRowIds"`
	MachineSelectedRowIDs    []string          `json:"machineSelectedRowIds"`
	InspectionSelectedRowIDs []string          `json:"inspectionSelectedRowIds"`
	PdfType                  string            `json:"pdfType"`
	Scope                    string            `json:"scope"`
	AssignedUserID           *int64            `json:"assignedUserId"`
	MachineID                *int64            `json:"machineId"`
	SelectedItems            []json.RawMessage `json:"selectedItems"`
}

// SelectionView is the four-column reconstruction of an order's current
// selections.
type SelectionView struct {
	DesignerSelectedRowIDs   []string `json:"designerSelectedRowIds"`
	ProductionSelectedRowIDs []string `json:"productionSelectedRowIds"`
	MachineSelectedRowIDs    []string `json:"machineSelectedRowIds"`
	InspectionSelectedRowIDs []string `json:"inspectionSelectedRowIds"`
	MachineID                *int64   `json:"machineId,omitempty"`
	MachineName              string   `json:"machineName,omitempty"`
}

func ledgerEntries(statuses []store.OrderStatus) []selection.Entry {
	entries := make([]selection.Entry, 0, len(statuses))
	for _, st := range statuses {
		entries = append(entries, selection.Entry{
			ID:      st.ID,
			Stage:   st.Department,
			Payload: st.Comment,
		})
	}
	return entries
}

func (s *Service) requireOrder(ctx context.Context, orderID int64) error {
	if _, err := s.store.GetOrder(ctx, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Order not found", nil)
		}
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	return nil
}

// SaveThreeCheckboxSelection resolves the acting department and appends a
// checkbox payload to the ledger. No stage transition happens here.
func (s *Service) SaveThreeCheckboxSelection(ctx context.Context, session Session, orderID int64, input ThreeCheckboxInput, hints selection.ContextHints) error {
	role, err := selection.ResolveWriteRole(session.Department, selection.RoleBody{
		DesignerSelectedRowIDs:   input.DesignerSelectedRowIDs,
		ProductionSelectedRowIDs: input.ProductionSelectedRowIDs,
		MachineSelectedRowIDs:    input.MachineSelectedRowIDs,
		InspectionSelectedRowIDs: input.InspectionSelectedRowIDs,
	}, hints)
	if err != nil {
		if errors.Is(err, selection.ErrAmbiguousAdminRole) {
			return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "ADMIN must provide exactly one non-empty role selection array", nil)
		}
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Unable to determine role", nil)
	}

	var selected []string
	switch role {
	case department.Design:
		selected = input.DesignerSelectedRowIDs
	case department.Production:
		selected = input.ProductionSelectedRowIDs
	case department.Machining:
		selected = input.MachineSelectedRowIDs
	default:
		selected = input.InspectionSelectedRowIDs
	}

	// Inspection may clear its selection; every other role must pick rows.
	if role != department.Inspection && len(selected) == 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No rows selected", nil)
	}
	if selected == nil {
		selected = []string{}
	}

	if err := s.requireOrder(ctx, orderID); err != nil {
		return err
	}

	payload := selection.Payload{
		SelectedRowIDs: selected,
		ThreeCheckbox:  true,
		PdfType:        strings.TrimSpace(input.PdfType),
		Scope:          strings.TrimSpace(input.Scope),
	}

	// Attribute the selection to the assigned employee when given, falling
	// back to the caller. The user marker drives machinist self-filtering
	// on reads.
	userID := session.UserID
	username := session.Username
	if input.AssignedUserID != nil {
		userID = *input.AssignedUserID
		username = ""
		if assigned, err := s.store.GetUserByID(ctx, userID); err == nil {
			username = assigned.Username
		}
	}
	payload.UserID = &userID
	payload.Username = username

	if role == department.Design && len(input.SelectedItems) > 0 {
		payload.SelectedItems = input.SelectedItems
	}

	if role == department.Machining && input.MachineID != nil {
		payload.MachineID = input.MachineID
		if machine, err := s.store.GetMachine(ctx, *input.MachineID); err == nil {
			payload.MachineName = machine.MachineName
		}
	}

	raw, err := selection.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode selection payload: %w", err)
	}

	if _, err := s.store.AppendStatus(ctx, store.OrderStatus{
		OrderID:    orderID,
		Department: role,
		Comment:    raw,
	}); err != nil {
		return err
	}
	return nil
}

// SelectionViewFor rebuilds the four selection columns for a viewer. The
// branch taken depends on the viewer's department and whether an explicit
// pdfType/scope pair is supplied.
func (s *Service) SelectionViewFor(ctx context.Context, session Session, orderID int64, pdfType, scope string) (SelectionView, error) {
	statuses, err := s.store.ListStatuses(ctx, orderID)
	if err != nil {
		return SelectionView{}, fmt.Errorf("list statuses: %w", err)
	}

	view := SelectionView{
		DesignerSelectedRowIDs:   []string{},
		ProductionSelectedRowIDs: []string{},
		MachineSelectedRowIDs:    []string{},
		InspectionSelectedRowIDs: []string{},
	}
	if len(statuses) == 0 {
		return view, nil
	}

	entries := ledgerEntries(statuses)
	isMechanist := session.Department == department.Machining
	isInspection := session.Department == department.Inspection

	if isMechanist {
		// A machinist's view is self-centric across all four columns.
		own := selection.LatestUserRowIDs(entries, session.UserID)
		view.DesignerSelectedRowIDs = own
		view.ProductionSelectedRowIDs = own
		view.MachineSelectedRowIDs = own
		view.InspectionSelectedRowIDs = own
	} else {
		hasScopeParams := strings.TrimSpace(pdfType) != "" && strings.TrimSpace(scope) != ""

		structured := false
		if isInspection && hasScopeParams {
			// Each enum is validated on its own. A mixed pair addresses
			// tables that hold no rows and yields empty columns rather
			// than dropping back to the ledger scan.
			if selection.ValidPdfType(pdfType) && selection.ValidScope(scope) {
				baseKeys, err := s.store.ListBaseSelectionKeys(ctx, orderID, normalizeEnum(pdfType), normalizeEnum(scope))
				if err != nil {
					return SelectionView{}, fmt.Errorf("list base selections: %w", err)
				}
				assignments, err := s.store.ListRowAssignments(ctx, orderID, normalizeEnum(pdfType), normalizeEnum(scope))
				if err != nil {
					return SelectionView{}, fmt.Errorf("list row assignments: %w", err)
				}
				union := make([]string, 0, len(assignments))
				for _, a := range assignments {
					union = append(union, a.RowKey)
				}
				if baseKeys == nil {
					baseKeys = []string{}
				}
				view.DesignerSelectedRowIDs = baseKeys
				view.ProductionSelectedRowIDs = union
				structured = true
			}
		}
		if !structured {
			view.DesignerSelectedRowIDs = selection.LatestDepartmentRowIDs(entries, department.Design)
			view.ProductionSelectedRowIDs = selection.LatestDepartmentRowIDs(entries, department.Production)
		}

		if isInspection {
			var scopeKey selection.ScopeKey
			if key, ok := selection.ResolveScopeKey(pdfType, scope); ok {
				scopeKey = key
			}
			view.MachineSelectedRowIDs = selection.MergedMachineRowIDs(entries, scopeKey)
		} else {
			view.MachineSelectedRowIDs = selection.LatestMachiningCheckboxRowIDs(entries)
		}
		view.InspectionSelectedRowIDs = selection.LatestDepartmentRowIDs(entries, department.Inspection)
	}

	if machineCtx, ok := selection.LatestMachineContext(entries); ok {
		view.MachineID = machineCtx.MachineID
		view.MachineName = machineCtx.MachineName
	}
	return view, nil
}

// MergeResult reports what the machining merge produced.
type MergeResult struct {
	MergedCount int      `json:"mergedCount"`
	Message     string   `json:"message"`
	Scopes      []string `json:"scopes"`
}

// SendToInspection collapses all machining checkbox selections into one
// inspection entry and retires the order's machining assignments.
func (s *Service) SendToInspection(ctx context.Context, orderID int64) (MergeResult, error) {
	statuses, err := s.store.ListStatuses(ctx, orderID)
	if err != nil {
		return MergeResult{}, fmt.Errorf("list statuses: %w", err)
	}
	if len(statuses) == 0 {
		return MergeResult{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No status history found for this order", nil)
	}

	plan, err := selection.PlanMachiningMerge(ledgerEntries(statuses))
	if err != nil {
		if errors.Is(err, selection.ErrNothingToMerge) {
			return MergeResult{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No machine selections found to merge for this order", nil)
		}
		return MergeResult{}, err
	}

	raw, err := selection.EncodeMerged(plan.Scopes())
	if err != nil {
		return MergeResult{}, fmt.Errorf("encode merged payload: %w", err)
	}

	if _, err := s.store.SendToInspection(ctx, orderID, raw); err != nil {
		return MergeResult{}, err
	}

	scopes := make([]string, 0, len(plan.ScopeOrder()))
	for _, key := range plan.ScopeOrder() {
		scopes = append(scopes, string(key))
	}
	return MergeResult{
		MergedCount: plan.Total(),
		Message:     "Sent to Inspection with merged machine selections",
		Scopes:      scopes,
	}, nil
}

// MachiningSelectionResult is the legacy single-scope machining read.
type MachiningSelectionResult struct {
	SelectedRowIDs []string `json:"selectedRowIds"`
	MachineID      *int64   `json:"machineId,omitempty"`
	MachineName    string   `json:"machineName,omitempty"`
}

// SaveMachiningSelection records a machining row selection outside the
// three-checkbox flow.
func (s *Service) SaveMachiningSelection(ctx context.Context, orderID int64, rowIDs []string, machineID *int64, attachmentURL string) error {
	if len(rowIDs) == 0 {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "No rows selected", nil)
	}
	if err := s.requireOrder(ctx, orderID); err != nil {
		return err
	}

	payload := selection.Payload{SelectedRowIDs: rowIDs, MachineID: machineID}
	if machineID != nil {
		if machine, err := s.store.GetMachine(ctx, *machineID); err == nil {
			payload.MachineName = machine.MachineName
		}
	}
	raw, err := selection.Encode(payload)
	if err != nil {
		return fmt.Errorf("encode machining selection: %w", err)
	}

	if _, err := s.store.AppendStatus(ctx, store.OrderStatus{
		OrderID:       orderID,
		Department:    department.Machining,
		Comment:       raw,
		AttachmentURL: attachmentURL,
	}); err != nil {
		return err
	}
	return nil
}

func (s *Service) MachiningSelection(ctx context.Context, orderID int64) (MachiningSelectionResult, error) {
	statuses, err := s.store.ListStatuses(ctx, orderID)
	if err != nil {
		return MachiningSelectionResult{}, fmt.Errorf("list statuses: %w", err)
	}
	ids, machineCtx := selection.MachiningSelection(ledgerEntries(statuses))
	return MachiningSelectionResult{
		SelectedRowIDs: ids,
		MachineID:      machineCtx.MachineID,
		MachineName:    machineCtx.MachineName,
	}, nil
}

// NestingSelectionView is the per-table nesting read, one column per
// department.
type NestingSelectionView struct {
	DesignerSelectedRowIDs   []string `json:"designerSelectedRowIds"`
	ProductionSelectedRowIDs []string `json:"productionSelectedRowIds"`
	MachiningSelectedRowIDs  []string `json:"machiningSelectedRowIds"`
	InspectionSelectedRowIDs []string `json:"inspectionSelectedRowIds"`
}

// SaveNestingSelection appends a flagged nesting selection for one of the
// plate/part/result tables.
func (s *Service) SaveNestingSelection(ctx context.Context, orderID int64, dept department.Department, table string, rowIDs []string) error {
	flag, ok := selection.NestingFlagForTable(table)
	if !ok {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Unknown nesting table %q", table), nil)
	}
	if !dept.IsOperational() {
		return domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Invalid department for nesting selection", nil)
	}
	if err := s.requireOrder(ctx, orderID); err != nil {
		return err
	}

	raw, err := selection.EncodeNesting(rowIDs, flag)
	if err != nil {
		return err
	}
	if _, err := s.store.AppendStatus(ctx, store.OrderStatus{
		OrderID:    orderID,
		Department: dept,
		Comment:    raw,
	}); err != nil {
		return err
	}
	return nil
}

func (s *Service) NestingSelection(ctx context.Context, orderID int64, table string) (NestingSelectionView, error) {
	flag, ok := selection.NestingFlagForTable(table)
	if !ok {
		return NestingSelectionView{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Unknown nesting table %q", table), nil)
	}
	statuses, err := s.store.ListStatuses(ctx, orderID)
	if err != nil {
		return NestingSelectionView{}, fmt.Errorf("list statuses: %w", err)
	}
	entries := ledgerEntries(statuses)
	return NestingSelectionView{
		DesignerSelectedRowIDs:   selection.LatestFlaggedRowIDs(entries, department.Design, flag),
		ProductionSelectedRowIDs: selection.LatestFlaggedRowIDs(entries, department.Production, flag),
		MachiningSelectedRowIDs:  selection.LatestFlaggedRowIDs(entries, department.Machining, flag),
		InspectionSelectedRowIDs: selection.LatestFlaggedRowIDs(entries, department.Inspection, flag),
	}, nil
}

func normalizeEnum(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
