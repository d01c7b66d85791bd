package store

import (
	"time"

	"swiftflow/api/internal/department"
)

type User struct {
	ID           int64
	Username     string
	FullName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	Department   department.Department
	Enabled      bool
	CreatedAt    time.Time
}

type Order struct {
	ID                   int64
	ProductDetails       string
	CustomProductDetails string
	Units                string
	Material             string
	Department           department.Department
	Status               string
	DesignProgress       int
	ProductionProgress   int
	MachiningProgress    int
	InspectionProgress   int
	DateAdded            time.Time
}

// OrderStatus is one row of the append-only status ledger. Comment carries
// either free text or a serialized selection payload.
type OrderStatus struct {
	ID            int64
	OrderID       int64
	Department    department.Department
	Comment       string
	AttachmentURL string
	Percentage    string
	CreatedAt     time.Time
}

type BaseSelection struct {
	ID              int64
	OrderID         int64
	PdfType         string
	Scope           string
	RowKey          string
	CreatedByUserID *int64
	CreatedAt       time.Time
}

type RowAssignment struct {
	ID               int64
	OrderID          int64
	PdfType          string
	Scope            string
	RowKey           string
	AssignedToUserID int64
	AssignedByUserID *int64
	AssignedAt       time.Time
}

type OrderAssignment struct {
	ID         int64
	OrderID    int64
	UserID     int64
	Department department.Department
	AssignedBy string
	AssignedAt time.Time
}

type Machine struct {
	ID          int64
	MachineName string
	CreatedAt   time.Time
}
