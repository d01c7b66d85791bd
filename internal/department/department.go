// Package department defines the workflow departments an order moves through.
package department

import "strings"

type Department string

const (
	Design     Department = "DESIGN"
	Production Department = "PRODUCTION"
	Machining  Department = "MACHINING"
	Inspection Department = "INSPECTION"
	Admin      Department = "ADMIN"
	Enquiry    Department = "ENQUIRY"
	Completed  Department = "COMPLETED"
)

// OperationalStages lists the four departments that record selections and
// carry a progress counter, in workflow order.
var OperationalStages = []Department{Design, Production, Machining, Inspection}

func Parse(raw string) (Department, bool) {
	switch Department(strings.ToUpper(strings.TrimSpace(raw))) {
	case Design:
		return Design, true
	case Production:
		return Production, true
	case Machining:
		return Machining, true
	case Inspection:
		return Inspection, true
	case Admin:
		return Admin, true
	case Enquiry:
		return Enquiry, true
	case Completed:
		return Completed, true
	default:
		return "", false
	}
}

// IsOperational reports whether d is one of the four selection-recording
// stages.
func (d Department) IsOperational() bool {
	switch d {
	case Design, Production, Machining, Inspection:
		return true
	default:
		return false
	}
}

func (d Department) String() string {
	return string(d)
}
