package leave

import "time"

// Leave request lifecycle states. A request is created in draft, submitted
// to confirm, approved into validate1 (two-step types) and validate, or
// refused. validate and refuse are terminal.
const (
	StateDraft     = "draft"
	StateConfirm   = "confirm"
	StateValidate1 = "validate1"
	StateValidate  = "validate"
	StateRefuse    = "refuse"
)

// Policy classification of a leave type, used for annual-cap lookup.
const (
	ClassificationSick  = "sick"
	ClassificationPaid  = "paid"
	ClassificationOther = "other"
)

// Validation policy of a leave type: one approver or two distinct ones.
const (
	ValidationSingle = "single"
	ValidationBoth   = "both"
)

// AnnualCaps limits validated days per calendar year by classification.
// Classifications without an entry are uncapped.
var AnnualCaps = map[string]float64{
	ClassificationSick: 5,
	ClassificationPaid: 20,
}

// countedStates are the request states that consume an annual cap.
var countedStates = []string{StateConfirm, StateValidate1, StateValidate}

// openAllocationStates are the allocation states the mass processor
// treats as open and increments instead of creating a new record.
var openAllocationStates = []string{StateConfirm, StateValidate}

type LeaveType struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Code               string    `json:"code"`
	Classification     string    `json:"classification"`
	RequiresAllocation bool      `json:"requiresAllocation"`
	Validation         string    `json:"validation"`
	CreateMeeting      bool      `json:"createMeeting"`
	CreatedAt          time.Time `json:"createdAt"`
}

type LeaveRequest struct {
	ID               string    `json:"id"`
	EmployeeID       string    `json:"employeeId"`
	LeaveTypeID      string    `json:"leaveTypeId"`
	DateFrom         time.Time `json:"dateFrom"`
	DateTo           time.Time `json:"dateTo"`
	Days             float64   `json:"days"`
	State            string    `json:"state"`
	FirstApproverID  string    `json:"firstApproverId,omitempty"`
	SecondApproverID string    `json:"secondApproverId,omitempty"`
	RefuseReason     string    `json:"refuseReason,omitempty"`
	MeetingID        string    `json:"meetingId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type LeaveAllocation struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	EmployeeID    string    `json:"employeeId"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	Days          float64   `json:"days"`
	DateFrom      time.Time `json:"dateFrom"`
	DateTo        time.Time `json:"dateTo"`
	State         string    `json:"state"`
	AutoGenerated bool      `json:"autoGenerated"`
	CreatedAt     time.Time `json:"createdAt"`
}

type AllocationRule struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	LeaveTypeID   string    `json:"leaveTypeId"`
	DepartmentIDs []string  `json:"departmentIds"`
	Days          float64   `json:"days"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"createdAt"`
}

// EmployeeRef is the slice of the directory the leave core needs.
type EmployeeRef struct {
	ID           string
	UserID       string
	DepartmentID string
}
