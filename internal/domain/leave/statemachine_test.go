package leave

import (
	"context"
	"errors"
	"testing"
	"time"
)

// machineStoreStub backs both the state machine and the policy validator
// so approval-time guards run against the same fixture.
type machineStoreStub struct {
	requests map[string]*LeaveRequest
	types    map[string]*LeaveType
	userIDs  map[string]string

	sumDays   float64
	covered   bool
	validated bool
}

func newMachineStoreStub() *machineStoreStub {
	return &machineStoreStub{
		requests:  map[string]*LeaveRequest{},
		types:     map[string]*LeaveType{},
		userIDs:   map[string]string{},
		covered:   true,
		validated: true,
	}
}

func (s *machineStoreStub) GetRequest(ctx context.Context, requestID string) (*LeaveRequest, error) {
	req, ok := s.requests[requestID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (s *machineStoreStub) GetLeaveType(ctx context.Context, leaveTypeID string) (*LeaveType, error) {
	lt, ok := s.types[leaveTypeID]
	if !ok {
		return nil, ErrNotFound
	}
	return lt, nil
}

func (s *machineStoreStub) EmployeeUserID(ctx context.Context, employeeID string) (string, error) {
	return s.userIDs[employeeID], nil
}

func (s *machineStoreStub) UpdateRequestState(ctx context.Context, requestID, state string) error {
	s.requests[requestID].State = state
	return nil
}

func (s *machineStoreStub) MarkApproved(ctx context.Context, requestID, state, approverField, approverID string) error {
	req := s.requests[requestID]
	req.State = state
	switch approverField {
	case "first_approver_id":
		req.FirstApproverID = approverID
	case "second_approver_id":
		req.SecondApproverID = approverID
	}
	return nil
}

func (s *machineStoreStub) MarkRefused(ctx context.Context, requestID, approverField, approverID, reason string) error {
	req := s.requests[requestID]
	req.State = StateRefuse
	req.RefuseReason = reason
	switch approverField {
	case "first_approver_id":
		req.FirstApproverID = approverID
	case "second_approver_id":
		req.SecondApproverID = approverID
	}
	return nil
}

func (s *machineStoreStub) SetRequestMeeting(ctx context.Context, requestID, meetingID string) error {
	s.requests[requestID].MeetingID = meetingID
	return nil
}

func (s *machineStoreStub) SumRequestDays(ctx context.Context, employeeID, leaveTypeID string, states []string, from, to time.Time, excludeRequestID string) (float64, error) {
	return s.sumDays, nil
}

func (s *machineStoreStub) HasCoveringAllocation(ctx context.Context, employeeID, leaveTypeID string, from, to time.Time) (bool, error) {
	return s.covered, nil
}

func (s *machineStoreStub) HasValidatedAllocation(ctx context.Context, employeeID, leaveTypeID string) (bool, error) {
	return s.validated, nil
}

type notifierStub struct {
	posts []string
}

func (n *notifierStub) Post(ctx context.Context, userID, subject, body string) error {
	n.posts = append(n.posts, subject)
	return nil
}

type calendarStub struct {
	created     int
	deactivated []string
}

func (c *calendarStub) CreateLeaveMeeting(ctx context.Context, employeeID, title string, start, end time.Time) (string, error) {
	c.created++
	return "meeting-1", nil
}

func (c *calendarStub) DeactivateMeeting(ctx context.Context, meetingID string) error {
	c.deactivated = append(c.deactivated, meetingID)
	return nil
}

func newTestMachine(store *machineStoreStub) (*StateMachine, *notifierStub, *calendarStub) {
	notify := &notifierStub{}
	cal := &calendarStub{}
	return NewStateMachine(store, NewPolicyValidator(store), notify, cal), notify, cal
}

func seedRequest(store *machineStoreStub, state, validation string, createMeeting bool) *LeaveRequest {
	store.types["lt-1"] = &LeaveType{
		ID:             "lt-1",
		Name:           "Paid Time Off",
		Classification: ClassificationOther,
		Validation:     validation,
		CreateMeeting:  createMeeting,
	}
	store.userIDs["emp-1"] = "user-1"
	req := &LeaveRequest{
		ID:          "req-1",
		EmployeeID:  "emp-1",
		LeaveTypeID: "lt-1",
		DateFrom:    time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC),
		DateTo:      time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		Days:        5,
		State:       state,
	}
	store.requests[req.ID] = req
	return req
}

func TestSubmitMovesDraftToConfirm(t *testing.T) {
	store := newMachineStoreStub()
	machine, _, _ := newTestMachine(store)
	seedRequest(store, StateDraft, ValidationSingle, false)

	if err := machine.Submit(context.Background(), "req-1"); err != nil {
		t.Fatalf("submit error: %v", err)
	}
	if got := store.requests["req-1"].State; got != StateConfirm {
		t.Fatalf("expected confirm, got %s", got)
	}
}

func TestSubmitRejectsNonDraft(t *testing.T) {
	store := newMachineStoreStub()
	machine, _, _ := newTestMachine(store)
	seedRequest(store, StateConfirm, ValidationSingle, false)

	err := machine.Submit(context.Background(), "req-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestApproveSingleStepValidates(t *testing.T) {
	store := newMachineStoreStub()
	machine, notify, cal := newTestMachine(store)
	seedRequest(store, StateConfirm, ValidationSingle, true)

	if _, err := machine.Approve(context.Background(), "req-1", "mgr-1"); err != nil {
		t.Fatalf("approve error: %v", err)
	}

	req := store.requests["req-1"]
	if req.State != StateValidate {
		t.Fatalf("expected validate, got %s", req.State)
	}
	if req.FirstApproverID != "mgr-1" {
		t.Fatalf("expected first approver mgr-1, got %q", req.FirstApproverID)
	}
	if req.SecondApproverID != "" {
		t.Fatalf("single-step approval must not set a second approver, got %q", req.SecondApproverID)
	}
	if cal.created != 1 {
		t.Fatalf("expected one meeting, got %d", cal.created)
	}
	if req.MeetingID != "meeting-1" {
		t.Fatalf("expected request linked to meeting, got %q", req.MeetingID)
	}
	if len(notify.posts) != 1 || notify.posts[0] != "Time off approved" {
		t.Fatalf("expected one approval notification, got %v", notify.posts)
	}
}

func TestApproveTwoStepRoundTrip(t *testing.T) {
	store := newMachineStoreStub()
	machine, notify, _ := newTestMachine(store)
	seedRequest(store, StateConfirm, ValidationBoth, false)

	if _, err := machine.Approve(context.Background(), "req-1", "mgr-1"); err != nil {
		t.Fatalf("first approval error: %v", err)
	}
	req := store.requests["req-1"]
	if req.State != StateValidate1 {
		t.Fatalf("expected validate1 after first approval, got %s", req.State)
	}
	if req.FirstApproverID != "mgr-1" {
		t.Fatalf("expected first approver mgr-1, got %q", req.FirstApproverID)
	}
	if len(notify.posts) != 0 {
		t.Fatalf("no notification expected before final approval, got %v", notify.posts)
	}

	if _, err := machine.Approve(context.Background(), "req-1", "hr-1"); err != nil {
		t.Fatalf("final approval error: %v", err)
	}
	req = store.requests["req-1"]
	if req.State != StateValidate {
		t.Fatalf("expected validate after final approval, got %s", req.State)
	}
	if req.SecondApproverID != "hr-1" {
		t.Fatalf("expected second approver hr-1, got %q", req.SecondApproverID)
	}
	if len(notify.posts) != 1 {
		t.Fatalf("expected exactly one notification, got %v", notify.posts)
	}
}

func TestApproveRejectsDraft(t *testing.T) {
	store := newMachineStoreStub()
	machine, _, _ := newTestMachine(store)
	seedRequest(store, StateDraft, ValidationSingle, false)

	_, err := machine.Approve(context.Background(), "req-1", "mgr-1")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestApproveGuardLeavesStateUntouched(t *testing.T) {
	store := newMachineStoreStub()
	machine, notify, _ := newTestMachine(store)
	seedRequest(store, StateConfirm, ValidationSingle, false)
	store.types["lt-1"].Classification = ClassificationSick
	store.sumDays = 5

	_, err := machine.Approve(context.Background(), "req-1", "mgr-1")
	if !errors.Is(err, ErrCapExceeded) {
		t.Fatalf("expected ErrCapExceeded, got %v", err)
	}
	req := store.requests["req-1"]
	if req.State != StateConfirm {
		t.Fatalf("expected state unchanged, got %s", req.State)
	}
	if req.FirstApproverID != "" {
		t.Fatalf("expected no approver recorded, got %q", req.FirstApproverID)
	}
	if len(notify.posts) != 0 {
		t.Fatalf("expected no notification, got %v", notify.posts)
	}
}

func TestRefuseRequiresReason(t *testing.T) {
	store := newMachineStoreStub()
	machine, _, _ := newTestMachine(store)
	seedRequest(store, StateConfirm, ValidationSingle, false)

	if _, err := machine.Refuse(context.Background(), "req-1", "mgr-1", "   "); !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected ErrReasonRequired, got %v", err)
	}
	if got := store.requests["req-1"].State; got != StateConfirm {
		t.Fatalf("expected state unchanged, got %s", got)
	}
}

func TestRefuseFromValidate1RecordsFirstApprover(t *testing.T) {
	store := newMachineStoreStub()
	machine, notify, _ := newTestMachine(store)
	seedRequest(store, StateValidate1, ValidationBoth, false)

	if _, err := machine.Refuse(context.Background(), "req-1", "mgr-1", "coverage conflict"); err != nil {
		t.Fatalf("refuse error: %v", err)
	}

	req := store.requests["req-1"]
	if req.State != StateRefuse {
		t.Fatalf("expected refuse, got %s", req.State)
	}
	if req.FirstApproverID != "mgr-1" {
		t.Fatalf("expected refusal from validate1 to record the first approver, got %q", req.FirstApproverID)
	}
	if req.SecondApproverID != "" {
		t.Fatalf("unexpected second approver %q", req.SecondApproverID)
	}
	if req.RefuseReason != "coverage conflict" {
		t.Fatalf("expected reason recorded, got %q", req.RefuseReason)
	}
	if len(notify.posts) != 1 || notify.posts[0] != "Time off refused" {
		t.Fatalf("expected one refusal notification, got %v", notify.posts)
	}
}

func TestRefuseValidatedDeactivatesMeeting(t *testing.T) {
	store := newMachineStoreStub()
	machine, _, cal := newTestMachine(store)
	req := seedRequest(store, StateValidate, ValidationSingle, true)
	req.MeetingID = "meeting-1"

	if _, err := machine.Refuse(context.Background(), "req-1", "hr-1", "overlap"); err != nil {
		t.Fatalf("refuse error: %v", err)
	}

	if store.requests["req-1"].SecondApproverID != "hr-1" {
		t.Fatalf("expected refusal to record the second approver")
	}
	if len(cal.deactivated) != 1 || cal.deactivated[0] != "meeting-1" {
		t.Fatalf("expected meeting-1 deactivated, got %v", cal.deactivated)
	}
}

func TestRefuseRejectsDraft(t *testing.T) {
	store := newMachineStoreStub()
	machine, _, _ := newTestMachine(store)
	seedRequest(store, StateDraft, ValidationSingle, false)

	_, err := machine.Refuse(context.Background(), "req-1", "mgr-1", "nope")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
