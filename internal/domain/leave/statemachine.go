package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Notifier delivers a message to a user. The state machine is the only
// place that posts lifecycle notifications, so each logical event (final
// approval, refusal) produces exactly one post.
type Notifier interface {
	Post(ctx context.Context, userID, subject, body string) error
}

// StateMachine owns every transition of a leave request:
//
//	draft → confirm → validate1 → validate
//	                → validate
//	confirm/validate1/validate → refuse
//
// Approvals invoke the policy validator before any write; on violation the
// request is left untouched.
type StateMachine struct {
	Store    RequestStore
	Policy   *PolicyValidator
	Notify   Notifier
	Calendar CalendarService
}

// CalendarService is the slice of the calendar collaborator the state
// machine uses.
type CalendarService interface {
	CreateLeaveMeeting(ctx context.Context, employeeID, title string, start, end time.Time) (string, error)
	DeactivateMeeting(ctx context.Context, meetingID string) error
}

func NewStateMachine(store RequestStore, policy *PolicyValidator, notify Notifier, cal CalendarService) *StateMachine {
	return &StateMachine{Store: store, Policy: policy, Notify: notify, Calendar: cal}
}

// Submit moves a draft request to confirm. No guard: the policy checks
// already ran at creation and will run again at approval.
func (m *StateMachine) Submit(ctx context.Context, requestID string) error {
	req, err := m.Store.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	if req.State != StateDraft {
		return fmt.Errorf("%w: cannot submit a %s request", ErrInvalidState, req.State)
	}
	return m.Store.UpdateRequestState(ctx, requestID, StateConfirm)
}

// Approve advances a request by one approval step: confirm → validate1 for
// two-step leave types, confirm → validate for single-step ones, and
// validate1 → validate for the final step. The acting approver lands in
// the first-approver field on the first step and the second-approver field
// on the final one.
func (m *StateMachine) Approve(ctx context.Context, requestID, approverEmployeeID string) (*LeaveRequest, error) {
	req, err := m.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	switch req.State {
	case StateConfirm:
		return req, m.approveFirst(ctx, req, approverEmployeeID)
	case StateValidate1:
		return req, m.approveFinal(ctx, req, approverEmployeeID)
	default:
		return nil, fmt.Errorf("%w: request must be confirmed to approve it", ErrInvalidState)
	}
}

func (m *StateMachine) approveFirst(ctx context.Context, req *LeaveRequest, approverEmployeeID string) error {
	leaveType, err := m.Store.GetLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		return err
	}
	if err := m.Policy.Check(ctx, req, leaveType); err != nil {
		return err
	}

	if leaveType.Validation == ValidationBoth {
		if err := m.Store.MarkApproved(ctx, req.ID, StateValidate1, "first_approver_id", approverEmployeeID); err != nil {
			return err
		}
		req.State = StateValidate1
		req.FirstApproverID = approverEmployeeID
		return nil
	}

	if err := m.Store.MarkApproved(ctx, req.ID, StateValidate, "first_approver_id", approverEmployeeID); err != nil {
		return err
	}
	req.State = StateValidate
	req.FirstApproverID = approverEmployeeID
	m.finalize(ctx, req, leaveType)
	return nil
}

func (m *StateMachine) approveFinal(ctx context.Context, req *LeaveRequest, approverEmployeeID string) error {
	leaveType, err := m.Store.GetLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		return err
	}
	if err := m.Policy.Check(ctx, req, leaveType); err != nil {
		return err
	}

	if err := m.Store.MarkApproved(ctx, req.ID, StateValidate, "second_approver_id", approverEmployeeID); err != nil {
		return err
	}
	req.State = StateValidate
	req.SecondApproverID = approverEmployeeID
	m.finalize(ctx, req, leaveType)
	return nil
}

// finalize runs the post-validate side effects: the linked calendar
// meeting when the type asks for one, and the single acceptance
// notification. Both are best effort; the transition itself has committed.
func (m *StateMachine) finalize(ctx context.Context, req *LeaveRequest, leaveType *LeaveType) {
	if leaveType.CreateMeeting && m.Calendar != nil && req.MeetingID == "" {
		title := fmt.Sprintf("%s: %s", leaveType.Name, req.DateFrom.Format("2006-01-02"))
		meetingID, err := m.Calendar.CreateLeaveMeeting(ctx, req.EmployeeID, title, req.DateFrom, req.DateTo)
		if err != nil {
			slog.Warn("leave meeting creation failed", "request", req.ID, "err", err)
		} else if err := m.Store.SetRequestMeeting(ctx, req.ID, meetingID); err != nil {
			slog.Warn("leave meeting link failed", "request", req.ID, "err", err)
		} else {
			req.MeetingID = meetingID
		}
	}

	body := fmt.Sprintf("Your %s planned on %s has been accepted.", leaveType.Name, req.DateFrom.Format("02/01/2006"))
	m.post(ctx, req.EmployeeID, "Time off approved", body)
}

// Refuse rejects a request from confirm, validate1 or validate. The acting
// approver is recorded in the first-approver field when refusing from
// validate1 and in the second-approver field otherwise. The linked meeting
// is deactivated and the employee is notified exactly once.
func (m *StateMachine) Refuse(ctx context.Context, requestID, approverEmployeeID, reason string) (*LeaveRequest, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrReasonRequired
	}

	req, err := m.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch req.State {
	case StateConfirm, StateValidate1, StateValidate:
	default:
		return nil, fmt.Errorf("%w: request must be confirmed or validated to refuse it", ErrInvalidState)
	}

	approverField := "second_approver_id"
	if req.State == StateValidate1 {
		approverField = "first_approver_id"
	}
	if err := m.Store.MarkRefused(ctx, requestID, approverField, approverEmployeeID, reason); err != nil {
		return nil, err
	}
	req.State = StateRefuse
	req.RefuseReason = reason
	if approverField == "first_approver_id" {
		req.FirstApproverID = approverEmployeeID
	} else {
		req.SecondApproverID = approverEmployeeID
	}

	if req.MeetingID != "" && m.Calendar != nil {
		if err := m.Calendar.DeactivateMeeting(ctx, req.MeetingID); err != nil {
			slog.Warn("leave meeting deactivation failed", "request", req.ID, "err", err)
		}
	}

	leaveType, err := m.Store.GetLeaveType(ctx, req.LeaveTypeID)
	if err != nil {
		slog.Warn("refusal notification skipped", "request", req.ID, "err", err)
		return req, nil
	}
	body := fmt.Sprintf("Your %s planned on %s has been refused.", leaveType.Name, req.DateFrom.Format("02/01/2006"))
	body += fmt.Sprintf(" Reason: %s", reason)
	m.post(ctx, req.EmployeeID, "Time off refused", body)
	return req, nil
}

func (m *StateMachine) post(ctx context.Context, employeeID, subject, body string) {
	if m.Notify == nil {
		return
	}
	userID, err := m.Store.EmployeeUserID(ctx, employeeID)
	if err != nil || userID == "" {
		return
	}
	if err := m.Notify.Post(ctx, userID, subject, body); err != nil {
		slog.Warn("leave notification failed", "employee", employeeID, "err", err)
	}
}
