package leave

import (
	"context"
	"time"
)

// Service is the entry point the transport layer talks to. It wires the
// state machine, policy validator, rule engine and mass allocator over a
// shared store.
type Service struct {
	Store   *Store
	Policy  *PolicyValidator
	Machine *StateMachine
	Rules   *RuleEngine
	Mass    *MassAllocator
}

func NewService(store *Store, notify Notifier, cal CalendarService) *Service {
	policy := NewPolicyValidator(store)
	return &Service{
		Store:   store,
		Policy:  policy,
		Machine: NewStateMachine(store, policy, notify, cal),
		Rules:   NewRuleEngine(store),
		Mass:    NewMassAllocator(store),
	}
}

// CreateRequest validates the candidate against caps and allocation
// coverage before persisting it as a draft.
func (s *Service) CreateRequest(ctx context.Context, employeeID, leaveTypeID string, dateFrom, dateTo time.Time) (*LeaveRequest, error) {
	days, err := CalculateDays(dateFrom, dateTo)
	if err != nil {
		return nil, err
	}
	leaveType, err := s.Store.GetLeaveType(ctx, leaveTypeID)
	if err != nil {
		return nil, err
	}

	req := &LeaveRequest{
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		Days:        days,
		State:       StateDraft,
	}
	if err := s.Policy.Check(ctx, req, leaveType); err != nil {
		return nil, err
	}

	id, err := s.Store.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	req.ID = id
	return req, nil
}

func (s *Service) SubmitLeaveRequest(ctx context.Context, requestID string) error {
	return s.Machine.Submit(ctx, requestID)
}

func (s *Service) ApproveLeaveRequest(ctx context.Context, requestID, approverEmployeeID string) (*LeaveRequest, error) {
	return s.Machine.Approve(ctx, requestID, approverEmployeeID)
}

func (s *Service) RefuseLeaveRequest(ctx context.Context, requestID, approverEmployeeID, reason string) (*LeaveRequest, error) {
	return s.Machine.Refuse(ctx, requestID, approverEmployeeID, reason)
}

func (s *Service) ApplyRulesForEmployee(ctx context.Context, emp EmployeeRef) (int, error) {
	return s.Rules.ApplyRulesForEmployee(ctx, emp)
}

func (s *Service) AllocateMass(ctx context.Context, leaveTypeID string, days float64, departmentIDs []string, autoRule bool) (int, error) {
	return s.Mass.Allocate(ctx, leaveTypeID, days, departmentIDs, autoRule)
}

func (s *Service) ListRequests(ctx context.Context, employeeID string, limit, offset int) ([]LeaveRequest, error) {
	return s.Store.ListRequests(ctx, employeeID, limit, offset)
}

func (s *Service) ListTypes(ctx context.Context) ([]LeaveType, error) {
	return s.Store.ListTypes(ctx)
}

func (s *Service) CreateType(ctx context.Context, payload LeaveType) (string, error) {
	return s.Store.CreateType(ctx, payload)
}

func (s *Service) ListAllocations(ctx context.Context, employeeID string) ([]LeaveAllocation, error) {
	return s.Store.ListAllocations(ctx, employeeID)
}

func (s *Service) ListRules(ctx context.Context) ([]AllocationRule, error) {
	return s.Store.ListRules(ctx)
}

func (s *Service) CreateRule(ctx context.Context, rule *AllocationRule) (string, error) {
	return s.Store.CreateRule(ctx, rule)
}

func (s *Service) DeactivateRule(ctx context.Context, ruleID string) error {
	return s.Store.DeactivateRule(ctx, ruleID)
}
