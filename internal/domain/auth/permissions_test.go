package auth

import "testing"

func TestHasPermission(t *testing.T) {
	cases := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleEmployee, PermLeaveWrite, true},
		{RoleEmployee, PermLeaveApprove, false},
		{RoleEmployee, PermLeaveAllocate, false},
		{RoleManager, PermLeaveApprove, true},
		{RoleManager, PermLeaveAllocate, false},
		{RoleHR, PermLeaveAllocate, true},
		{RoleHR, PermOrgWrite, true},
		{"unknown", PermLeaveRead, false},
	}

	for _, tc := range cases {
		if got := HasPermission(tc.role, tc.permission); got != tc.want {
			t.Fatalf("HasPermission(%s, %s) = %v, want %v", tc.role, tc.permission, got, tc.want)
		}
	}
}
