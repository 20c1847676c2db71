package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeApprovers(t *testing.T) {
	got := NormalizeApprovers([]string{" carol", "alice", "", "bob", "alice", "  "})
	assert.Equal(t, []string{"alice", "bob", "carol"}, got)
}

func TestPolicy_Validate(t *testing.T) {
	type tc struct {
		name string
		p    Policy
		want error
	}
	three := []string{"a", "b", "c"}
	tests := []tc{
		{"ok", Policy{RequiredApprovals: 2, Approvers: three, TimeoutSeconds: 3600}, nil},
		{"ok max", Policy{RequiredApprovals: 3, Approvers: three, TimeoutSeconds: 2592000, Priority: PriorityInstitutional}, nil},
		{"zero threshold", Policy{RequiredApprovals: 0, Approvers: three, TimeoutSeconds: 3600}, ErrInvalidThreshold},
		{"threshold above approvers", Policy{RequiredApprovals: 4, Approvers: three, TimeoutSeconds: 3600}, ErrInvalidThreshold},
		{"no approvers", Policy{RequiredApprovals: 1, TimeoutSeconds: 3600}, ErrInvalidThreshold},
		{"timeout too short", Policy{RequiredApprovals: 1, Approvers: three, TimeoutSeconds: 3599}, ErrTimeoutOutOfRange},
		{"timeout too long", Policy{RequiredApprovals: 1, Approvers: three, TimeoutSeconds: 2592001}, ErrTimeoutOutOfRange},
		{"bad priority", Policy{RequiredApprovals: 1, Approvers: three, TimeoutSeconds: 3600, Priority: "gold"}, ErrInvalidPriority},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate(DefaultBounds)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestPolicy_Validate_DefaultsPriority(t *testing.T) {
	p := Policy{RequiredApprovals: 1, Approvers: []string{"a"}, TimeoutSeconds: 3600}
	assert.NoError(t, p.Validate(DefaultBounds))
	assert.Equal(t, PriorityStandard, p.Priority)
}

func TestPriority_Weight(t *testing.T) {
	assert.Equal(t, uint32(1), PriorityStandard.Weight())
	assert.Equal(t, uint32(2), PriorityPremium.Weight())
	assert.Equal(t, uint32(3), PriorityEnterprise.Weight())
	assert.Equal(t, uint32(5), PriorityInstitutional.Weight())
}
