package approval

import (
	"context"
	"regexp"
	"testing"
	"time"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/event"
	"credential-approval/internal/domain/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func auditActions(t *testing.T, f *fixture, requestID string) []audit.Action {
	t.Helper()
	trail, err := f.uc.GetAuditTrail(context.Background(), requestID)
	require.NoError(t, err)
	require.True(t, trail.Verified, "hash chain must verify")
	out := make([]audit.Action, 0, len(trail.Entries))
	for _, e := range trail.Entries {
		out = append(out, e.Action)
	}
	return out
}

func TestCreate_OpensPendingRequest(t *testing.T) {
	f := newFixture(t, newPolicy(2, true, "A", "B", "C"))
	ctx := context.Background()

	dto := f.create(t, "CERT-1")

	assert.Regexp(t, hex64, dto.RequestID)
	assert.Equal(t, domain.StatusPending, dto.Status)
	assert.Equal(t, uint32(2), dto.RequiredApprovals)
	assert.Equal(t, uint32(0), dto.CurrentApprovals)
	assert.Equal(t, []string{"A", "B", "C"}, dto.Approvers)
	assert.True(t, dto.ExpiresAt.Equal(t0.Add(time.Hour)))
	assert.Equal(t, "CERT-1", dto.Params.CertificateID)

	for _, actor := range []string{"A", "B", "C"} {
		ids, err := f.uc.GetPendingFor(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, []string{dto.RequestID}, ids, "pending for %s", actor)
	}
	ids, err := f.uc.GetPendingFor(ctx, "D")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.Equal(t, []audit.Action{audit.ActionCreated}, auditActions(t, f, dto.RequestID))
	assert.Equal(t, []string{event.ActionRequestCreated}, f.sink.Actions())
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture(t, newPolicy(2, true, "A", "B", "C"))
	ctx := context.Background()

	bad := mintParams("CERT-1")
	bad.Title = "x"
	_, err := f.uc.Create(ctx, CreateInput{Requester: "instructor", Params: bad})
	assert.ErrorIs(t, err, credential.ErrInvalidParams)

	_, err = f.uc.Create(ctx, CreateInput{Requester: "mallory", Params: mintParams("CERT-1")})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)

	other := mintParams("CERT-1")
	other.CourseID = "MA-201"
	_, err = f.uc.Create(ctx, CreateInput{Requester: "instructor", Params: other})
	assert.ErrorIs(t, err, policy.ErrPolicyNotFound)

	first := f.create(t, "CERT-1")
	f.advance(time.Second)
	_, err = f.uc.Create(ctx, CreateInput{Requester: "instructor", Params: mintParams("CERT-1")})
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	// nothing but the first creation reached the store
	assert.Equal(t, []audit.Action{audit.ActionCreated}, auditActions(t, f, first.RequestID))
	assert.Len(t, f.sink.Events, 1)
}

func TestCreate_CredentialAlreadyIssued(t *testing.T) {
	f := newFixture(t, newPolicy(1, true, "A"))
	dto := f.create(t, "CERT-1")
	_, err := f.vote("A", dto.RequestID, true)
	require.NoError(t, err)

	f.advance(time.Minute)
	_, err = f.uc.Create(context.Background(), CreateInput{Requester: "instructor", Params: mintParams("CERT-1")})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreate_ExpiresOverduePredecessor(t *testing.T) {
	f := newFixture(t, newPolicy(2, true, "A", "B", "C"))
	old := f.create(t, "CERT-1")

	f.advance(2 * time.Hour)
	fresh := f.create(t, "CERT-1")
	assert.NotEqual(t, old.RequestID, fresh.RequestID)

	prev, err := f.uc.GetRequest(context.Background(), old.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, prev.Status)
	assert.Equal(t, []audit.Action{audit.ActionCreated, audit.ActionExpired}, auditActions(t, f, old.RequestID))
	assert.Equal(t, []string{
		event.ActionRequestCreated, event.ActionRequestExpired, event.ActionRequestCreated,
	}, f.sink.Actions())
}

// A, B approve; auto-execute issues the credential; C is too late.
func TestVote_ThresholdWithAutoExecute(t *testing.T) {
	f := newFixture(t, newPolicy(2, true, "A", "B", "C"))
	dto := f.create(t, "CERT-1")

	f.advance(time.Minute)
	res, err := f.vote("A", dto.RequestID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, res.Status)
	assert.Equal(t, uint32(1), res.CurrentApprovals)

	f.advance(time.Minute)
	res, err = f.vote("B", dto.RequestID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, res.Status)
	assert.Equal(t, uint32(2), res.CurrentApprovals)
	assert.Equal(t, int64(1), f.credentials(t))

	_, err = f.vote("C", dto.RequestID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyExecuted)

	got, err := f.uc.GetRequest(context.Background(), dto.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, got.Status)
	assert.NotNil(t, got.ExecutedAt)
	assert.NotNil(t, got.ResolvedAt)
	require.Len(t, got.Votes, 2)
	assert.Equal(t, "A", got.Votes[0].Actor)
	assert.Equal(t, "B", got.Votes[1].Actor)

	ids, err := f.uc.GetPendingFor(context.Background(), "C")
	require.NoError(t, err)
	assert.Empty(t, ids)

	// created + one entry per counted vote + execution
	assert.Equal(t, []audit.Action{
		audit.ActionCreated, audit.ActionApprovalGranted, audit.ActionApprovalGranted, audit.ActionExecuted,
	}, auditActions(t, f, dto.RequestID))
	assert.Equal(t, []string{
		event.ActionRequestCreated,
		event.ActionApprovalGranted,
		event.ActionApprovalGranted,
		event.ActionRequestApproved,
		event.ActionRequestExecuted,
	}, f.sink.Actions())
}

// A rejects; the veto is final.
func TestVote_RejectVetoes(t *testing.T) {
	f := newFixture(t, newPolicy(2, true, "A", "B", "C"))
	dto := f.create(t, "CERT-1")

	res, err := f.vote("A", dto.RequestID, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, res.Status)

	_, err = f.vote("B", dto.RequestID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyRejected)

	assert.Equal(t, []audit.Action{audit.ActionCreated, audit.ActionRejected}, auditActions(t, f, dto.RequestID))
	assert.Equal(t, int64(0), f.credentials(t))

	// the subject is free again
	f.advance(time.Second)
	f.create(t, "CERT-1")
}

func TestVote_Refusals(t *testing.T) {
	f := newFixture(t, newPolicy(2, false, "A", "B", "C"))
	dto := f.create(t, "CERT-1")

	_, err := f.vote("D", dto.RequestID, true)
	assert.ErrorIs(t, err, domain.ErrApproverNotAuthorized)

	_, err = f.vote("A", dto.RequestID, true)
	require.NoError(t, err)
	_, err = f.vote("A", dto.RequestID, true)
	assert.ErrorIs(t, err, domain.ErrDuplicateVote)

	_, err = f.vote("A", "0000000000000000000000000000000000000000000000000000000000000001", true)
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	got, err := f.uc.GetRequest(context.Background(), dto.RequestID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.CurrentApprovals)
	assert.Len(t, got.Votes, 1)
}

func TestVote_AfterDeadlineExpires(t *testing.T) {
	f := newFixture(t, newPolicy(2, true, "A", "B", "C"))
	dto := f.create(t, "CERT-1")

	// the deadline itself is still open
	f.advance(time.Hour)
	res, err := f.vote("A", dto.RequestID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, res.Status)

	f.advance(time.Second)
	got, err := f.uc.GetRequest(context.Background(), dto.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status, "reads see the deadline before anything is written")

	res, err = f.vote("B", dto.RequestID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyExpired)
	require.NotNil(t, res)
	assert.Equal(t, domain.StatusExpired, res.Status)

	_, err = f.vote("C", dto.RequestID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyExpired)

	assert.Equal(t, []audit.Action{
		audit.ActionCreated, audit.ActionApprovalGranted, audit.ActionExpired,
	}, auditActions(t, f, dto.RequestID))
	assert.Equal(t, int64(0), f.credentials(t))
}

func TestExecute_Manual(t *testing.T) {
	f := newFixture(t, newPolicy(2, false, "A", "B", "C"))
	ctx := context.Background()
	dto := f.create(t, "CERT-1")

	_, err := f.uc.Execute(ctx, ExecuteInput{Actor: "instructor", RequestID: dto.RequestID})
	assert.ErrorIs(t, err, domain.ErrInsufficientApprovals)

	_, err = f.vote("A", dto.RequestID, true)
	require.NoError(t, err)
	res, err := f.vote("B", dto.RequestID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, res.Status)
	assert.Equal(t, int64(0), f.credentials(t))

	_, err = f.uc.Execute(ctx, ExecuteInput{Actor: "mallory", RequestID: dto.RequestID})
	assert.ErrorIs(t, err, authz.ErrUnauthorized)

	got, err := f.uc.Execute(ctx, ExecuteInput{Actor: "C", RequestID: dto.RequestID})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, got.Status)
	assert.Equal(t, int64(1), f.credentials(t))

	_, err = f.uc.Execute(ctx, ExecuteInput{Actor: "instructor", RequestID: dto.RequestID})
	assert.ErrorIs(t, err, domain.ErrAlreadyExecuted)
	assert.Equal(t, int64(1), f.credentials(t))

	assert.Equal(t, []audit.Action{
		audit.ActionCreated, audit.ActionApprovalGranted, audit.ActionApprovalGranted, audit.ActionExecuted,
	}, auditActions(t, f, dto.RequestID))
}

func TestExecute_RejectedOrOverdue(t *testing.T) {
	f := newFixture(t, newPolicy(2, false, "A", "B", "C"))
	ctx := context.Background()

	rejected := f.create(t, "CERT-1")
	_, err := f.vote("A", rejected.RequestID, false)
	require.NoError(t, err)
	_, err = f.uc.Execute(ctx, ExecuteInput{Actor: "instructor", RequestID: rejected.RequestID})
	assert.ErrorIs(t, err, domain.ErrAlreadyRejected)

	overdue := f.create(t, "CERT-2")
	f.advance(2 * time.Hour)
	dto, err := f.uc.Execute(ctx, ExecuteInput{Actor: "instructor", RequestID: overdue.RequestID})
	assert.ErrorIs(t, err, domain.ErrAlreadyExpired)
	require.NotNil(t, dto)
	assert.Equal(t, domain.StatusExpired, dto.Status)
	assert.Equal(t, []audit.Action{audit.ActionCreated, audit.ActionExpired}, auditActions(t, f, overdue.RequestID))
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t, newPolicy(2, false, "A", "B", "C"))
	ctx := context.Background()

	stale := f.create(t, "CERT-1")
	f.advance(30 * time.Minute)
	live := f.create(t, "CERT-2")
	done := f.create(t, "CERT-3")
	_, err := f.vote("A", done.RequestID, false)
	require.NoError(t, err)

	f.advance(45 * time.Minute)
	n, err := f.uc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.uc.GetRequest(ctx, stale.RequestID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, got.Status)
	trail, err := f.uc.GetAuditTrail(ctx, stale.RequestID)
	require.NoError(t, err)
	require.Len(t, trail.Entries, 2)
	assert.Equal(t, SystemActor, trail.Entries[1].Actor)

	ids, err := f.uc.GetPendingFor(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []string{live.RequestID}, ids)

	// idempotent
	n, err = f.uc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestGetAuditTrail_UnknownRequest(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.uc.GetAuditTrail(context.Background(), "0000000000000000000000000000000000000000000000000000000000000001")
	assert.ErrorIs(t, err, domain.ErrRequestNotFound)

	trail, err := f.uc.GetAuditTrail(context.Background(), audit.SentinelRequestID)
	require.NoError(t, err)
	assert.Empty(t, trail.Entries)
	assert.True(t, trail.Verified)
}

func TestRequestIDIsDeterministic(t *testing.T) {
	a := newFixture(t, newPolicy(1, false, "A"))
	b := newFixture(t, newPolicy(3, true, "X", "Y", "Z"))
	assert.Equal(t, a.create(t, "CERT-1").RequestID, b.create(t, "CERT-1").RequestID,
		"same payload at the same second derives the same id")
}
