package approval

import (
	"context"
	"testing"
	"time"

	"credential-approval/internal/adapter/repository/mysql"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/policy"
	"credential-approval/internal/testutil/collabmock"
	"credential-approval/internal/testutil/testdb"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

// fixture wires the usecase to an in-memory database through the real
// repositories and unit of work.
type fixture struct {
	uc     *Usecase
	db     *gorm.DB
	sink   *collabmock.Sink
	oracle *collabmock.Oracle
	at     time.Time
}

func newFixture(t *testing.T, pol *policy.Policy) *fixture {
	t.Helper()
	db := testdb.Open(t, mysql.Models()...)
	if pol != nil {
		require.NoError(t, mysql.NewPolicyRepository(db).Upsert(context.Background(), pol))
	}
	f := &fixture{
		db:   db,
		sink: &collabmock.Sink{},
		oracle: &collabmock.Oracle{Grants: map[string][]authz.Capability{
			"instructor": {authz.CapSubmitRequest},
		}},
		at: t0,
	}
	f.uc = NewUsecase(Deps{
		Requests: mysql.NewRequestRepository(db),
		Pending:  mysql.NewPendingRepository(db),
		Audit:    mysql.NewAuditRepository(db),
		UoW:      mysql.NewGormUoW(db),
		Oracle:   f.oracle,
		Sink:     f.sink,
		Logger:   zaptest.NewLogger(t),
	}, WithClock(func() time.Time { return f.at }))
	return f
}

func (f *fixture) advance(d time.Duration) { f.at = f.at.Add(d) }

func (f *fixture) create(t *testing.T, certID string) *RequestDTO {
	t.Helper()
	dto, err := f.uc.Create(context.Background(), CreateInput{Requester: "instructor", Params: mintParams(certID), Reason: "term end"})
	require.NoError(t, err)
	return dto
}

func (f *fixture) vote(actor, requestID string, approved bool) (*VoteResult, error) {
	return f.uc.Vote(context.Background(), VoteInput{Actor: actor, RequestID: requestID, Approved: approved})
}

func (f *fixture) credentials(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&credential.Credential{}).Count(&n).Error)
	return n
}

func newPolicy(required uint32, autoExecute bool, approvers ...string) *policy.Policy {
	return &policy.Policy{
		Scope:             "CS-101",
		RequiredApprovals: required,
		Approvers:         approvers,
		TimeoutSeconds:    3600,
		Priority:          policy.PriorityStandard,
		AutoExecute:       autoExecute,
		UpdatedBy:         "admin",
	}
}

func mintParams(certID string) credential.MintParams {
	return credential.MintParams{
		CertificateID: certID,
		CourseID:      "CS-101",
		Student:       "student-1",
		Title:         "Algorithms",
		Description:   "Completed the algorithms course.",
		MetadataURI:   "ipfs://bafy-meta-1",
	}
}
