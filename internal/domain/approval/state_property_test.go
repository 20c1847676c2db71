package approval

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const voters = 7

func propRequest(required uint32) *Request {
	approvers := make([]string, voters)
	for i := range approvers {
		approvers[i] = fmt.Sprintf("v%d", i)
	}
	return &Request{
		RequestID:         "prop",
		RequiredApprovals: required,
		Approvers:         approvers,
		Status:            StatusPending,
		CreatedAt:         t0,
		ExpiresAt:         t0.Add(time.Hour),
	}
}

// castAll lets voter i vote ballots[i] in the given order and ignores state errors.
func castAll(r *Request, order []int, ballots []bool, at time.Time) {
	for _, i := range order {
		_, _ = r.Cast(fmt.Sprintf("v%d", i), ballots[i], "", nil, at)
	}
}

func permutation(n int, seed []int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := seed[i%len(seed)] % (i + 1)
		p[i], p[j] = p[j], p[i]
	}
	return p
}

func TestProperties_VoteStateMachine(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 300
	properties := gopter.NewProperties(params)

	ballotsGen := gen.SliceOfN(voters, gen.Bool())
	seedGen := gen.SliceOfN(voters, gen.IntRange(0, 1000))
	requiredGen := gen.UInt32Range(1, voters)

	properties.Property("a rejection ends the request unless the threshold was met first", prop.ForAll(
		func(required uint32, ballots []bool) bool {
			order := permutation(voters, []int{0})
			r := propRequest(required)
			castAll(r, order, ballots, t0)

			var yes uint32
			for _, i := range order {
				if yes >= required {
					break
				}
				if !ballots[i] {
					return r.Status == StatusRejected
				}
				yes++
			}
			return r.Status == StatusApproved
		},
		requiredGen, ballotsGen,
	))

	properties.Property("Decide does not depend on vote order", prop.ForAll(
		func(required uint32, ballots []bool, s1, s2 []int) bool {
			build := func(order []int) []Vote {
				votes := make([]Vote, 0, len(order))
				for _, i := range order {
					votes = append(votes, Vote{Actor: fmt.Sprintf("v%d", i), Approved: ballots[i]})
				}
				return votes
			}
			sa, na := Decide(required, build(permutation(voters, s1)))
			sb, nb := Decide(required, build(permutation(voters, s2)))
			return sa == sb && na == nb
		},
		requiredGen, ballotsGen, seedGen, seedGen,
	))

	properties.Property("approve-only votes reach Approved exactly at the threshold", prop.ForAll(
		func(required uint32) bool {
			r := propRequest(required)
			for i := 0; i < voters; i++ {
				out, err := r.Cast(fmt.Sprintf("v%d", i), true, "", nil, t0)
				if uint32(i+1) < required {
					if err != nil || out.Next != StatusPending {
						return false
					}
				} else if uint32(i+1) == required {
					if err != nil || out.Next != StatusApproved {
						return false
					}
				} else if err != ErrAlreadyApproved {
					return false
				}
			}
			return r.CurrentApprovals == required
		},
		requiredGen,
	))

	properties.Property("Decide vetoes on any rejection regardless of position", prop.ForAll(
		func(required uint32, ballots []bool) bool {
			votes := make([]Vote, 0, len(ballots))
			no := false
			for i, b := range ballots {
				votes = append(votes, Vote{Actor: fmt.Sprintf("v%d", i), Approved: b})
				no = no || !b
			}
			st, _ := Decide(required, votes)
			return !no || st == StatusRejected
		},
		requiredGen, ballotsGen,
	))

	properties.Property("late votes never change status", prop.ForAll(
		func(required uint32, ballots []bool) bool {
			r := propRequest(required)
			castAll(r, permutation(voters, []int{0}), ballots, r.ExpiresAt.Add(time.Second))
			return r.Status == StatusExpired && len(r.Votes) == 0
		},
		requiredGen, ballotsGen,
	))

	properties.Property("no actor is counted twice", prop.ForAll(
		func(idx int) bool {
			r := propRequest(voters)
			actor := fmt.Sprintf("v%d", idx)
			_, _ = r.Cast(actor, true, "", nil, t0)
			_, err := r.Cast(actor, true, "", nil, t0)
			return err == ErrDuplicateVote && r.CurrentApprovals == 1
		},
		gen.IntRange(0, voters-1),
	))

	properties.TestingRun(t)
}
