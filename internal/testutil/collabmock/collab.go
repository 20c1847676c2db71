// Package collabmock holds function-backed mocks for the ports around the
// workflow: policy and audit stores, the issuer, the permission oracle and
// the event sink.
package collabmock

import (
	"context"
	"sync"

	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/event"
	"credential-approval/internal/domain/policy"
)

var (
	_ policy.Repository = (*Policies)(nil)
	_ audit.Repository  = (*Audit)(nil)
	_ credential.Issuer = (*Issuer)(nil)
	_ authz.Oracle      = (*Oracle)(nil)
	_ event.Sink        = (*Sink)(nil)
)

type Policies struct {
	UpsertFn     func(ctx context.Context, p *policy.Policy) error
	GetByScopeFn func(ctx context.Context, scope string) (*policy.Policy, error)
}

func (m *Policies) Upsert(ctx context.Context, p *policy.Policy) error {
	if m.UpsertFn != nil {
		return m.UpsertFn(ctx, p)
	}
	return nil
}

func (m *Policies) GetByScope(ctx context.Context, scope string) (*policy.Policy, error) {
	if m.GetByScopeFn != nil {
		return m.GetByScopeFn(ctx, scope)
	}
	return nil, policy.ErrPolicyNotFound
}

// Audit records appended entries when AppendFn is nil.
type Audit struct {
	AppendFn  func(ctx context.Context, e *audit.Entry) error
	HistoryFn func(ctx context.Context, requestID string) ([]audit.Entry, error)

	mu      sync.Mutex
	Entries []audit.Entry
}

func (m *Audit) Append(ctx context.Context, e *audit.Entry) error {
	if m.AppendFn != nil {
		return m.AppendFn(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var prev *audit.Entry
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].RequestID == e.RequestID {
			prev = &m.Entries[i]
			break
		}
	}
	if err := audit.Seal(e, prev); err != nil {
		return err
	}
	m.Entries = append(m.Entries, *e)
	return nil
}

func (m *Audit) History(ctx context.Context, requestID string) ([]audit.Entry, error) {
	if m.HistoryFn != nil {
		return m.HistoryFn(ctx, requestID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []audit.Entry{}
	for _, e := range m.Entries {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

type Issuer struct {
	ExistsFn func(ctx context.Context, certificateID string) (bool, error)
	IssueFn  func(ctx context.Context, p credential.MintParams, requestID, issuer string) (*credential.Credential, error)

	mu     sync.Mutex
	Issued int
}

func (m *Issuer) Exists(ctx context.Context, certificateID string) (bool, error) {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, certificateID)
	}
	return false, nil
}

func (m *Issuer) Issue(ctx context.Context, p credential.MintParams, requestID, issuer string) (*credential.Credential, error) {
	m.mu.Lock()
	m.Issued++
	m.mu.Unlock()
	if m.IssueFn != nil {
		return m.IssueFn(ctx, p, requestID, issuer)
	}
	return &credential.Credential{CertificateID: p.CertificateID, RequestID: requestID, Issuer: issuer}, nil
}

// Oracle grants every capability listed in Grants[actor] unless IsAuthorizedFn is set.
type Oracle struct {
	IsAuthorizedFn func(ctx context.Context, actor string, c authz.Capability) (bool, error)
	Grants         map[string][]authz.Capability
}

func (m *Oracle) IsAuthorized(ctx context.Context, actor string, c authz.Capability) (bool, error) {
	if m.IsAuthorizedFn != nil {
		return m.IsAuthorizedFn(ctx, actor, c)
	}
	for _, g := range m.Grants[actor] {
		if g == c {
			return true, nil
		}
	}
	return false, nil
}

// Sink records published events unless PublishFn is set.
type Sink struct {
	PublishFn func(ctx context.Context, ev event.Event) error

	mu     sync.Mutex
	Events []event.Event
}

func (m *Sink) Publish(ctx context.Context, ev event.Event) error {
	m.mu.Lock()
	m.Events = append(m.Events, ev)
	m.mu.Unlock()
	if m.PublishFn != nil {
		return m.PublishFn(ctx, ev)
	}
	return nil
}

// Actions returns the recorded event actions in publish order.
func (m *Sink) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Events))
	for _, ev := range m.Events {
		out = append(out, ev.Action)
	}
	return out
}
