package authz

import (
	"context"
	"errors"
	"time"
)

var ErrUnauthorized = errors.New("unauthorized")

type Capability string

const (
	CapSubmitRequest Capability = "submit_request"
	CapManagePolicy  Capability = "manage_policy"
)

func (c Capability) Valid() bool { return c == CapSubmitRequest || c == CapManagePolicy }

// Oracle answers whether an actor holds a capability. Approver rights are not
// asked here; they come from the request's own approver set.
type Oracle interface {
	IsAuthorized(ctx context.Context, actor string, c Capability) (bool, error)
}

// Table: actor_grants
type Grant struct {
	ID         uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	Actor      string     `gorm:"column:actor;size:64;not null;uniqueIndex:ux_grants_actor_capability"`
	Capability Capability `gorm:"column:capability;size:32;not null;uniqueIndex:ux_grants_actor_capability"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (Grant) TableName() string { return "actor_grants" }

// Require turns a negative or failed oracle answer into an error.
func Require(ctx context.Context, o Oracle, actor string, c Capability) error {
	if o == nil {
		return ErrUnauthorized
	}
	ok, err := o.IsAuthorized(ctx, actor, c)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}
