package audit

import (
	"errors"
	"fmt"
	"time"

	"credential-approval/pkg/id"

	"gorm.io/gorm"
)

var (
	ErrChainBroken = errors.New("audit chain broken")
	ErrImmutable   = errors.New("audit entries are append-only")
	// ErrSeqConflict means another writer extended the chain first; the
	// enclosing transaction may be retried.
	ErrSeqConflict = errors.New("audit chain head moved")
)

type Action string

const (
	ActionCreated         Action = "created"
	ActionApprovalGranted Action = "approval_granted"
	ActionRejected        Action = "rejected"
	ActionExecuted        Action = "executed"
	ActionConfigUpdated   Action = "config_updated"
	ActionExpired         Action = "expired"
	ActionExecutionFailed Action = "execution_failed"
)

// SentinelRequestID keys entries that belong to no request (policy changes).
var SentinelRequestID = id.Zero64

// Table: audit_entries. Rows are only ever inserted.
type Entry struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RequestID  string    `gorm:"column:request_id;type:char(64);not null;uniqueIndex:ux_audit_request_seq,priority:1" json:"request_id"`
	Seq        uint64    `gorm:"column:seq;not null;uniqueIndex:ux_audit_request_seq,priority:2" json:"seq"`
	Action     Action    `gorm:"column:action;size:32;not null" json:"action"`
	Actor      string    `gorm:"column:actor;size:64;not null" json:"actor"`
	Detail     string    `gorm:"column:detail;type:text" json:"detail,omitempty"`
	PrevStatus string    `gorm:"column:prev_status;size:20" json:"prev_status,omitempty"`
	NewStatus  string    `gorm:"column:new_status;size:20" json:"new_status,omitempty"`
	At         time.Time `gorm:"column:at;not null" json:"at"`
	PrevHash   string    `gorm:"column:prev_hash;type:char(64);not null" json:"prev_hash"`
	Hash       string    `gorm:"column:hash;type:char(64);not null" json:"hash"`
}

func (Entry) TableName() string { return "audit_entries" }

func (*Entry) BeforeUpdate(*gorm.DB) error { return ErrImmutable }
func (*Entry) BeforeDelete(*gorm.DB) error { return ErrImmutable }

type hashed struct {
	RequestID  string `json:"request_id"`
	Seq        uint64 `json:"seq"`
	Action     Action `json:"action"`
	Actor      string `json:"actor"`
	Detail     string `json:"detail"`
	PrevStatus string `json:"prev_status"`
	NewStatus  string `json:"new_status"`
	At         int64  `json:"at"`
	PrevHash   string `json:"prev_hash"`
}

func (e *Entry) digest() (string, error) {
	return id.Digest(hashed{
		RequestID:  e.RequestID,
		Seq:        e.Seq,
		Action:     e.Action,
		Actor:      e.Actor,
		Detail:     e.Detail,
		PrevStatus: e.PrevStatus,
		NewStatus:  e.NewStatus,
		At:         e.At.Unix(),
		PrevHash:   e.PrevHash,
	})
}

// Seal numbers e after prev (nil when e is the first entry of its request)
// and links it into the hash chain.
func Seal(e *Entry, prev *Entry) error {
	e.At = e.At.UTC().Truncate(time.Second)
	if prev == nil {
		e.Seq = 1
		e.PrevHash = id.Zero64
	} else {
		e.Seq = prev.Seq + 1
		e.PrevHash = prev.Hash
	}
	h, err := e.digest()
	if err != nil {
		return err
	}
	e.Hash = h
	return nil
}

// Verify checks that entries form one unbroken chain starting at seq 1.
func Verify(entries []Entry) error {
	prevHash := id.Zero64
	for i := range entries {
		e := &entries[i]
		if e.Seq != uint64(i+1) {
			return fmt.Errorf("%w: seq %d at position %d", ErrChainBroken, e.Seq, i)
		}
		if e.PrevHash != prevHash {
			return fmt.Errorf("%w: prev hash mismatch at seq %d", ErrChainBroken, e.Seq)
		}
		h, err := e.digest()
		if err != nil {
			return err
		}
		if h != e.Hash {
			return fmt.Errorf("%w: hash mismatch at seq %d", ErrChainBroken, e.Seq)
		}
		prevHash = e.Hash
	}
	return nil
}
