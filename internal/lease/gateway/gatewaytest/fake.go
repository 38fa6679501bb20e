// Package gatewaytest provides an in-memory Gateway for tests.
package gatewaytest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
	"github.com/aussiebroadwan/leasekeeper/internal/lease/gateway"
)

// Call records one gateway invocation.
type Call struct {
	Method    string
	Group     int64
	Principal int64
	Handle    string
	Text      string
}

// Fake records every call and fails the ones it is told to. Safe for
// concurrent use.
type Fake struct {
	mu    sync.Mutex
	calls []Call
	seq   int

	// Errors by method name, e.g. "ApproveJoin".
	Errors map[string]error
	// EvictErrors fails EvictMember for specific principals.
	EvictErrors map[int64]error
	// Unreachable principals get gateway.ErrUnreachable from NotifyPrincipal.
	Unreachable map[int64]bool

	Permissions domain.Permissions

	// OnCall, when set, runs after each call is recorded and before it
	// returns, outside the fake's lock.
	OnCall func(Call)
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		Errors:      map[string]error{},
		EvictErrors: map[int64]error{},
		Unreachable: map[int64]bool{},
		Permissions: domain.Permissions{Status: "administrator", CanInviteUsers: true, CanRestrictMembers: true},
	}
}

// Fail makes method return err from now on.
func (f *Fake) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[method] = err
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	err := f.Errors[c.Method]
	hook := f.OnCall
	f.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return err
}

// Calls returns a copy of every recorded call.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns only the calls to method.
func (f *Fake) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) CreateInvitation(ctx context.Context, group int64, expiresAt time.Time, name string) (string, error) {
	if err := f.record(Call{Method: "CreateInvitation", Group: group, Text: name}); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("https://t.me/+fake%04d", f.seq), nil
}

func (f *Fake) ApproveJoin(ctx context.Context, group, principal int64) error {
	return f.record(Call{Method: "ApproveJoin", Group: group, Principal: principal})
}

func (f *Fake) DeclineJoin(ctx context.Context, group, principal int64) error {
	return f.record(Call{Method: "DeclineJoin", Group: group, Principal: principal})
}

func (f *Fake) RevokeInvitation(ctx context.Context, group int64, handle string) error {
	return f.record(Call{Method: "RevokeInvitation", Group: group, Handle: handle})
}

func (f *Fake) EvictMember(ctx context.Context, group, principal int64) error {
	if err := f.record(Call{Method: "EvictMember", Group: group, Principal: principal}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.EvictErrors[principal]
}

func (f *Fake) NotifyPrincipal(ctx context.Context, principal int64, text string) error {
	if err := f.record(Call{Method: "NotifyPrincipal", Principal: principal, Text: text}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unreachable[principal] {
		return gateway.ErrUnreachable
	}
	return nil
}

func (f *Fake) CheckPermissions(ctx context.Context, group int64) (domain.Permissions, error) {
	if err := f.record(Call{Method: "CheckPermissions", Group: group}); err != nil {
		return domain.Permissions{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Permissions, nil
}
