package cashflow

import "context"

// Listener is told about every committed ledger mutation of a loan.
// Implementations must not fail the write that triggered them.
type Listener interface {
	OnCashFlowCommitted(ctx context.Context, loanIdentifier string)
}

type ListenerFunc func(ctx context.Context, loanIdentifier string)

func (f ListenerFunc) OnCashFlowCommitted(ctx context.Context, loanIdentifier string) {
	f(ctx, loanIdentifier)
}

// Listeners fans out to each listener in order.
type Listeners []Listener

func (ls Listeners) OnCashFlowCommitted(ctx context.Context, loanIdentifier string) {
	for _, l := range ls {
		if l != nil {
			l.OnCashFlowCommitted(ctx, loanIdentifier)
		}
	}
}
