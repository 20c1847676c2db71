package credential

import "context"

// Issuer performs the gated effect. Issue must be called at most once per
// certificate id; callers check Exists first.
type Issuer interface {
	Exists(ctx context.Context, certificateID string) (bool, error)
	Issue(ctx context.Context, p MintParams, requestID, issuer string) (*Credential, error)
}
