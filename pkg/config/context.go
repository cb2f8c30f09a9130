package config

import "context"

type key string

const managerKey key = "portscout.config.manager"

// WithContext stores the shared config manager on context.
func WithContext(ctx context.Context, manager *Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, managerKey, manager)
}

// FromContext retrieves the shared config manager from context.
func FromContext(ctx context.Context) (*Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(managerKey).(*Manager)
	return mgr, ok && mgr != nil
}
