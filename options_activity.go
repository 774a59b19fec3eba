package store

import (
	"context"

	"github.com/goliatone/go-store/pkg/activity"
)

// WithActivityHooks emits an activity event for every traced action call.
// Hooks only run while devtools is enabled; nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks, cfg ...activity.Config) Option {
	normalized := hooks.Clone()
	return func(c *storeConfig) {
		c.activityHooks = normalized
		if len(cfg) > 0 {
			c.activityConfig = cfg[0]
		}
	}
}

type activityObserver struct {
	emitter *activity.Emitter
	logger  Logger
}

func newActivityObserver(hooks activity.Hooks, cfg activity.Config, logger Logger) Observer {
	return activityObserver{
		emitter: activity.NewEmitter(hooks, cfg),
		logger:  logger,
	}
}

func (o activityObserver) OnActionStart(Invocation) {}

// OnActionEnd emits the event. Hook failures are logged and never reach the
// action caller.
func (o activityObserver) OnActionEnd(inv Invocation) {
	event := activity.BuildActionEvent(activity.ActionEventInput{
		Slice:        inv.Slice,
		Key:          inv.Key,
		Action:       inv.Action,
		InvocationID: inv.ID,
		Args:         inv.Args,
		Before:       inv.Before,
		After:        inv.After,
		Err:          inv.Err,
		Duration:     inv.Duration,
		OccurredAt:   inv.StartedAt.Add(inv.Duration),
	})
	if err := o.emitter.Emit(context.Background(), event); err != nil {
		o.logger.Warn("store: activity hook failed", "action", inv.Label(), "error", err)
	}
}
