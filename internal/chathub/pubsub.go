package chathub

import (
	"context"
	"log/slog"
)

// PresenceMirror publishes directory changes outside the process, e.g. to
// Redis. It is informational only: the hub never reads presence back.
type PresenceMirror interface {
	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
}

type mirrorOp struct {
	userID string
	online bool
}

// startMirror runs mirror updates on their own goroutine so a slow Redis
// never stalls the dispatcher. Updates keep their order.
func startMirror(ctx context.Context, mirror PresenceMirror, log *slog.Logger) chan<- mirrorOp {
	if mirror == nil {
		return nil
	}
	ops := make(chan mirrorOp, 1024)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case op := <-ops:
				var err error
				if op.online {
					err = mirror.MarkOnline(ctx, op.userID)
				} else {
					err = mirror.MarkOffline(ctx, op.userID)
				}
				if err != nil {
					log.Warn("presence mirror update failed", "user_id", op.userID, "online", op.online, "error", err)
				}
			}
		}
	}()
	return ops
}
