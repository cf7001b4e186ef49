package services

import (
	"context"

	types "github.com/yungbote/refyne-backend/internal/domain"
	"github.com/yungbote/refyne-backend/internal/realtime"
)

type RunNotifier interface {
	RunStarted(run types.ProcessingRun)
	RunProgress(run types.ProcessingRun)
	RunDone(run types.ProcessingRun)
}

type runNotifier struct {
	emit EventEmitter
}

func NewRunNotifier(emit EventEmitter) RunNotifier {
	return &runNotifier{emit: emit}
}

func (n *runNotifier) RunStarted(run types.ProcessingRun) {
	n.send(realtime.SSEEventRunStarted, run)
}

func (n *runNotifier) RunProgress(run types.ProcessingRun) {
	n.send(realtime.SSEEventRunProgress, run)
}

func (n *runNotifier) RunDone(run types.ProcessingRun) {
	n.send(realtime.SSEEventRunDone, run)
}

func (n *runNotifier) send(event realtime.SSEEvent, run types.ProcessingRun) {
	if n == nil || n.emit == nil {
		return
	}
	n.emit.Emit(context.Background(), realtime.SSEMessage{
		Channel: realtime.ProjectChannel(run.ProjectID),
		Event:   event,
		Data: map[string]any{
			"projectId": run.ProjectID,
			"run":       run,
		},
	})
}

type nopRunNotifier struct{}

func (nopRunNotifier) RunStarted(types.ProcessingRun)  {}
func (nopRunNotifier) RunProgress(types.ProcessingRun) {}
func (nopRunNotifier) RunDone(types.ProcessingRun)     {}
