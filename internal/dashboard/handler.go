package dashboard

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gigcal/gigcal/internal/engine"
	"github.com/gigcal/gigcal/internal/purge"
)

// Handler formats daemon events as dashboard messages. It bridges the
// reconciler/archiver/purger callbacks and the WebSocket server.
type Handler struct {
	server *Server
	logger *log.Logger
}

// NewHandler creates a handler publishing to server.
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{server: server, logger: logger}
}

// OnRunComplete publishes a finished reconciliation summary. Wired to
// Reconciler.OnComplete.
func (h *Handler) OnRunComplete(summary *engine.RunSummary) {
	h.publish(MessageTypeRunSummary, RunSummaryData{
		DryRun:  summary.DryRun,
		Created: summary.Created,
		Updated: summary.Updated,
		Deleted: summary.Deleted,
		Skipped: summary.Skipped,
		Lines:   summary.Lines(),
	})
}

// OnArchiveComplete publishes an archive pass result.
func (h *Handler) OnArchiveComplete(moved int) {
	h.publish(MessageTypeArchive, ArchiveData{Moved: moved})
}

// OnPurgeProgress publishes purge progress.
func (h *Handler) OnPurgeProgress(res *purge.Result) {
	h.publish(MessageTypePurge, PurgeData{
		Deleted:   res.Deleted,
		Remaining: res.Remaining,
		Done:      res.Done,
	})
}

// OnEdit publishes that a sheet edit was observed.
func (h *Handler) OnEdit() {
	h.publish(MessageTypeEdit, nil)
}

func (h *Handler) publish(typ MessageType, data interface{}) {
	msg := Message{Type: typ, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			h.logger.Printf("Failed to marshal %s data: %v", typ, err)
			return
		}
		msg.Data = raw
	}
	h.server.Broadcast(msg)
}
