package handler

import (
	"log/slog"
	"net/http"

	"github.com/ZyrusXD/BMA-Voice/internal/events"
	"github.com/ZyrusXD/BMA-Voice/internal/scheduler"
)

// Cron task names accepted by POST /cron/{task}.
const (
	TaskDailyMissions = "daily_missions"
	TaskWeeklyPoll    = "weekly_poll"
	TaskBackfill      = "backfill"
)

type CronHandler struct {
	scheduler     *scheduler.Scheduler
	events        *events.Dispatcher
	backfillBatch int
	logger        *slog.Logger
}

func NewCronHandler(s *scheduler.Scheduler, d *events.Dispatcher, backfillBatch int, logger *slog.Logger) *CronHandler {
	return &CronHandler{scheduler: s, events: d, backfillBatch: backfillBatch, logger: logger}
}

// Run triggers one scheduled job out of band for an external cron.
func (h *CronHandler) Run(w http.ResponseWriter, r *http.Request) {
	task := r.PathValue("task")
	log := h.logger.With("task", task)

	switch task {
	case TaskDailyMissions:
		summary, err := h.scheduler.RunDailyMissionAssignment()
		if err != nil {
			log.Error("cron task failed", "error", err)
			writeError(w, http.StatusInternalServerError, "task failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task": task, "summary": summary})

	case TaskWeeklyPoll:
		p, err := h.scheduler.RunWeeklyPollGeneration()
		if err != nil {
			log.Error("cron task failed", "error", err)
			writeError(w, http.StatusInternalServerError, "task failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task": task, "created": p != nil, "poll": p})

	case TaskBackfill:
		n, err := h.events.Backfill(h.backfillBatch)
		if err != nil {
			log.Error("cron task failed", "error", err)
			writeError(w, http.StatusInternalServerError, "task failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task": task, "processed": n})

	default:
		writeError(w, http.StatusNotFound, "unknown task")
	}
}
