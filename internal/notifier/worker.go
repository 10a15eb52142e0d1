package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/database"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/domain"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/events"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/metrics"
	"github.com/MohaDouzi/Shotgun-ENSAI-App/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Worker drains the persistent notify queue and sends mail through the
// configured MailSender. Delivery is best effort: failures are retried
// with backoff, then dead-lettered, never surfaced to producers.
type Worker struct {
	db            *database.DB
	mailer        domain.MailSender
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.NotifyTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	sendTimeout   time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewWorker builds a worker. Zero values fall back to sane defaults.
func NewWorker(db *database.DB, mailer domain.MailSender, redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *Worker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	return &Worker{
		db:            db,
		mailer:        mailer,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.NotifyTask, 128),
		redisQueueKey: "notify:queue",
		deadLetterKey: "notify:deadletter",
		pollInterval:  pollInterval,
		sendTimeout:   15 * time.Second,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// EnqueueTask persists the task and schedules it via redis or the
// in-memory queue.
func (w *Worker) EnqueueTask(ctx context.Context, taskType string, eventID int64, recipient string, payload interface{}) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if recipient == "" {
		return errors.New("recipient is required")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.NotifyTask{
		TaskType:  taskType,
		EventID:   eventID,
		Recipient: recipient,
		Payload:   string(payloadBytes),
		Status:    models.NotifyStatusPending,
	}

	if err := w.db.CreateNotifyTask(ctx, &task); err != nil {
		return fmt.Errorf("persist notify task: %w", err)
	}
	metrics.NotificationsEnqueued.Inc()

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("notifier: redis push failed, fallback to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("notifier: in-memory queue full, task dropped to polling")
	}

	return nil
}

// EnqueueFanOut persists one task per recipient. The first persistence
// failure stops the loop; already queued tasks stay queued.
func (w *Worker) EnqueueFanOut(ctx context.Context, taskType string, eventID int64, recipients []string, payload interface{}) error {
	for _, recipient := range recipients {
		if err := w.EnqueueTask(ctx, taskType, eventID, recipient, payload); err != nil {
			return err
		}
	}
	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info().Msg("notifier: started")
	defer w.logger.Info().Msg("notifier: stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingNotifyTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("notifier: fetch pending")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *Worker) tryLocalQueue() (models.NotifyTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.NotifyTask{}, false
	}
}

func (w *Worker) tryRedis(ctx context.Context) (models.NotifyTask, bool) {
	if w.redis == nil {
		return models.NotifyTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.NotifyTask{}, false
		}
		w.logger.Error().Err(err).Msg("notifier: redis BRPOP error")
		return models.NotifyTask{}, false
	}
	if len(res) != 2 {
		return models.NotifyTask{}, false
	}
	var task models.NotifyTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("notifier: decode redis task")
		return models.NotifyTask{}, false
	}
	return task, true
}

func (w *Worker) processTask(ctx context.Context, task *models.NotifyTask) {
	subject, body, err := renderMessage(task)
	if err != nil {
		w.failTask(ctx, task, fmt.Errorf("render message: %w", err))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	err = w.mailer.Send(sendCtx, uuid.NewString(), task.Recipient, subject, body)
	cancel()
	if err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	metrics.NotificationsSent.Inc()
	if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyStatusCompleted, "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notifier: mark completed")
	}
}

// renderMessage builds the subject and body for one task.
func renderMessage(task *models.NotifyTask) (string, string, error) {
	switch task.TaskType {
	case models.NotifyEventCreated:
		var p events.EventSnapshotPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return "", "", err
		}
		subject := fmt.Sprintf("Nouvel événement : %s", p.Title)
		body := fmt.Sprintf("L'événement %q (%s) est ouvert aux réservations le %s.",
			p.Title, p.City, p.Date.Format("02/01/2006"))
		return subject, body, nil
	case models.NotifyEventCancelled:
		var p events.EventSnapshotPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return "", "", err
		}
		subject := fmt.Sprintf("Événement annulé : %s", p.Title)
		body := fmt.Sprintf("L'événement %q prévu le %s est annulé.",
			p.Title, p.Date.Format("02/01/2006"))
		return subject, body, nil
	case models.NotifyReservationConfirmed:
		var p events.ReservationEventPayload
		if err := json.Unmarshal([]byte(task.Payload), &p); err != nil {
			return "", "", err
		}
		subject := fmt.Sprintf("Réservation confirmée : %s", p.EventTitle)
		body := fmt.Sprintf("Votre réservation n°%d pour %q est confirmée.", p.ReservationID, p.EventTitle)
		if p.OutboundBus {
			body += " Place de bus aller incluse."
		}
		if p.ReturnBus {
			body += " Place de bus retour incluse."
		}
		return subject, body, nil
	default:
		return "", "", fmt.Errorf("unknown task type: %s", task.TaskType)
	}
}

func (w *Worker) retryOrFail(ctx context.Context, task *models.NotifyTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyStatusFailed, cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notifier: mark failed")
		}
		metrics.NotificationsFailed.Inc()
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyStatusRetry, cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notifier: mark retry")
	}
}

func (w *Worker) failTask(ctx context.Context, task *models.NotifyTask, cause error) {
	if err := w.db.UpdateNotifyTaskStatus(ctx, task.ID, models.NotifyStatusFailed, cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notifier: mark failed")
	}
	metrics.NotificationsFailed.Inc()
	w.pushDeadLetter(ctx, task)
}

func (w *Worker) pushRedis(ctx context.Context, task models.NotifyTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *Worker) pushDeadLetter(ctx context.Context, task *models.NotifyTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notifier: encode deadletter")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("notifier: deadletter push")
	}
}
