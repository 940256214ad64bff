package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/title-rag/backend/internal/metrics"
	"github.com/title-rag/backend/internal/storage"
	"github.com/title-rag/backend/internal/storage/models"
	"github.com/title-rag/backend/pkg/logger"
)

var errMalformed = errors.New("malformed query record")

// Worker consumes published query records and inserts them into a store.
type Worker struct {
	conn      *amqp.Connection
	recorder  storage.QueryRecorder
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewWorker(conn *amqp.Connection, recorder storage.QueryRecorder, queueName string) *Worker {
	return &Worker{
		conn:      conn,
		recorder:  recorder,
		queueName: queueName,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := declare(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	logger.Info("Query record worker started", zap.String("queue", w.queueName))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.process(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errMalformed):
		logger.Error("Dropping undecodable query record", zap.Error(err))
		_ = d.Nack(false, false)
	default:
		metrics.PersistenceFailures.WithLabelValues("worker").Inc()
		// one more attempt, then give up so a poison record cannot spin forever
		requeue := !d.Redelivered
		logger.Error("Worker failed to persist query record",
			zap.String("message_id", d.MessageId),
			zap.Bool("requeue", requeue),
			zap.Error(err),
		)
		_ = d.Nack(false, requeue)
	}
}

func (w *Worker) process(ctx context.Context, body []byte) error {
	var record models.QueryRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: missing id", errMalformed)
	}
	return w.recorder.InsertQueryRecord(ctx, &record)
}

func (w *Worker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
