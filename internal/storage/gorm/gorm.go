// Package gormstorage implements the storage.Backend interface on top of GORM
// with internal queues and a background DB writer goroutine. The sqlite and
// postgres backends wrap it.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/liftsim/liftsim/internal/database"
	"github.com/liftsim/liftsim/internal/model"
	"github.com/liftsim/liftsim/internal/model/convert"
	"github.com/liftsim/liftsim/internal/queue"
	"github.com/liftsim/liftsim/pkg/core"

	"gorm.io/gorm"
)

// DefaultFlushInterval is used when Dependencies.FlushInterval is zero.
const DefaultFlushInterval = time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// queues holds all the write queues for batch DB insertion.
type queues struct {
	Passengers      *queue.Queue[model.Passenger]
	Visits          *queue.Queue[model.Visit]
	PassengerEvents *queue.Queue[model.PassengerEvent]
	Sweeps          *queue.Queue[model.Sweep]
}

func newQueues() *queues {
	return &queues{
		Passengers:      queue.New[model.Passenger](),
		Visits:          queue.New[model.Visit](),
		PassengerEvents: queue.New[model.PassengerEvent](),
		Sweeps:          queue.New[model.Sweep](),
	}
}

// Backend implements storage.Backend using GORM with queue-based batch writes.
type Backend struct {
	deps     Dependencies
	log      *slog.Logger
	queues   *queues
	runID    atomic.Uint64
	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Backend{
		deps:   deps,
		log:    log.With("component", "storage"),
		queues: newQueues(),
	}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("no database connection")
	}

	b.log.Debug("Migrating schema")
	if err := database.Migrate(b.deps.DB); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writer()

	b.log.Debug("Database setup complete", "dialect", b.deps.DB.Name())
	return nil
}

// Close stops the writer goroutine and writes whatever is still queued.
// It does not close the connection; that belongs to the caller.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	b.stopOnce.Do(func() {
		close(b.stopChan)
		<-b.done
	})
	return b.Flush()
}

// StartRun inserts the run row synchronously so its ID can stamp every
// queued record.
func (b *Backend) StartRun(run *core.Run) error {
	if b.deps.DB == nil {
		return errors.New("no database connection")
	}

	gormRun := convert.CoreToRun(*run)
	gormRun.ID = 0
	if err := b.deps.DB.Create(&gormRun).Error; err != nil {
		return fmt.Errorf("failed to insert new run: %w", err)
	}

	run.ID = gormRun.ID
	b.runID.Store(uint64(gormRun.ID))
	return nil
}

// EndRun writes the queued records and then the run totals.
func (b *Backend) EndRun(run *core.Run) error {
	if err := b.Flush(); err != nil {
		return err
	}

	err := b.deps.DB.Model(&model.Run{}).Where("id = ?", run.ID).Updates(map[string]any{
		"end_time":         run.EndTime,
		"sweeps":           run.Sweeps,
		"delivered":        run.Delivered,
		"floors_travelled": run.FloorsTravelled,
		"trajectory":       run.Trajectory,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update run %d: %w", run.ID, err)
	}
	return nil
}

// RecordPassengers converts and queues the generated population.
func (b *Backend) RecordPassengers(ps []core.Passenger) error {
	runID := uint(b.runID.Load())
	items := make([]model.Passenger, 0, len(ps))
	for _, p := range ps {
		items = append(items, convert.CoreToPassenger(runID, p))
	}
	b.queues.Passengers.Push(items...)
	return nil
}

// RecordVisit converts and queues a floor visit.
func (b *Backend) RecordVisit(v *core.Visit) error {
	b.queues.Visits.Push(convert.CoreToVisit(*v))
	return nil
}

// RecordPassengerEvent converts and queues a passenger event.
func (b *Backend) RecordPassengerEvent(e *core.PassengerEvent) error {
	b.queues.PassengerEvents.Push(convert.CoreToPassengerEvent(*e))
	return nil
}

// RecordSweep converts and queues a sweep summary.
func (b *Backend) RecordSweep(s *core.Sweep) error {
	b.queues.Sweeps.Push(convert.CoreToSweep(*s))
	return nil
}

// Pending reports how many records are waiting for the writer.
func (b *Backend) Pending() int {
	return b.queues.Passengers.Len() + b.queues.Visits.Len() +
		b.queues.PassengerEvents.Len() + b.queues.Sweeps.Len()
}

// Flush drains every queue into the database. Failed batches stay queued.
func (b *Backend) Flush() error {
	if b.deps.DB == nil {
		return nil
	}

	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	runID := uint(b.runID.Load())
	db := b.deps.DB

	return errors.Join(
		writeQueue(db, b.queues.Passengers, "passengers", b.log, func(items []model.Passenger) {
			for i := range items {
				if items[i].RunID == 0 {
					items[i].RunID = runID
				}
			}
		}),
		writeQueue(db, b.queues.Visits, "visits", b.log, func(items []model.Visit) {
			for i := range items {
				if items[i].RunID == 0 {
					items[i].RunID = runID
				}
			}
		}),
		writeQueue(db, b.queues.PassengerEvents, "passenger events", b.log, func(items []model.PassengerEvent) {
			for i := range items {
				if items[i].RunID == 0 {
					items[i].RunID = runID
				}
			}
		}),
		writeQueue(db, b.queues.Sweeps, "sweeps", b.log, func(items []model.Sweep) {
			for i := range items {
				if items[i].RunID == 0 {
					items[i].RunID = runID
				}
			}
		}),
	)
}

// writeQueue writes all items from a queue to the database in a transaction.
// On failure the items are pushed back for the next cycle.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[T], name string, log *slog.Logger, prepare func([]T)) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	if prepare != nil {
		prepare(items)
	}

	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		log.Error("Error creating records", "table", name, "count", len(items), "error", err)
		tx.Rollback()
		q.Push(items...)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tx.Commit().Error; err != nil {
		q.Push(items...)
		return fmt.Errorf("commit %s: %w", name, err)
	}

	log.Debug("Wrote records", "table", name, "count", len(items))
	return nil
}

// writer periodically drains the queues until Close.
func (b *Backend) writer() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			// errors are logged by writeQueue and retried next tick
			_ = b.Flush()
		}
	}
}
