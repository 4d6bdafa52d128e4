package orchestrator

import (
	"sync"

	"github.com/shaiso/Vitrina/internal/telemetry"
)

// Decision — решение о приёме задачи.
type Decision string

const (
	// DecisionRun — задача получила слот и запускается сразу.
	DecisionRun Decision = "run"

	// DecisionQueue — задача ждёт в очереди.
	DecisionQueue Decision = "queue"
)

// Reservation — место, зарезервированное под задачу до её записи в БД.
type Reservation struct {
	Decision Decision

	// Position — позиция в очереди (1 — следующая), 0 для DecisionRun.
	Position int
}

// Job — единица работы для слота.
type Job struct {
	TaskID string
	Run    func()
}

// Scheduler владеет слотами исполнения и FIFO-очередью.
//
// Приём задачи двухфазный: Reserve занимает слот или место в очереди,
// Commit запускает или ставит в очередь уже сохранённую задачу,
// Cancel отменяет резерв. Так отказ не оставляет записей, а задача
// не стартует раньше, чем появится в БД.
//
// Каждая запущенная задача держит слот до возврата Job.Run; освобождение
// слота (Finish) сразу запускает голову очереди, если есть место.
type Scheduler struct {
	maxConcurrency int
	maxQueue       int

	mu       sync.Mutex
	active   int
	reserved int
	queue    []Job
	closed   bool

	// onDequeue вызывается перед запуском задачи из очереди.
	onDequeue func(Job)

	wg sync.WaitGroup
}

// NewScheduler создаёт Scheduler.
func NewScheduler(maxConcurrency, maxQueue int, onDequeue func(Job)) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	if maxQueue < 0 {
		maxQueue = 0
	}
	return &Scheduler{
		maxConcurrency: maxConcurrency,
		maxQueue:       maxQueue,
		onDequeue:      onDequeue,
	}
}

// Reserve резервирует слот или место в очереди.
func (s *Scheduler) Reserve() (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Reservation{}, ErrOrchestratorStopped
	}
	waiting := len(s.queue) + s.reserved
	if waiting >= s.maxQueue && (waiting > 0 || s.active >= s.maxConcurrency) {
		return Reservation{}, ErrQueueFull
	}
	if waiting == 0 && s.active < s.maxConcurrency {
		s.active++
		s.report()
		return Reservation{Decision: DecisionRun}, nil
	}
	s.reserved++
	return Reservation{Decision: DecisionQueue, Position: waiting + 1}, nil
}

// Commit запускает задачу или ставит её в очередь согласно резерву.
func (s *Scheduler) Commit(job Job, r Reservation) {
	if r.Decision == DecisionRun {
		s.launch(job)
		return
	}

	s.mu.Lock()
	s.reserved--
	s.queue = append(s.queue, job)
	started := s.drainLocked()
	s.mu.Unlock()

	s.startAll(started)
}

// Cancel отменяет резерв, не использованный Commit.
func (s *Scheduler) Cancel(r Reservation) {
	s.mu.Lock()
	if r.Decision == DecisionRun {
		if s.active > 0 {
			s.active--
		}
	} else if s.reserved > 0 {
		s.reserved--
	}
	started := s.drainLocked()
	s.mu.Unlock()

	s.startAll(started)
}

// Finish освобождает слот и запускает голову очереди.
// Счётчик активных задач не опускается ниже нуля.
func (s *Scheduler) Finish() {
	s.mu.Lock()
	if s.active > 0 {
		s.active--
	}
	started := s.drainLocked()
	s.mu.Unlock()

	s.startAll(started)
}

// Snapshot возвращает число занятых слотов и длину очереди.
func (s *Scheduler) Snapshot() (active, queued int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, len(s.queue)
}

// Close запрещает приём и запуск новых задач.
// Задачи в очереди остаются незапущенными.
func (s *Scheduler) Close() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	pending := s.queue
	s.queue = nil
	s.report()
	return pending
}

// Wait ждёт завершения всех запущенных задач.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// drainLocked забирает из очереди задачи, для которых есть слоты.
func (s *Scheduler) drainLocked() []Job {
	var started []Job
	for !s.closed && s.active < s.maxConcurrency && len(s.queue) > 0 {
		job := s.queue[0]
		s.queue[0] = Job{}
		s.queue = s.queue[1:]
		s.active++
		started = append(started, job)
	}
	s.report()
	return started
}

func (s *Scheduler) report() {
	telemetry.ActiveWorkers.Set(float64(s.active))
	telemetry.QueueLength.Set(float64(len(s.queue)))
}

func (s *Scheduler) startAll(jobs []Job) {
	for _, job := range jobs {
		if s.onDequeue != nil {
			s.onDequeue(job)
		}
		s.launch(job)
	}
}

// launch исполняет задачу в отдельной горутине; слот уже занят.
func (s *Scheduler) launch(job Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.Finish()
		job.Run()
	}()
}
