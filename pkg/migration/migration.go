// Package migration runs and tracks schema migrations.
//
// Each migration registers itself from an init() in database/migrations:
//
//	func init() {
//	    migration.Register("2024_01_01_000001_create_users_table", &createUsersTable{})
//	}
//
// and the CLI drives the runner:
//
//	stockbook migrate            // run all pending in a new batch
//	stockbook migrate:rollback   // undo the last batch
//	stockbook migrate:status
package migration

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/stockbook/pkg/logger"
)

// Migration is one reversible schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "stockbook_migrations" }

type registeredMigration struct {
	name string
	m    Migration
}

var (
	mu       sync.Mutex
	registry []registeredMigration
)

// Register adds m under name. Names sort lexicographically into run order,
// so prefix them with a timestamp. Registering a name twice panics.
func Register(name string, m Migration) {
	mu.Lock()
	defer mu.Unlock()
	for _, reg := range registry {
		if reg.name == name {
			panic(fmt.Sprintf("migration: %s registered twice", name))
		}
	}
	registry = append(registry, registeredMigration{name: name, m: m})
}

func registered() []registeredMigration {
	mu.Lock()
	defer mu.Unlock()
	out := make([]registeredMigration, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// ErrNoMigrations is returned by Run when nothing is registered.
var ErrNoMigrations = errors.New("no migrations registered")

// Runner executes and tracks migrations.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New creates a Runner on db. Progress lines go to out; nil discards them.
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

// EnsureTable creates the tracking table if it does not exist.
func (r *Runner) EnsureTable() error {
	return r.db.AutoMigrate(&migrationRecord{})
}

func (r *Runner) ran() (map[string]migrationRecord, error) {
	var rows []migrationRecord
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	set := make(map[string]migrationRecord, len(rows))
	for _, rec := range rows {
		set[rec.Name] = rec
	}
	return set, nil
}

// Pending returns the names of migrations not yet run, in run order.
func (r *Runner) Pending() ([]string, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	ran, err := r.ran()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, reg := range registered() {
		if _, ok := ran[reg.name]; !ok {
			names = append(names, reg.name)
		}
	}
	return names, nil
}

// Run executes all pending migrations as one batch. Each migration and its
// tracking row commit together.
func (r *Runner) Run() error {
	all := registered()
	if len(all) == 0 {
		return ErrNoMigrations
	}
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	ran, err := r.ran()
	if err != nil {
		return fmt.Errorf("migration: fetch ran: %w", err)
	}

	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	batch++

	count := 0
	for _, reg := range all {
		if _, ok := ran[reg.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "  Migrating: %s\n", reg.name)

		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := reg.m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&migrationRecord{Name: reg.name, Batch: batch}).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s up: %w", reg.name, err)
		}

		fmt.Fprintf(r.out, "  Migrated:  %s\n", reg.name)
		count++
	}

	if count == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return nil
	}
	logger.Info("migration: done", "ran", count, "batch", batch)
	return nil
}

// Rollback reverses every migration of the most recent batch, newest first.
func (r *Runner) Rollback() error {
	if err := r.EnsureTable(); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}

	batch, err := r.lastBatch()
	if err != nil {
		return err
	}
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return nil
	}

	var records []migrationRecord
	if err := r.db.Where("batch = ?", batch).Order("name desc").Find(&records).Error; err != nil {
		return err
	}

	byName := make(map[string]Migration)
	for _, reg := range registered() {
		byName[reg.name] = reg.m
	}

	for _, rec := range records {
		m, ok := byName[rec.Name]
		if !ok {
			return fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}

		fmt.Fprintf(r.out, "  Rolling back: %s\n", rec.Name)
		rec := rec
		err := r.db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&rec).Error
		})
		if err != nil {
			return fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		fmt.Fprintf(r.out, "  Rolled back:  %s\n", rec.Name)
	}

	logger.Info("migration: rolled back", "batch", batch, "count", len(records))
	return nil
}

// State is one row of Status.
type State struct {
	Name  string
	Ran   bool
	Batch int
}

// Status lists every registered migration and whether it has run.
func (r *Runner) Status() ([]State, error) {
	if err := r.EnsureTable(); err != nil {
		return nil, err
	}
	ran, err := r.ran()
	if err != nil {
		return nil, err
	}

	var out []State
	for _, reg := range registered() {
		rec, ok := ran[reg.name]
		out = append(out, State{Name: reg.name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch() (int, error) {
	var max struct{ Max int }
	err := r.db.Model(&migrationRecord{}).Select("COALESCE(MAX(batch), 0) AS max").Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return max.Max, nil
}
