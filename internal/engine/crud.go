package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	apperrors "github.com/aethra/fleetdesk/internal/errors"
)

// =============================================================================
// CRUD ORCHESTRATOR
// =============================================================================

// Notifier receives the transient success/failure notifications produced by
// mutations.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LogNotifier writes notifications to the process log. Used by the CLI and
// as the default when a page supplies nothing better.
type LogNotifier struct{}

func (LogNotifier) Success(message string) { log.Printf("[notify] success: %s", message) }
func (LogNotifier) Error(message string)   { log.Printf("[notify] error: %s", message) }

// Mutator executes mutating service calls inside a uniform envelope: set
// the pending flag, clear the prior error, invoke, notify, always clear
// pending. A failed mutation never corrupts list state; callers re-fetch on
// success.
type Mutator struct {
	config    *EntityConfig
	notifier  Notifier
	onSuccess func()

	pending   bool
	lastError string
}

// NewMutator wires a mutator to an entity config. onSuccess typically
// triggers a session re-fetch and may be nil.
func NewMutator(config *EntityConfig, notifier Notifier, onSuccess func()) *Mutator {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Mutator{config: config, notifier: notifier, onSuccess: onSuccess}
}

// Pending reports whether a mutation is in flight.
func (m *Mutator) Pending() bool { return m.pending }

// LastError returns the retained message of the most recent failure, for
// inline display alongside the transient notification.
func (m *Mutator) LastError() string { return m.lastError }

// PerformCreate runs the create operation.
func (m *Mutator) PerformCreate(ctx context.Context, input Row) error {
	return m.run(
		func() (*MutationResult, error) { return m.config.Service.Create(ctx, input) },
		m.config.Messages.CreateSuccess,
		fmt.Sprintf("%s created successfully", m.config.Singular),
		fmt.Sprintf("Failed to create %s", m.config.Singular),
	)
}

// PerformUpdate runs the update operation against one id.
func (m *Mutator) PerformUpdate(ctx context.Context, id string, input Row) error {
	return m.run(
		func() (*MutationResult, error) { return m.config.Service.Update(ctx, id, input) },
		m.config.Messages.UpdateSuccess,
		fmt.Sprintf("%s updated successfully", m.config.Singular),
		fmt.Sprintf("Failed to update %s", m.config.Singular),
	)
}

// PerformDelete runs the (soft) delete operation against one id.
func (m *Mutator) PerformDelete(ctx context.Context, id string) error {
	return m.run(
		func() (*MutationResult, error) { return m.config.Service.Delete(ctx, id) },
		m.config.Messages.DeleteSuccess,
		fmt.Sprintf("%s deleted successfully", m.config.Singular),
		m.deleteFallback(),
	)
}

// PerformRestore reverses a soft delete. When the service does not
// implement restore the call is a no-op reported through the notifier.
func (m *Mutator) PerformRestore(ctx context.Context, id string) error {
	restorer, ok := m.config.Service.(Restorer)
	if !ok {
		return m.unsupported("restore")
	}
	return m.run(
		func() (*MutationResult, error) { return restorer.Restore(ctx, id) },
		"",
		fmt.Sprintf("%s restored successfully", m.config.Singular),
		m.restoreFallback(),
	)
}

// PerformHardDelete removes a record irreversibly. When the service does
// not implement hard delete the call is a no-op reported through the
// notifier.
func (m *Mutator) PerformHardDelete(ctx context.Context, id string) error {
	deleter, ok := m.config.Service.(HardDeleter)
	if !ok {
		return m.unsupported("hard delete")
	}
	return m.run(
		func() (*MutationResult, error) { return deleter.HardDelete(ctx, id) },
		"",
		fmt.Sprintf("%s permanently deleted", m.config.Singular),
		m.deleteFallback(),
	)
}

// PerformBulkDelete issues one delete per id concurrently. Every deletion is
// issued; the aggregate fails if any individual deletion fails, and ids
// that already succeeded are not rolled back. Callers must re-fetch to
// resync the true state afterwards.
func (m *Mutator) PerformBulkDelete(ctx context.Context, ids []string) error {
	m.pending = true
	m.lastError = ""
	defer func() { m.pending = false }()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := m.config.Service.Delete(ctx, id); err != nil {
				mu.Lock()
				failed = append(failed, id)
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	if len(failed) > 0 {
		msg := fmt.Sprintf("Failed to delete %d of %d %s", len(failed), len(ids), m.config.Plural)
		m.lastError = msg
		m.notifier.Error(msg)
		return apperrors.NewServiceError(msg, 0)
	}

	m.notifier.Success(fmt.Sprintf("%d %s deleted successfully", len(ids), m.config.Plural))
	m.notifySuccess()
	return nil
}

func (m *Mutator) run(op func() (*MutationResult, error), configured, generated, fallback string) error {
	m.pending = true
	m.lastError = ""
	defer func() { m.pending = false }()

	result, err := op()
	if err != nil {
		msg := apperrors.Normalize(err, fallback)
		m.lastError = msg
		m.notifier.Error(msg)
		return err
	}

	message := configured
	if result != nil && result.Message != "" {
		message = result.Message
	}
	if message == "" {
		message = generated
	}
	m.notifier.Success(message)
	m.notifySuccess()
	return nil
}

func (m *Mutator) unsupported(operation string) error {
	err := apperrors.NewUnsupportedError(operation, m.config.Plural)
	m.lastError = err.Error()
	m.notifier.Error(err.Error())
	return err
}

func (m *Mutator) notifySuccess() {
	if m.onSuccess != nil {
		m.onSuccess()
	}
}

func (m *Mutator) deleteFallback() string {
	if m.config.Messages.DeleteError != "" {
		return m.config.Messages.DeleteError
	}
	return fmt.Sprintf("Failed to delete %s", m.config.Singular)
}

func (m *Mutator) restoreFallback() string {
	if m.config.Messages.RestoreError != "" {
		return m.config.Messages.RestoreError
	}
	return fmt.Sprintf("Failed to restore %s", m.config.Singular)
}
