package account

import (
	"context"
	"errors"

	"mtsync/internal/models"
	"mtsync/internal/repository"
	"mtsync/pkg/utils"
)

// TerminalAllocator определяет интерфейс хранилища парка терминалов
type TerminalAllocator interface {
	AllocateFree(ctx context.Context) (*models.Terminal, error)
	Release(ctx context.Context, id string) (bool, error)
}

// Lease - выданный терминал.
//
// Synthesized означает, что терминал запрошен явным номером и
// сконструирован детерминированно мимо хранилища. Такой lease
// не занимает слот пула и при возврате хранилище не трогается.
type Lease struct {
	Terminal    models.Terminal
	Synthesized bool
}

// TerminalPool выдаёт и возвращает терминалы парка.
//
// Клиентских блокировок нет: атомарность захвата обеспечивает
// единственный UPDATE с FOR UPDATE SKIP LOCKED на стороне Postgres.
type TerminalPool struct {
	repo     TerminalAllocator
	basePath string
	log      *utils.Logger
}

// NewTerminalPool создаёт пул поверх репозитория терминалов.
func NewTerminalPool(repo TerminalAllocator, basePath string, log *utils.Logger) *TerminalPool {
	return &TerminalPool{
		repo:     repo,
		basePath: basePath,
		log:      log.WithComponent("pool"),
	}
}

// Acquire выдаёт терминал.
//
// При explicitNumber > 0 возвращается синтетический lease с
// детерминированным id и путём, без обращения к хранилищу.
// Иначе захватывается первый свободный терминал; при отсутствии
// свободных возвращается repository.ErrNoFreeTerminals.
func (p *TerminalPool) Acquire(ctx context.Context, explicitNumber int) (*Lease, error) {
	if explicitNumber > 0 {
		t := models.SynthesizedTerminal(explicitNumber, p.basePath)
		p.log.Debug("synthesized terminal lease", utils.Terminal(t.ID))
		return &Lease{Terminal: *t, Synthesized: true}, nil
	}

	t, err := p.repo.AllocateFree(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNoFreeTerminals) {
			PoolExhausted.Inc()
		}
		return nil, err
	}

	TerminalsAllocated.Inc()
	p.log.Info("terminal allocated", utils.Terminal(t.ID))
	return &Lease{Terminal: *t}, nil
}

// Release возвращает терминал в пул.
//
// Никогда не возвращает ошибку: сбой возврата логируется и
// сообщается как false. Для синтетических lease возврат всегда
// успешен и хранилище не затрагивается. Повторный возврат того же
// lease сообщает false.
func (p *TerminalPool) Release(ctx context.Context, lease *Lease) bool {
	if lease == nil {
		return false
	}
	if lease.Synthesized {
		return true
	}

	released, err := p.repo.Release(ctx, lease.Terminal.ID)
	if err != nil {
		p.log.Error("terminal release failed",
			utils.Terminal(lease.Terminal.ID),
			utils.Err(err),
		)
		return false
	}
	if !released {
		p.log.Warn("terminal was not marked in use",
			utils.Terminal(lease.Terminal.ID),
		)
		return false
	}

	TerminalsReleased.Inc()
	p.log.Info("terminal released", utils.Terminal(lease.Terminal.ID))
	return true
}
