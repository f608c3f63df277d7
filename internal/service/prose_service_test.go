package service

import (
	"context"
	"errors"
	"testing"

	"ai-storycraft-be/internal/apperror"
	"ai-storycraft-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newProseService(f *fixture) (IProseService, IFragmentService) {
	fragmentService := newFragmentService(f, &stubPublisher{})
	return NewProseService(f.chainRepo, fragmentService, logger.NopLogger{}), fragmentService
}

func TestAddSectionLazilyInitializesChain(t *testing.T) {
	f := newFixture(t)
	svc, _ := newProseService(f)
	ctx := context.Background()

	assert.NoError(t, svc.AddSection(ctx, "s1", nil, "pr-1"))
	assert.NoError(t, svc.AddSection(ctx, "s1", nil, "pr-2"))

	ids, err := svc.ActiveIds(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pr-1", "pr-2"}, ids)
}

func TestVariationLifecycle(t *testing.T) {
	f := newFixture(t)
	svc, _ := newProseService(f)
	ctx := context.Background()

	assert.NoError(t, svc.AddSection(ctx, "s1", nil, "pr-1"))
	assert.NoError(t, svc.AddVariation(ctx, "s1", nil, 0, "pr-1-alt"))

	ids, err := svc.ActiveIds(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pr-1-alt"}, ids, "new variation becomes active")

	assert.NoError(t, svc.SwitchActive(ctx, "s1", nil, 0, "pr-1"))
	ids, err = svc.ActiveIds(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pr-1"}, ids)

	err = svc.SwitchActive(ctx, "s1", nil, 0, "pr-stranger")
	assert.True(t, errors.Is(err, apperror.ErrConflict))
}

func TestInsertSectionOutOfRange(t *testing.T) {
	f := newFixture(t)
	svc, _ := newProseService(f)
	ctx := context.Background()

	assert.NoError(t, svc.AddSection(ctx, "s1", nil, "pr-1"))
	err := svc.InsertSection(ctx, "s1", nil, "pr-x", 5)
	assert.True(t, errors.Is(err, apperror.ErrIndexOutOfRange))
}

func TestRemoveSectionArchivesVariations(t *testing.T) {
	f := newFixture(t)
	svc, fragmentService := newProseService(f)
	ctx := context.Background()
	f.seedChain(t, "s1", 2)

	assert.NoError(t, svc.AddVariation(ctx, "s1", nil, 1, "pr-2-alt"))
	frag, err := fragmentService.Show(ctx, "s1", nil, "pr-2")
	assert.NoError(t, err)
	frag.Content = "variation base"
	assert.NoError(t, f.fragmentRepo.Save(ctx, "s1", nil, frag))

	removed, err := svc.RemoveSection(ctx, "s1", nil, 1)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pr-2", "pr-2-alt"}, removed)

	ids, err := svc.ActiveIds(ctx, "s1", nil)
	assert.NoError(t, err)
	assert.Equal(t, []string{"pr-1"}, ids)

	archived, err := fragmentService.Show(ctx, "s1", nil, "pr-2")
	assert.NoError(t, err)
	assert.True(t, archived.Archived, "removed variations are archived, not deleted")
}

func TestOperationsOnMissingChain(t *testing.T) {
	f := newFixture(t)
	svc, _ := newProseService(f)
	ctx := context.Background()

	_, err := svc.ActiveIds(ctx, "s-empty", nil)
	assert.True(t, apperror.IsNotFound(err))

	err = svc.AddVariation(ctx, "s-empty", nil, 0, "pr-1")
	assert.True(t, apperror.IsNotFound(err))
}
