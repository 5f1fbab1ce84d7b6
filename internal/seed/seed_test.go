package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/knowledgemap/internal/app/hierarchy"
	"github.com/yigit/knowledgemap/internal/app/repositories"
	"github.com/yigit/knowledgemap/internal/app/services"
)

func TestCreateDefaultDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	engine := hierarchy.NewEngine(0)
	svc := services.NewCourseService(repositories.NewMemoryCourseRepository(engine), engine)

	created, err := CreateDefaultData(ctx, svc, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, len(DefaultCatalogue), created)

	created, err = CreateDefaultData(ctx, svc, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, created)

	all, err := svc.ListCourses(ctx, 0, 100)
	require.NoError(t, err)
	require.Len(t, all, len(DefaultCatalogue))

	var ml int64
	for _, c := range all {
		if c.Name == "Machine Learning" {
			ml = c.ID
		}
	}
	require.NotZero(t, ml)

	ancestors, err := svc.GetAncestors(ctx, ml)
	require.NoError(t, err)
	names := make([]string, 0, len(ancestors))
	for _, a := range ancestors {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Algorithms", "Data Structures", "Introduction to Programming"}, names)

	prereqs, err := svc.ListPrerequisites(ctx, ml)
	require.NoError(t, err)
	require.Len(t, prereqs, 1)
	assert.Equal(t, "Algorithms", prereqs[0].Name)
}
