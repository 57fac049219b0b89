package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioNames(t *testing.T) {
	assert.Equal(t, []string{"A", "B", "C", "D"}, ScenarioNames())
}

func TestRunScenario(t *testing.T) {
	for _, name := range ScenarioNames() {
		t.Run(name, func(t *testing.T) {
			result, err := RunScenario(context.Background(), name)
			require.NoError(t, err)

			assert.True(t, result.Passed, "steps: %v, error: %s", result.Steps, result.Error)
			assert.Empty(t, result.Error)
			assert.NotEmpty(t, result.Steps)
			assert.NotEmpty(t, result.Description)
		})
	}
}

func TestRunScenarioLowercase(t *testing.T) {
	result, err := RunScenario(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "A", result.Name)
	require.Len(t, result.Steps, 4)
	assert.Equal(t, "send alarm A1 -> size=1 alarms=1", result.Steps[0])
	assert.Equal(t, "receive alarm A1 -> size=1 alarms=0", result.Steps[2])
}

func TestRunScenarioUnknown(t *testing.T) {
	_, err := RunScenario(context.Background(), "Z")
	assert.True(t, errors.Is(err, ErrUnknownScenario))
}

func TestRunAllScenarios(t *testing.T) {
	results, err := RunAllScenarios(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	for _, r := range results {
		assert.True(t, r.Passed, "%s: %s", r.Name, r.Error)
	}
}
