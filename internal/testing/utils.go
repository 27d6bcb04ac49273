// Package testing provides fixtures and helpers shared by the engine and API tests.
package testing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/gcbaptista/doc-search-index/internal/engine"
	"github.com/gcbaptista/doc-search-index/model"
	"github.com/gcbaptista/doc-search-index/services"
)

// Paths of the sample catalog entries, for assertions.
const (
	TickPath        = "Classes/AActor/Functions/Tick.html"
	TestIntPath     = "Classes/UTestComponent/Variables/TestInt.html"
	BeginPlayPath   = "Classes/A/Functions/BeginPlay.html"
	BuildingPath    = "Classes/ABuilding.html"
	InfantryPath    = "Classes/AInfantry.html"
	HealthClassPath = "Classes/UUnitHealthComponent.html"
	MaxHealthPath   = "Classes/UUnitHealthComponent/Variables/MaxHealth.html"
	UnitStatePath   = "Enums/EUnitState.html"
	IdlePath        = "Enums/EUnitState.html#Idle"
)

// SampleEntities returns a small, valid catalog covering every bucket kind.
func SampleEntities() []model.Entity {
	return []model.Entity{
		{Name: "Tick", Description: "Called every frame.", Category: model.CategoryFunction, Owner: "AActor", Path: TickPath},
		{Name: "TestInt", Description: "An integer used by tests.", Category: model.CategoryVariable, Owner: "UTestComponent", Path: TestIntPath, PartialTokens: []string{"test", "int"}},
		{Name: "BeginPlay", Description: "Called when play begins for this actor.", Category: model.CategoryFunction, Owner: "A", Path: BeginPlayPath, PartialTokens: []string{"begin", "play"}},
		{Name: "ABuilding", Description: "A placeable structure.", Category: model.CategoryClass, Path: BuildingPath, PartialTokens: []string{"building"}},
		{Name: "AInfantry", Description: "A foot soldier.", Category: model.CategoryClass, Path: InfantryPath, PartialTokens: []string{"infantry"}},
		{Name: "UUnitHealthComponent", Description: "Tracks unit health.", Category: model.CategoryClass, Path: HealthClassPath, PartialTokens: []string{"unit", "health", "component"}},
		{Name: "MaxHealth", Description: "Upper bound of health.", Category: model.CategoryVariable, Owner: "UUnitHealthComponent", Path: MaxHealthPath, PartialTokens: []string{"max", "health"}},
		{Name: "EUnitState", Description: "States a unit can be in.", Category: model.CategoryEnum, Path: UnitStatePath, PartialTokens: []string{"unit", "state"}},
		{Name: "Idle", Description: "The unit is doing nothing.", Category: model.CategoryEnumValue, Owner: "EUnitState", Path: IdlePath},
	}
}

// WriteCatalog writes entities to dir/name as JSON or YAML, depending on the
// extension, and returns the file path.
func WriteCatalog(t *testing.T, dir, name string, entities []model.Entity) string {
	t.Helper()

	var data []byte
	var err error
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(entities)
	default:
		data, err = json.MarshalIndent(entities, "", "  ")
	}
	require.NoError(t, err, "Failed to encode test catalog")

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0600), "Failed to write test catalog")
	return path
}

// CreateTestEngine creates an engine that is closed when the test ends.
func CreateTestEngine(t *testing.T, opts engine.Options) *engine.Engine {
	t.Helper()
	if opts.MaxJobWorkers == 0 {
		opts.MaxJobWorkers = 2
	}
	eng := engine.NewEngine(opts)
	t.Cleanup(eng.Close)
	return eng
}

// CreateLoadedEngine creates a test engine serving SampleEntities.
func CreateLoadedEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng := CreateTestEngine(t, engine.Options{})
	_, err := eng.Rebuild(t.Context(), SampleEntities())
	require.NoError(t, err, "Failed to build sample index")
	return eng
}

// JobPollingOptions configures job polling behavior
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
	LogProgress  bool
}

// DefaultJobPollingOptions returns sensible defaults for job polling
func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 10 * time.Millisecond,
		LogProgress:  true,
	}
}

// WaitForJob polls a job until it finishes or times out and returns it in
// its final state, whatever that is.
func WaitForJob(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	timeout := time.After(opts.Timeout)
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-timeout:
			t.Fatalf("Job %s did not finish within %v timeout", jobID, opts.Timeout)
			return nil
		case <-ticker.C:
			job, err := jobManager.GetJob(jobID)
			require.NoError(t, err, "Failed to get job status")

			if job.IsFinished() {
				return job
			}
			if opts.LogProgress && job.Progress != nil {
				t.Logf("Job %s progress: %d/%d - %s",
					jobID,
					job.Progress.Current,
					job.Progress.Total,
					job.Progress.Message)
			}
		}
	}
}

// WaitForJobCompletion polls a job until it completes and fails the test if
// it ends in any other state.
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	job := WaitForJob(t, jobManager, jobID, opts)
	if job.Status != model.JobStatusCompleted {
		t.Fatalf("Job %s ended as %s: %s", jobID, job.Status, job.Error)
	}
	if opts.LogProgress {
		t.Logf("Job %s completed successfully in %v", jobID, job.CompletedAt.Sub(job.CreatedAt))
	}
	return job
}

// AssertJobCompleted verifies that a job completed successfully
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType) {
	t.Helper()
	assert.Equal(t, model.JobStatusCompleted, job.Status, "Job should be completed")
	assert.Equal(t, expectedType, job.Type, "Job type should match")
	assert.NotNil(t, job.CompletedAt, "Job should have completion timestamp")
	assert.Empty(t, job.Error, "Job should not have error")
}
