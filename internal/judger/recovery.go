package judger

import (
	"context"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"go.uber.org/zap"
)

// RemoveStaleContainers deletes sandboxes left behind by a judge process that
// died mid-submission. Submissions are only recorded after a verdict, so
// nothing in the database needs repairing.
func (m *DockerManager) RemoveStaleContainers(ctx context.Context) (int, error) {
	stale, err := m.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", sandboxLabel)),
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		zap.S().Info("no stale judge containers found")
		return 0, nil
	}

	removed := 0
	for _, c := range stale {
		if err := m.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			zap.S().Warnf("failed to remove stale container %s: %v", c.ID, err)
			continue
		}
		removed++
	}
	zap.S().Infof("removed %d of %d stale judge containers", removed, len(stale))
	return removed, nil
}

// Recover cleans up after an interrupted previous run.
func (j *DockerJudge) Recover(ctx context.Context) error {
	_, err := j.docker.RemoveStaleContainers(ctx)
	return err
}
