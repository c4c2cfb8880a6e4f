package judger

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/ZJUSCT/arena/internal/config"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"
)

const (
	// sandboxWorkDir is where submissions are compiled and run inside the container.
	sandboxWorkDir = "/tmp/work"
	// sandboxLabel marks containers created by the judge.
	sandboxLabel = "arena.sandbox"
)

type DockerManager struct {
	cli *client.Client
}

type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

func NewDockerManager(cfg config.DockerConfig) (*DockerManager, error) {
	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	} else {
		opts = append(opts, client.FromEnv)
	}

	if cfg.TLSVerify {
		opts = append(opts, client.WithTLSClientConfig(cfg.CACert, cfg.Cert, cfg.Key))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, err
	}
	return &DockerManager{cli: cli}, nil
}

// CreateContainer creates an idle, network-less sandbox that execs are run in.
func (m *DockerManager) CreateContainer(ctx context.Context, image string, cpu int, memory int64) (string, error) {
	cfg := &container.Config{
		Image:           image,
		Cmd:             []string{"sleep", "infinity"},
		Tty:             false, // Tty must be false to multiplex stdout/stderr
		NetworkDisabled: true,
		User:            "1000:1000",
		WorkingDir:      "/tmp",
		Labels:          map[string]string{sandboxLabel: "true"},
	}

	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			NanoCPUs: int64(cpu) * 1e9,
			Memory:   memory * 1024 * 1024,
		},
	}

	resp, err := m.cli.ContainerCreate(ctx, cfg, hostConfig, nil, nil, "")
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (m *DockerManager) StartContainer(ctx context.Context, containerID string) error {
	return m.cli.ContainerStart(ctx, containerID, container.StartOptions{})
}

func (m *DockerManager) ExecInContainer(ctx context.Context, containerID string, cmd []string) (ExecResult, error) {
	execCreateResp, err := m.cli.ContainerExecCreate(ctx, containerID, container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   sandboxWorkDir,
	})
	if err != nil {
		return ExecResult{}, err
	}
	execID := execCreateResp.ID

	resp, err := m.cli.ContainerExecAttach(ctx, execID, container.ExecAttachOptions{})
	if err != nil {
		return ExecResult{}, err
	}
	defer resp.Close()

	var stdoutBuf, stderrBuf bytes.Buffer
	copyDone := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, resp.Reader)
		copyDone <- err
	}()

	select {
	case <-ctx.Done():
		return ExecResult{}, ctx.Err()
	case err := <-copyDone:
		if err != nil {
			zap.S().Warnf("error copying stdout/stderr from container exec: %v", err)
		}
	}

	var inspect container.ExecInspect
	for {
		if ctx.Err() != nil {
			return ExecResult{}, ctx.Err()
		}
		inspect, err = m.cli.ContainerExecInspect(ctx, execID)
		if err != nil {
			return ExecResult{}, err
		}
		if !inspect.Running {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	return ExecResult{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: inspect.ExitCode,
	}, nil
}

// PeakMemory reports the container's memory high-water mark in bytes, or the
// current usage when the cgroup does not expose a maximum.
func (m *DockerManager) PeakMemory(ctx context.Context, containerID string) (int64, error) {
	resp, err := m.cli.ContainerStatsOneShot(ctx, containerID)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var stats struct {
		MemoryStats struct {
			Usage    uint64 `json:"usage"`
			MaxUsage uint64 `json:"max_usage"`
		} `json:"memory_stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return 0, err
	}
	if stats.MemoryStats.MaxUsage > 0 {
		return int64(stats.MemoryStats.MaxUsage), nil
	}
	return int64(stats.MemoryStats.Usage), nil
}

func (m *DockerManager) CleanupContainer(containerID string) {
	ctx := context.Background()

	timeoutSeconds := 0
	if err := m.cli.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeoutSeconds}); err != nil {
		zap.S().Warnf("failed to stop container %s: %v", containerID, err)
	}
	if err := m.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		zap.S().Warnf("failed to remove container %s: %v", containerID, err)
		return
	}
	zap.S().Debugf("cleaned up container %s", containerID)
}

// CopyToContainer writes files (relative path -> content) into the sandbox
// work directory, which is created owned by the sandbox user.
func (m *DockerManager) CopyToContainer(ctx context.Context, containerID string, files map[string]string) error {
	archive, err := tarFiles(files)
	if err != nil {
		return err
	}
	return m.cli.CopyToContainer(ctx, containerID, path.Dir(sandboxWorkDir), bytes.NewReader(archive), container.CopyToContainerOptions{})
}

func tarFiles(files map[string]string) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	root := path.Base(sandboxWorkDir)
	dirs := map[string]bool{}
	addDir := func(dir string) error {
		if dirs[dir] {
			return nil
		}
		dirs[dir] = true
		return tw.WriteHeader(&tar.Header{
			Name:     dir + "/",
			Typeflag: tar.TypeDir,
			Mode:     0755,
			Uid:      1000,
			Gid:      1000,
		})
	}
	if err := addDir(root); err != nil {
		return nil, fmt.Errorf("failed to write tar header for %s: %w", root, err)
	}
	for _, name := range names {
		content := files[name]
		full := path.Join(root, name)
		if dir := path.Dir(full); dir != root {
			if err := addDir(dir); err != nil {
				return nil, fmt.Errorf("failed to write tar header for %s: %w", dir, err)
			}
		}
		hdr := &tar.Header{
			Name: full,
			Mode: 0644,
			Size: int64(len(content)),
			Uid:  1000,
			Gid:  1000,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, fmt.Errorf("failed to write tar header for %s: %w", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return nil, fmt.Errorf("failed to write %s to tar: %w", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close tar writer: %w", err)
	}
	return buf.Bytes(), nil
}
