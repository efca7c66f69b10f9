// cli.go is the shared compose-CLI execution backend both engine providers
// build on. Every lifecycle operation shells out with a caller context, so
// cancellation and timeouts propagate to the child process.

package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// EnvEngineArgs carries extra tokens appended to every compose invocation,
// split shell-style.
const EnvEngineArgs = "DOCKHAND_ENGINE_ARGS"

// composeCLI drives `<bin> compose ...` for one engine binary.
type composeCLI struct {
	id  string
	bin string
}

func (c *composeCLI) ID() string { return c.id }

func (c *composeCLI) composeArgs(composePath string, rest ...string) []string {
	args := []string{"compose", "-f", composePath}
	if extra := os.Getenv(EnvEngineArgs); extra != "" {
		if tokens, err := shellwords.Parse(extra); err == nil {
			args = append(args, tokens...)
		}
	}
	return append(args, rest...)
}

func (c *composeCLI) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.Bytes(), fmt.Errorf("%s %s: %s", c.bin, args[0], msg)
	}
	return stdout.Bytes(), nil
}

func (c *composeCLI) IsAvailable(ctx context.Context) (bool, string) {
	if _, err := exec.LookPath(c.bin); err != nil {
		return false, fmt.Sprintf("%s CLI not found in PATH", c.bin)
	}
	if _, err := c.run(ctx, "version", "--format", "json"); err != nil {
		return false, fmt.Sprintf("%s engine unreachable: %v", c.bin, err)
	}
	return true, ""
}

func (c *composeCLI) version(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "version", "--format", "json")
	if err != nil {
		return "", err
	}
	var payload struct {
		Client struct {
			Version string `json:"Version"`
		} `json:"Client"`
		Server struct {
			Version string `json:"Version"`
		} `json:"Server"`
		Version string `json:"Version"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return strings.TrimSpace(string(out)), nil
	}
	switch {
	case payload.Server.Version != "":
		return payload.Server.Version, nil
	case payload.Client.Version != "":
		return payload.Client.Version, nil
	default:
		return payload.Version, nil
	}
}

func (c *composeCLI) Up(ctx context.Context, composePath string, opts UpOptions) error {
	if opts.ReadinessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.ReadinessTimeout)
		defer cancel()
	}
	args := c.composeArgs(composePath, "up")
	if opts.Detach {
		args = append(args, "-d", "--wait")
		if opts.ReadinessTimeout > 0 {
			args = append(args, "--wait-timeout", strconv.Itoa(int(opts.ReadinessTimeout.Seconds())))
		}
	}
	if _, err := c.run(ctx, args...); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%s up: %w", c.bin, ErrReadinessTimeout)
		}
		return err
	}
	return nil
}

func (c *composeCLI) Down(ctx context.Context, composePath string, opts DownOptions) error {
	args := c.composeArgs(composePath, "down", "--remove-orphans")
	if opts.RemoveVolumes {
		args = append(args, "--volumes")
	}
	_, err := c.run(ctx, args...)
	return err
}

// psEntry matches the JSON objects `compose ps --format json` emits, one
// per line on recent engines, as an array on older ones.
type psEntry struct {
	Name       string `json:"Name"`
	Service    string `json:"Service"`
	State      string `json:"State"`
	Health     string `json:"Health"`
	Publishers []struct {
		TargetPort    int    `json:"TargetPort"`
		PublishedPort int    `json:"PublishedPort"`
		Protocol      string `json:"Protocol"`
	} `json:"Publishers"`
}

func (c *composeCLI) ps(ctx context.Context, composePath string, service string) ([]psEntry, error) {
	args := c.composeArgs(composePath, "ps", "--format", "json")
	if service != "" {
		args = append(args, service)
	}
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parsePSOutput(out)
}

func parsePSOutput(out []byte) ([]psEntry, error) {
	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var entries []psEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, fmt.Errorf("parse ps output: %w", err)
		}
		return entries, nil
	}
	var entries []psEntry
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var entry psEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("parse ps output: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, scanner.Err()
}

func (c *composeCLI) Status(ctx context.Context, composePath string, opts StatusOptions) (StatusReport, error) {
	version, err := c.version(ctx)
	if err != nil {
		return StatusReport{}, err
	}
	entries, err := c.ps(ctx, composePath, opts.Service)
	if err != nil {
		return StatusReport{}, err
	}
	report := StatusReport{Provider: c.id, EngineVersion: version}
	for _, entry := range entries {
		name := entry.Service
		if name == "" {
			name = entry.Name
		}
		report.Services = append(report.Services, ServiceState{
			Service: name,
			State:   entry.State,
			Health:  entry.Health,
		})
	}
	return report, nil
}

func (c *composeCLI) Logs(ctx context.Context, composePath string, opts LogsOptions) (<-chan string, error) {
	args := c.composeArgs(composePath, "logs")
	if opts.Follow {
		args = append(args, "--follow")
	}
	if opts.Tail > 0 {
		args = append(args, "--tail", strconv.Itoa(opts.Tail))
	}
	if opts.Since != "" {
		args = append(args, "--since", opts.Since)
	}
	if opts.Service != "" {
		args = append(args, opts.Service)
	}

	cmd := exec.CommandContext(ctx, c.bin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open log pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s logs: %w", c.bin, err)
	}

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		defer func() { _ = cmd.Wait() }()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines, nil
}

func (c *composeCLI) LivePorts(ctx context.Context, composePath string) ([]PortBinding, error) {
	entries, err := c.ps(ctx, composePath, "")
	if err != nil {
		return nil, err
	}
	return bindingsFromEntries(entries), nil
}

func bindingsFromEntries(entries []psEntry) []PortBinding {
	var bindings []PortBinding
	for _, entry := range entries {
		name := entry.Service
		if name == "" {
			name = entry.Name
		}
		for _, pub := range entry.Publishers {
			if pub.PublishedPort == 0 {
				continue
			}
			protocol := pub.Protocol
			if protocol == "" {
				protocol = "tcp"
			}
			bindings = append(bindings, PortBinding{
				Service:   name,
				Host:      pub.PublishedPort,
				Container: pub.TargetPort,
				Protocol:  protocol,
			})
		}
	}
	return bindings
}
