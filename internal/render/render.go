// Package render turns a Snapshot into output: the annotated connections
// report, the bare KEY=VALUE stream for shell evaluation, a JSON document
// and a compact table.
//
// Renderers only echo ports found in the Snapshot. An unresolved port is
// shown as a warning (report) or omitted (env stream), never replaced.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shinji-kodama/sidecar/internal/model"
	"github.com/shinji-kodama/sidecar/internal/service"
)

// timestampLayout formats the report timestamp, e.g. "2026-10-19 12:00 UTC".
const timestampLayout = "2006-01-02 15:04 UTC"

// errWriter records the first write error so the renderers can print
// line after line and check once at the end.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	ew.printf("%s\n", s)
}

// Connections writes the annotated report.
func Connections(w io.Writer, snap *model.Snapshot, now time.Time) error {
	ew := &errWriter{w: w}

	if len(snap.Containers) == 0 {
		services := snap.Services
		if len(services) == 0 {
			services = service.Known()
		}
		ew.println("[sidecar] No running containers found for this project.")
		ew.printf("Run: /sidecar start %s  (or %s)\n",
			services[0], strings.Join(services[1:], ", "))
		return ew.err
	}

	ew.println("# Sidecar — Active Connections")
	ew.printf("# %s\n", now.UTC().Format(timestampLayout))
	ew.println("# Ports are randomly assigned — use values below, never assume defaults.")
	ew.println("")

	for _, conn := range snap.Connections {
		c := conn.Container
		if !conn.Resolved() {
			ew.printf("# WARNING: could not resolve port for %s\n", c.Name)
			continue
		}

		ew.printf("## %s  host-port=%d  [%s]\n", strings.ToUpper(c.Service), conn.HostPort, c.Lifecycle())
		for _, e := range conn.Env {
			ew.printf("  %s\n", e)
		}
		if c.Service == service.RabbitMQ {
			if mgmt := c.Meta.MgmtPort(); mgmt > 0 {
				ew.printf("  MGMT_UI=%s  (%s/%s)\n",
					service.MgmtURL(snap.Host, mgmt), service.User, service.Password)
			}
		}
		ew.println("")
	}

	ew.println("# Shell export block:")
	for _, e := range MergeEnv(snap.Connections) {
		ew.printf("# export %s\n", e)
	}
	return ew.err
}

// Env writes one KEY=VALUE line per variable of every resolved
// connection, in enumeration order. Nothing else is written, so the
// output can be passed to eval or sourced directly.
func Env(w io.Writer, snap *model.Snapshot) error {
	ew := &errWriter{w: w}
	for _, conn := range snap.Resolved() {
		for _, e := range conn.Env {
			ew.println(e.String())
		}
	}
	return ew.err
}

// MergeEnv combines the variables of all resolved connections. A key
// keeps the position of its first occurrence and the value of its last,
// so two containers of the same service yield one set of variables.
func MergeEnv(conns []model.Connection) model.EnvList {
	var merged model.EnvList
	index := make(map[string]int)
	for _, conn := range conns {
		if !conn.Resolved() {
			continue
		}
		for _, e := range conn.Env {
			if i, ok := index[e.Key]; ok {
				merged[i].Value = e.Value
				continue
			}
			index[e.Key] = len(merged)
			merged = append(merged, e)
		}
	}
	return merged
}

// snapshotJSON is the JSON output structure for a Snapshot.
type snapshotJSON struct {
	ProjectID   string            `json:"projectId"`
	GeneratedAt string            `json:"generatedAt"`
	Connections []connectionJSON  `json:"connections"`
	Warnings    []string          `json:"warnings"`
	Env         map[string]string `json:"env"`
}

// connectionJSON describes one resolved container.
type connectionJSON struct {
	Name          string            `json:"name"`
	Service       string            `json:"service"`
	Keep          bool              `json:"keep"`
	ContainerPort int               `json:"containerPort"`
	HostPort      int               `json:"hostPort"`
	URI           string            `json:"uri"`
	MgmtURL       string            `json:"mgmtUrl,omitempty"`
	Env           map[string]string `json:"env"`
}

// JSON writes the snapshot as an indented JSON document. Unresolved
// connections appear under "warnings" only.
func JSON(w io.Writer, snap *model.Snapshot, now time.Time) error {
	out := snapshotJSON{
		ProjectID:   snap.ProjectID,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		// Empty slices instead of nil so the document shows [] not null.
		Connections: make([]connectionJSON, 0, len(snap.Connections)),
		Warnings:    []string{},
		Env:         MergeEnv(snap.Connections).Map(),
	}

	for _, conn := range snap.Connections {
		c := conn.Container
		if !conn.Resolved() {
			out.Warnings = append(out.Warnings, "could not resolve port for "+c.Name)
			continue
		}
		entry := connectionJSON{
			Name:          c.Name,
			Service:       c.Service,
			Keep:          c.Keep,
			ContainerPort: conn.ContainerPort,
			HostPort:      conn.HostPort,
			URI:           conn.URI,
			Env:           conn.Env.Map(),
		}
		if c.Service == service.RabbitMQ {
			if mgmt := c.Meta.MgmtPort(); mgmt > 0 {
				entry.MgmtURL = service.MgmtURL(snap.Host, mgmt)
			}
		}
		out.Connections = append(out.Connections, entry)
	}

	return writeJSON(w, out)
}

// EnvJSON writes the merged environment as a flat JSON object.
func EnvJSON(w io.Writer, snap *model.Snapshot) error {
	return writeJSON(w, MergeEnv(snap.Connections).Map())
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// List writes a fixed-width table of every container found:
//
//	NAME                      SERVICE    HOST PORT  KEEP
//	sidecar-postgres-abc123   postgres   54321      false
//	sidecar-redis-abc123      redis      -          true
//
// Containers with an unknown service or an unresolved port show "-".
func List(w io.Writer, snap *model.Snapshot) error {
	ew := &errWriter{w: w}

	if len(snap.Containers) == 0 {
		ew.println("No sidecar containers found.")
		return ew.err
	}

	ports := hostPorts(snap)

	ew.printf("%-25s %-10s %-10s %s\n", "NAME", "SERVICE", "HOST PORT", "KEEP")
	for _, c := range snap.Containers {
		svc := c.Service
		if svc == "" {
			svc = "-"
		}
		ew.printf("%-25s %-10s %-10s %t\n", c.Name, svc, FormatPort(ports[c.Name]), c.Keep)
	}
	return ew.err
}

// listEntryJSON is one row of the list table in JSON form. HostPort is 0
// when the service kind is unknown or the port is unresolved.
type listEntryJSON struct {
	Name     string `json:"name"`
	Service  string `json:"service"`
	HostPort int    `json:"hostPort"`
	Keep     bool   `json:"keep"`
}

// ListJSON writes the rows of List as a JSON array. Every container is
// included, like in the table.
func ListJSON(w io.Writer, snap *model.Snapshot) error {
	ports := hostPorts(snap)

	entries := make([]listEntryJSON, 0, len(snap.Containers))
	for _, c := range snap.Containers {
		entries = append(entries, listEntryJSON{
			Name:     c.Name,
			Service:  c.Service,
			HostPort: max(ports[c.Name], 0),
			Keep:     c.Keep,
		})
	}
	return writeJSON(w, entries)
}

// hostPorts maps container names to their host port, 0 when unresolved.
func hostPorts(snap *model.Snapshot) map[string]int {
	ports := make(map[string]int, len(snap.Connections))
	for _, conn := range snap.Connections {
		ports[conn.Container.Name] = conn.HostPort
	}
	return ports
}

// FormatPort renders a host port for tables, "-" when unresolved.
func FormatPort(port int) string {
	if port <= 0 {
		return "-"
	}
	return strconv.Itoa(port)
}
