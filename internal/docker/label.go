package docker

import (
	"strings"

	"github.com/shinji-kodama/sidecar/internal/model"
)

// Label key constants define the labels the provisioning script sets on
// every sidecar container. Labels are written once at creation time and
// are the only state the runtime holds for us.
const (
	// LabelPrefix namespaces all sidecar labels.
	LabelPrefix = "sidecar."

	// LabelProject scopes a container to one project directory.
	// Key: "sidecar.project", Value: the 6-character project identifier.
	LabelProject = LabelPrefix + "project"

	// LabelService names the service kind.
	// Key: "sidecar.service", Value: e.g. "postgres", "rabbitmq".
	LabelService = LabelPrefix + "service"

	// LabelKeep marks containers that outlive the session.
	// Key: "sidecar.keep", Value: "true" or "false".
	LabelKeep = LabelPrefix + "keep"

	// LabelMeta carries extra metadata as base64-encoded JSON.
	// Key: "sidecar.meta", Value: e.g. "e30=" (the encoding of "{}").
	LabelMeta = LabelPrefix + "meta"
)

// KeepValue is the only LabelKeep value that marks a container as kept.
const KeepValue = "true"

// FilterLabel returns the "key=value" label filter selecting the
// containers of one project, in the form accepted by both
// `docker ps --filter label=...` and the Engine API.
func FilterLabel(projectID string) string {
	return LabelProject + "=" + projectID
}

// Labels is the interpreted form of the sidecar.* labels.
// Missing labels leave the zero value in place.
type Labels struct {
	Project string
	Service string
	Keep    bool

	// Meta is the raw, still-encoded sidecar.meta value.
	Meta string
}

// ParseLabels extracts the sidecar labels from a label map. Unlike a
// strict schema check, it never fails: a container with missing or
// malformed labels is still listed, with empty values.
func ParseLabels(labels map[string]string) Labels {
	return Labels{
		Project: labels[LabelProject],
		Service: labels[LabelService],
		Keep:    labels[LabelKeep] == KeepValue,
		Meta:    labels[LabelMeta],
	}
}

// ParseLabelString parses the label column printed by
// `docker ps --format {{.Labels}}`:
//
//	sidecar.project=abc123,sidecar.service=redis,sidecar.meta=e30=
//
// Pairs are split on the first "=" so base64 padding in values survives.
// Keys and values are trimmed. Pairs without "=" are ignored.
func ParseLabelString(s string) map[string]string {
	labels := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		labels[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return labels
}

// ParsePSOutput parses the output of
// `docker ps --format "{{.Names}}\t{{.Labels}}"` into ContainerInfo values,
// preserving line order. A line without a tab is taken as a bare name.
func ParsePSOutput(out string) []model.ContainerInfo {
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}

	var result []model.ContainerInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		name, labelStr, ok := strings.Cut(line, "\t")
		if !ok {
			result = append(result, model.ContainerInfo{
				Name:   strings.TrimSpace(line),
				Labels: map[string]string{},
			})
			continue
		}

		result = append(result, model.ContainerInfo{
			Name:   strings.TrimSpace(name),
			Labels: ParseLabelString(labelStr),
		})
	}
	return result
}
