package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/runtimes/internal/domain/entities"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// recordView is the serialized form of a catalog record
type recordView struct {
	Version          string `json:"version" yaml:"version"`
	TargetPlatform   string `json:"target_platform" yaml:"target_platform"`
	Linkage          string `json:"linkage" yaml:"linkage"`
	FlavorCapability bool   `json:"flavor_capability" yaml:"flavor_capability"`
	URL              string `json:"url,omitempty" yaml:"url,omitempty"`
	SHA256           string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Path             string `json:"path,omitempty" yaml:"path,omitempty"`
}

func newRecordView(r entities.DistributionRecord) recordView {
	v := recordView{
		Version:          r.Version,
		TargetPlatform:   r.TargetTriple,
		Linkage:          r.Linkage(),
		FlavorCapability: r.SupportsPrebuiltExtensionModules,
	}
	switch loc := r.Location.(type) {
	case entities.RemoteLocation:
		v.URL = loc.URL
		v.SHA256 = loc.SHA256
	case entities.LocalLocation:
		v.Path = loc.Path
	}
	return v
}

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, formatTable, formatJSON, formatYAML)
	}
}

// writeStructured encodes v as JSON or YAML
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return validateFormat(format)
	}
}

func writeRecords(w io.Writer, format string, records []entities.DistributionRecord) error {
	views := make([]recordView, 0, len(records))
	for _, r := range records {
		views = append(views, newRecordView(r))
	}

	if format != formatTable {
		return writeStructured(w, format, views)
	}

	if len(views) == 0 {
		_, err := fmt.Fprintln(w, "No distributions found.")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-8s %-28s %-8s %s\n", "VERSION", "TARGET", "LINKAGE", "LOCATION")
	for i, v := range views {
		fmt.Fprintf(&b, "%-8s %-28s %-8s %s\n", v.Version, v.TargetPlatform, v.Linkage, records[i].Location.String())
	}
	_, err := io.WriteString(w, b.String())
	return err
}
