package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"qelink/internal/linker"
)

// parseArgFlag turns one --arg name=value pair into a typed argument.
// The value is decoded as a YAML scalar, so 3 is an int, 0.5 a float,
// true a bool and anything else (or a quoted literal) a string.
func parseArgFlag(raw string) (linker.Argument, error) {
	name, value, ok := strings.Cut(raw, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return linker.Argument{}, fmt.Errorf("invalid --arg %q (expected name=value)", raw)
	}

	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil {
		return linker.Argument{}, fmt.Errorf("invalid --arg value %q: %w", value, err)
	}
	if v == nil {
		v = ""
	}
	return linker.Argument{Name: strings.TrimSpace(name), Value: v}, nil
}

func parseArgFlags(raws []string) ([]linker.Argument, error) {
	args := make([]linker.Argument, 0, len(raws))
	for _, raw := range raws {
		arg, err := parseArgFlag(raw)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

// loadArgsFile reads a YAML mapping of argument names to values. Names
// are sorted for a deterministic binding order.
func loadArgsFile(path string) ([]linker.Argument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read argument file: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%s: malformed argument file: %w", path, err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]linker.Argument, 0, len(names))
	for _, name := range names {
		args = append(args, linker.Argument{Name: name, Value: values[name]})
	}
	return args, nil
}

// mergeArgs layers override arguments (from --arg) over a base set
// (from an argument file). Overrides win by name.
func mergeArgs(base, overrides []linker.Argument) []linker.Argument {
	overridden := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		overridden[o.Name] = true
	}
	merged := make([]linker.Argument, 0, len(base)+len(overrides))
	for _, b := range base {
		if !overridden[b.Name] {
			merged = append(merged, b)
		}
	}
	return append(merged, overrides...)
}
