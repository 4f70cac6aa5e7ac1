// Package config loads and validates FlowBridge's YAML configuration
// file into an immutable, strongly-typed Config. Loading is fail-fast:
// the first validation error aborts the load; there is no partial
// config and no hot reload.
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/flowbridge/flowbridge/domain/jsonvalue"
	"github.com/flowbridge/flowbridge/domain/predicate"
	"github.com/flowbridge/flowbridge/domain/routing"
	"gopkg.in/yaml.v3"
)

const (
	// MaxFileSize bounds the configuration file per §4.5.1.
	MaxFileSize = 1 << 20 // 1 MiB

	maxURLLength     = 2048
	maxListRHSItems  = 100
	maxRouteEntries  = 100
	minRouteTimeout  = 1
	maxRouteTimeout  = 30
	minServerWorkers = 1
	minServerPort    = 1
	maxServerPort    = 65535
	minLogRotationKB = 100
	maxLogRotationKB = 1 << 20 // 1gb expressed in kb
)

// GeneralConfig holds the general section.
type GeneralConfig struct {
	RouteTimeout int    // seconds, [1,30]
	LogRotation  string // e.g. "10mb"
}

// ServerConfig holds the server section.
type ServerConfig struct {
	Host     string
	Port     int
	Workers  int
	LogLevel string
}

// FilteringConfig holds the filtering section.
type FilteringConfig struct {
	DefaultAction predicate.DefaultAction
	Conditions    predicate.Conditions
}

// Config is the fully validated, immutable configuration tree. It is
// built once at startup and shared read-only by every request.
type Config struct {
	General   GeneralConfig
	Server    ServerConfig
	Filtering FilteringConfig
	Routes    []routing.Mapping

	// SourcePath and LoadedAt are not part of the YAML schema.
	// SourcePath is rendered by GET /config as source_path; LoadedAt is
	// recorded but not rendered or logged.
	SourcePath string
	LoadedAt   time.Time
}

// Error reports a configuration validation failure, identifying the
// offending section and key so operators can find it in the YAML
// source without re-deriving line numbers.
type Error struct {
	Section string
	Key     string
	Message string
}

func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config: %s.%s: %s", e.Section, e.Key, e.Message)
	}
	return fmt.Sprintf("config: %s: %s", e.Section, e.Message)
}

func newErr(section, key, format string, args ...any) *Error {
	return &Error{Section: section, Key: key, Message: fmt.Sprintf(format, args...)}
}

// ---- YAML wire shapes ----

type yamlRoot struct {
	General   *yamlGeneral   `yaml:"general"`
	Server    *yamlServer    `yaml:"server"`
	Filtering *yamlFiltering `yaml:"filtering"`
	Routes    []yamlMapping  `yaml:"routes"`
}

type yamlGeneral struct {
	RouteTimeout int    `yaml:"route_timeout"`
	LogRotation  string `yaml:"log_rotation"`
}

type yamlServer struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
}

type yamlFiltering struct {
	DefaultAction string         `yaml:"default_action"`
	Conditions    yamlConditions `yaml:"conditions"`
}

type yamlConditions struct {
	Logic string     `yaml:"logic"`
	Rules []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	Field    string    `yaml:"field"`
	Operator string    `yaml:"operator"`
	Value    yaml.Node `yaml:"value"`
}

type yamlMapping struct {
	Field    string          `yaml:"field"`
	Mappings []yamlRouteItem `yaml:"mappings"`
}

type yamlRouteItem struct {
	Key string `yaml:"key"`
	URL string `yaml:"url"`
}

var logRotationPattern = regexp.MustCompile(`^(\d+)(kb|mb|gb)$`)

// Load parses and validates the YAML file at path, returning a fully
// built Config or the first *Error encountered.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newErr("file", "", "cannot read %s: %v", path, err)
	}
	if len(raw) > MaxFileSize {
		return nil, newErr("file", "", "exceeds maximum size of %d bytes", MaxFileSize)
	}
	if !utf8.Valid(raw) {
		return nil, newErr("file", "", "is not valid UTF-8")
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var root yamlRoot
	if err := dec.Decode(&root); err != nil {
		return nil, newErr("file", "", "invalid YAML: %v", err)
	}

	if root.General == nil {
		return nil, newErr("general", "", "section is required")
	}
	if root.Server == nil {
		return nil, newErr("server", "", "section is required")
	}
	if root.Filtering == nil {
		return nil, newErr("filtering", "", "section is required")
	}
	if root.Routes == nil {
		return nil, newErr("routes", "", "section is required")
	}

	general, err := buildGeneral(root.General)
	if err != nil {
		return nil, err
	}
	server, err := buildServer(root.Server)
	if err != nil {
		return nil, err
	}
	filtering, err := buildFiltering(root.Filtering)
	if err != nil {
		return nil, err
	}
	routes, err := buildRoutes(root.Routes)
	if err != nil {
		return nil, err
	}

	return &Config{
		General:    general,
		Server:     server,
		Filtering:  filtering,
		Routes:     routes,
		SourcePath: path,
		LoadedAt:   time.Now(),
	}, nil
}

func buildGeneral(g *yamlGeneral) (GeneralConfig, error) {
	if g.RouteTimeout < minRouteTimeout || g.RouteTimeout > maxRouteTimeout {
		return GeneralConfig{}, newErr("general", "route_timeout", "must be between %d and %d seconds", minRouteTimeout, maxRouteTimeout)
	}

	m := logRotationPattern.FindStringSubmatch(g.LogRotation)
	if m == nil {
		return GeneralConfig{}, newErr("general", "log_rotation", `must match \d+(kb|mb|gb)`)
	}
	magnitude, _ := strconv.Atoi(m[1])
	kb := magnitude
	switch m[2] {
	case "mb":
		kb = magnitude * 1024
	case "gb":
		kb = magnitude * 1024 * 1024
	}
	if kb < minLogRotationKB || kb > maxLogRotationKB {
		return GeneralConfig{}, newErr("general", "log_rotation", "must be between 100kb and 1gb")
	}

	return GeneralConfig{RouteTimeout: g.RouteTimeout, LogRotation: g.LogRotation}, nil
}

func buildServer(s *yamlServer) (ServerConfig, error) {
	if s.Port < minServerPort || s.Port > maxServerPort {
		return ServerConfig{}, newErr("server", "port", "must be between %d and %d", minServerPort, maxServerPort)
	}
	if s.Workers < minServerWorkers {
		return ServerConfig{}, newErr("server", "workers", "must be at least %d", minServerWorkers)
	}
	if s.Host == "" {
		return ServerConfig{}, newErr("server", "host", "must not be empty")
	}
	return ServerConfig{Host: s.Host, Port: s.Port, Workers: s.Workers, LogLevel: s.LogLevel}, nil
}

func buildFiltering(f *yamlFiltering) (FilteringConfig, error) {
	var defaultAction predicate.DefaultAction
	switch f.DefaultAction {
	case string(predicate.Pass):
		defaultAction = predicate.Pass
	case string(predicate.Drop):
		defaultAction = predicate.Drop
	default:
		return FilteringConfig{}, newErr("filtering", "default_action", "must be 'drop' or 'pass', got %q", f.DefaultAction)
	}

	var logic predicate.Logic
	switch f.Conditions.Logic {
	case string(predicate.AND):
		logic = predicate.AND
	case string(predicate.OR):
		logic = predicate.OR
	default:
		return FilteringConfig{}, newErr("filtering", "conditions.logic", "must be 'AND' or 'OR', got %q", f.Conditions.Logic)
	}

	if len(f.Conditions.Rules) == 0 {
		return FilteringConfig{}, newErr("filtering", "conditions.rules", "must be non-empty")
	}

	rules := make([]predicate.Rule, 0, len(f.Conditions.Rules))
	for i, yr := range f.Conditions.Rules {
		rule, err := buildRule(i, yr)
		if err != nil {
			return FilteringConfig{}, err
		}
		rules = append(rules, rule)
	}

	return FilteringConfig{
		DefaultAction: defaultAction,
		Conditions:    predicate.Conditions{Logic: logic, Rules: rules},
	}, nil
}

func buildRule(index int, yr yamlRule) (predicate.Rule, error) {
	key := fmt.Sprintf("conditions.rules[%d]", index)

	field, err := jsonvalue.ParseFieldPath(yr.Field)
	if err != nil {
		return predicate.Rule{}, newErr("filtering", key+".field", "%v", err)
	}

	op := predicate.Operator(yr.Operator)
	if !predicate.ValidOperator(op) {
		return predicate.Rule{}, newErr("filtering", key+".operator", "unrecognized operator %q", yr.Operator)
	}

	value, err := nodeToValue(&yr.Value)
	if err != nil {
		return predicate.Rule{}, newErr("filtering", key+".value", "%v", err)
	}

	rule := predicate.Rule{Field: field, Operator: op, Value: value}
	if err := predicate.ValidateRule(rule); err != nil {
		return predicate.Rule{}, newErr("filtering", key, "%v", err)
	}
	if seq, ok := value.Sequence(); ok && len(seq) > maxListRHSItems {
		return predicate.Rule{}, newErr("filtering", key+".value", "list exceeds %d items", maxListRHSItems)
	}

	return rule, nil
}

func buildRoutes(yms []yamlMapping) ([]routing.Mapping, error) {
	mappings := make([]routing.Mapping, 0, len(yms))
	for i, ym := range yms {
		key := fmt.Sprintf("routes[%d]", i)

		field, err := jsonvalue.ParseFieldPath(ym.Field)
		if err != nil {
			return nil, newErr("routes", key+".field", "%v", err)
		}

		if len(ym.Mappings) > maxRouteEntries {
			return nil, newErr("routes", key+".mappings", "exceeds %d entries", maxRouteEntries)
		}

		seen := make(map[string]bool, len(ym.Mappings))
		entries := make([]routing.Entry, 0, len(ym.Mappings))
		for j, item := range ym.Mappings {
			itemKey := fmt.Sprintf("%s.mappings[%d]", key, j)
			if item.Key == "" {
				return nil, newErr("routes", itemKey+".key", "must not be empty")
			}
			if seen[item.Key] {
				return nil, newErr("routes", itemKey+".key", "duplicate key %q", item.Key)
			}
			seen[item.Key] = true

			if err := validateDestinationURL(item.URL); err != nil {
				return nil, newErr("routes", itemKey+".url", "%v", err)
			}
			entries = append(entries, routing.Entry{Key: item.Key, URL: item.URL})
		}

		mappings = append(mappings, routing.Mapping{Field: field, Entries: entries})
	}
	return mappings, nil
}

// validateDestinationURL enforces §4.5.7: absolute, http/https, host
// non-empty, no userinfo, length ≤ 2048.
func validateDestinationURL(raw string) error {
	if len(raw) == 0 {
		return fmt.Errorf("must not be empty")
	}
	if len(raw) > maxURLLength {
		return fmt.Errorf("exceeds %d characters", maxURLLength)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if u.User != nil {
		return fmt.Errorf("must not contain userinfo")
	}
	if !u.IsAbs() {
		return fmt.Errorf("must be absolute")
	}
	return nil
}

// nodeToValue converts a raw YAML scalar or sequence node into a
// predicate rule's right-hand jsonvalue.Value. Mapping nodes are
// rejected: no rule's RHS is ever an object.
func nodeToValue(node *yaml.Node) (jsonvalue.Value, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return scalarNodeToValue(node)
	case yaml.SequenceNode:
		items := make([]jsonvalue.Value, 0, len(node.Content))
		for _, child := range node.Content {
			v, err := nodeToValue(child)
			if err != nil {
				return jsonvalue.Null, err
			}
			if v.IsSequence() || v.IsMapping() {
				return jsonvalue.Null, fmt.Errorf("list items must be scalars")
			}
			items = append(items, v)
		}
		return jsonvalue.Sequence(items), nil
	case 0:
		return jsonvalue.Null, nil
	default:
		return jsonvalue.Null, fmt.Errorf("must be a scalar or a list of scalars")
	}
}

func scalarNodeToValue(node *yaml.Node) (jsonvalue.Value, error) {
	switch node.Tag {
	case "!!null":
		return jsonvalue.Null, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return jsonvalue.Null, err
		}
		return jsonvalue.Bool(b), nil
	case "!!int":
		var i int64
		if err := node.Decode(&i); err != nil {
			return jsonvalue.Null, err
		}
		return jsonvalue.Int(i), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return jsonvalue.Null, err
		}
		return jsonvalue.Float(f), nil
	default:
		var s string
		if err := node.Decode(&s); err != nil {
			return jsonvalue.Null, err
		}
		return jsonvalue.String(s), nil
	}
}
