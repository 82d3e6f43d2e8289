package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/charmbracelet/huh"
	"github.com/tidwall/jsonc"

	"github.com/sergeknystautas/canopy/internal/stack"
	"github.com/sergeknystautas/canopy/internal/version"
)

var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrInvalidConfig   = errors.New("invalid config")
	ErrProjectNotFound = errors.New("project not found")
)

const (
	DefaultBaseBranch    = "main"
	DefaultSessionPrefix = "canopy"

	// stackEdgesSince is the first config version that stores full stack edges.
	// Older files only kept a child -> parent name map under "parents".
	stackEdgesSince = "0.3.0"
)

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Config represents the application configuration.
type Config struct {
	ConfigVersion string    `json:"config_version,omitempty"`
	WorkspacePath string    `json:"workspace_path"`
	SessionPrefix string    `json:"session_prefix,omitempty"`
	Projects      []Project `json:"projects"`

	// path is the file path where this config was loaded from or should be saved to.
	path string
}

// Project groups the workspaces created from one base repository.
type Project struct {
	Name        string      `json:"name"`
	RepoPath    string      `json:"repo_path"`          // local clone that hosts the worktrees
	RepoURL     string      `json:"repo_url,omitempty"` // informational, used for PR tooling
	BaseBranch  string      `json:"base_branch,omitempty"`
	RetargetPRs bool        `json:"retarget_prs,omitempty"`
	Stack       stack.Edges `json:"stack,omitempty"`

	// LegacyParents is the pre-0.3.0 stack format; Migrate folds it into Stack.
	LegacyParents map[string]string `json:"parents,omitempty"`
}

// GetBaseBranch returns the branch root workspaces are created from.
func (p *Project) GetBaseBranch() string {
	if p.BaseBranch == "" {
		return DefaultBaseBranch
	}
	return p.BaseBranch
}

// Path returns the file this config is bound to.
func (c *Config) Path() string {
	return c.path
}

// GetWorkspacePath returns the directory holding <project>/<workspace> trees.
// Defaults to $CANOPY_HOME/workspaces.
func (c *Config) GetWorkspacePath() string {
	if c.WorkspacePath != "" {
		return c.WorkspacePath
	}
	home, err := HomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "workspaces")
}

// GetSessionPrefix returns the tmux session name prefix.
func (c *Config) GetSessionPrefix() string {
	if c.SessionPrefix == "" {
		return DefaultSessionPrefix
	}
	return c.SessionPrefix
}

// FindProject returns the named project. The pointer aliases the config, so
// changes are persisted by the next Save.
func (c *Config) FindProject(name string) (*Project, bool) {
	for i := range c.Projects {
		if c.Projects[i].Name == name {
			return &c.Projects[i], true
		}
	}
	return nil, false
}

// DefaultProject returns the only configured project, if there is exactly one.
func (c *Config) DefaultProject() (*Project, bool) {
	if len(c.Projects) != 1 {
		return nil, false
	}
	return &c.Projects[0], true
}

// ProjectNames returns the configured project names in file order.
func (c *Config) ProjectNames() []string {
	names := make([]string, 0, len(c.Projects))
	for _, p := range c.Projects {
		names = append(names, p.Name)
	}
	return names
}

// AddProject appends a project after validating it.
func (c *Config) AddProject(p Project) error {
	if _, exists := c.FindProject(p.Name); exists {
		return fmt.Errorf("%w: project %q already exists", ErrInvalidConfig, p.Name)
	}
	if err := validateProject(p); err != nil {
		return err
	}
	c.Projects = append(c.Projects, p)
	return nil
}

// RemoveProject drops a project and its stack edges. Removing an unknown
// project returns ErrProjectNotFound.
func (c *Config) RemoveProject(name string) error {
	for i, p := range c.Projects {
		if p.Name == name {
			c.Projects = append(c.Projects[:i], c.Projects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrProjectNotFound, name)
}

// Validate checks project names, repo paths and stack edges.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Projects))
	for _, p := range c.Projects {
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate project %q", ErrInvalidConfig, p.Name)
		}
		seen[p.Name] = true
		if err := validateProject(p); err != nil {
			return err
		}
	}
	return nil
}

func validateProject(p Project) error {
	if !projectNamePattern.MatchString(p.Name) {
		return fmt.Errorf("%w: project name %q must be alphanumeric with . _ or -", ErrInvalidConfig, p.Name)
	}
	if strings.TrimSpace(p.RepoPath) == "" {
		return fmt.Errorf("%w: project %q: repo_path is required", ErrInvalidConfig, p.Name)
	}
	for child, edge := range p.Stack {
		if edge.BasedOn == "" {
			return fmt.Errorf("%w: project %q: stack entry %q has no based_on", ErrInvalidConfig, p.Name, child)
		}
		if edge.BasedOn == child {
			return fmt.Errorf("%w: project %q: %q is stacked on itself", ErrInvalidConfig, p.Name, child)
		}
	}
	return nil
}

// CreateDefault creates a default config with the given config file path.
// The path is stored so that subsequent Save() calls write to the same location.
func CreateDefault(configPath string) *Config {
	return &Config{
		ConfigVersion: version.Version,
		SessionPrefix: DefaultSessionPrefix,
		Projects:      []Project{},
		path:          configPath,
	}
}

// Load loads the configuration from the specified path. Comments and trailing
// commas are accepted.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Migrate(); err != nil {
		return nil, fmt.Errorf("config migration failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.path = configPath
	cfg.WorkspacePath = expandHome(cfg.WorkspacePath)
	for i := range cfg.Projects {
		cfg.Projects[i].RepoPath = expandHome(cfg.Projects[i].RepoPath)
	}

	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	// jsonc keeps byte offsets intact, so syntax positions still match the file.
	clean := jsonc.ToJSON(data)

	var cfg Config
	if err := json.Unmarshal(clean, &cfg); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col := offsetToLineCol(data, syntaxErr.Offset)
			return nil, fmt.Errorf("%w: %s (line %d, column %d)", ErrInvalidConfig, syntaxErr.Error(), line, col)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			line, col := offsetToLineCol(data, typeErr.Offset)
			return nil, fmt.Errorf("%w: field %q expects %s, got %s (line %d, column %d)",
				ErrInvalidConfig, typeErr.Field, typeErr.Type, typeErr.Value, line, col)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Migrate rolls an older config forward to the current schema.
func (c *Config) Migrate() error {
	from, ok, err := parseConfigVersion(c.ConfigVersion)
	if err != nil {
		return fmt.Errorf("%w: config_version %q: %v", ErrInvalidConfig, c.ConfigVersion, err)
	}
	if !ok {
		return nil
	}

	if from.LessThan(semver.MustParse(stackEdgesSince)) {
		for i := range c.Projects {
			migrateLegacyParents(&c.Projects[i])
		}
	}
	return nil
}

// parseConfigVersion returns ok=false for development builds, which are
// assumed to be current.
func parseConfigVersion(v string) (*semver.Version, bool, error) {
	switch v {
	case "":
		return semver.MustParse("0.0.0"), true, nil
	case "dev":
		return nil, false, nil
	}
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return nil, false, err
	}
	return parsed, true, nil
}

// migrateLegacyParents converts the old parents map. Workspaces were always
// created on a branch named after themselves, so the parent name doubles as
// its branch.
func migrateLegacyParents(p *Project) {
	if len(p.LegacyParents) == 0 {
		return
	}
	if p.Stack == nil {
		p.Stack = stack.Edges{}
	}
	for child, parent := range p.LegacyParents {
		if _, exists := p.Stack[child]; exists {
			continue
		}
		p.Stack[child] = stack.Edge{BasedOn: parent, BaseBranch: parent}
	}
	p.LegacyParents = nil
}

// Save writes the config to the path it was loaded from or created with.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config path not set: use Load() or CreateDefault() with a path")
	}

	// Update config version to current binary version
	c.ConfigVersion = version.Version

	dir := filepath.Dir(c.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to a temporary file first, then rename for atomicity
	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// ConfigExists checks if the config file exists.
func ConfigExists() bool {
	configPath, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// EnsureExists checks if config exists, and offers to create one interactively if not.
// Returns true if config exists or was created, false if user declined.
func EnsureExists() (bool, error) {
	if ConfigExists() {
		return true, nil
	}

	configPath, err := ConfigPath()
	if err != nil {
		return false, err
	}

	create := true
	err = huh.NewConfirm().
		Title("No canopy config found").
		Description(fmt.Sprintf("Create %s now?", configPath)).
		Affirmative("Yes, create it").
		Negative("No").
		Value(&create).
		Run()
	if err != nil {
		return false, err
	}
	if !create {
		fmt.Printf("Config not created. Create %s manually to continue.\n", configPath)
		return false, nil
	}

	cfg := CreateDefault(configPath)
	if err := cfg.Save(); err != nil {
		return false, fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("[config] created at %s\n", configPath)
	return true, nil
}

func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}

// offsetToLineCol converts a byte offset to line and column numbers (1-indexed).
func offsetToLineCol(data []byte, offset int64) (line, col int) {
	line = 1
	col = 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
