package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/talentcheck/internal/models"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "TALENTCHECK_"

// Config represents the harness configuration
type Config struct {
	App             AppConfig             `toml:"app"`
	Browser         BrowserConfig         `toml:"browser"`
	Timeouts        TimeoutsConfig        `toml:"timeouts"`
	Artifacts       ArtifactsConfig       `toml:"artifacts"`
	Logging         LoggingConfig         `toml:"logging"`
	Fixtures        FixturesConfig        `toml:"fixtures"`
	Users           map[string]UserConfig `toml:"users"`            // Inline role -> credential mapping
	CredentialsFile string                `toml:"credentials_file"` // Optional YAML file with a `users:` mapping
}

// AppConfig describes the application under test
type AppConfig struct {
	BaseURL string `toml:"base_url" validate:"required,url"`
}

// BrowserConfig controls the Chromium process shared by a test run
type BrowserConfig struct {
	Headless     bool   `toml:"headless"`
	DisableGPU   bool   `toml:"disable_gpu"`
	WindowWidth  int    `toml:"window_width" validate:"min=320"`
	WindowHeight int    `toml:"window_height" validate:"min=240"`
	ExecPath     string `toml:"exec_path"` // Empty = let chromedp find Chrome
	UserAgent    string `toml:"user_agent"`
}

// TimeoutsConfig holds every bounded wait as a duration string (e.g. "60s")
type TimeoutsConfig struct {
	Action       string `toml:"action"`        // Default for every UI action (context and page scope)
	ParseWait    string `toml:"parse_wait"`    // Document parsing after "Click to autofill"
	Dashboard    string `toml:"dashboard"`     // Dashboard readiness after login
	SuccessModal string `toml:"success_modal"` // Publish confirmation
	ViewJob      string `toml:"view_job"`      // Job view tabs after "View Job"
	Generate     string `toml:"generate"`      // AI job generation
	Teardown     string `toml:"teardown"`      // Screenshot + recording finalisation at release
}

// ArtifactsConfig controls where diagnostics go and what is kept
type ArtifactsConfig struct {
	ScreenshotsDir   string `toml:"screenshots_dir" validate:"required"`
	VideosDir        string `toml:"videos_dir" validate:"required"`
	SnapshotsDir     string `toml:"snapshots_dir" validate:"required"`
	VideoPolicy      string `toml:"video_policy" validate:"oneof=on off retain-on-failure"`
	ReportDir        string `toml:"report_dir"`                            // Empty = no report attachments
	RecordingFPS     int    `toml:"recording_fps" validate:"min=1,max=30"` // Upper bound on frames written per second
	RecordingQuality int    `toml:"recording_quality" validate:"min=1,max=100"`
	DOMSnapshots     bool   `toml:"dom_snapshots"` // Save page markdown next to failure screenshots
}

// LoggingConfig controls the arbor writers
type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output"` // "console", "file"
	Dir        string   `toml:"dir"`
	FileName   string   `toml:"file_name"`
	TimeFormat string   `toml:"time_format"`
}

// FixturesConfig points at the documents uploaded by the job flows
type FixturesConfig struct {
	JobFile string `toml:"job_file" validate:"required"`
}

// UserConfig is one inline credential entry
type UserConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			BaseURL: "https://test.app.sproutsai.com",
		},
		Browser: BrowserConfig{
			Headless:     true,
			DisableGPU:   true,
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Timeouts: TimeoutsConfig{
			Action:       "60s",
			ParseWait:    "150s",
			Dashboard:    "10s",
			SuccessModal: "20s",
			ViewJob:      "30s",
			Generate:     "150s",
			Teardown:     "15s",
		},
		Artifacts: ArtifactsConfig{
			ScreenshotsDir:   "screenshots",
			VideosDir:        "videos",
			SnapshotsDir:     "snapshots",
			VideoPolicy:      string(models.DefaultVideoPolicy),
			RecordingFPS:     10,
			RecordingQuality: 70,
			DOMSnapshots:     true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"console", "file"},
			Dir:        "logs",
			FileName:   "test_run.log",
			TimeFormat: "2006-01-02 15:04:05",
		},
		Fixtures: FixturesConfig{
			JobFile: filepath.Join("data", "sample_jobs", "Software_Test_Engineer.pdf"),
		},
		Users: map[string]UserConfig{},
	}
}

// LoadFromFile loads configuration from a TOML file on top of the defaults.
// An empty path skips the file. Priority: CLI flags > environment > file > defaults.
// Flags are applied by the caller after this returns.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if baseURL := os.Getenv(EnvPrefix + "BASE_URL"); baseURL != "" {
		config.App.BaseURL = baseURL
	}

	if headless := os.Getenv(EnvPrefix + "HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if execPath := os.Getenv(EnvPrefix + "CHROME_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}

	if action := os.Getenv(EnvPrefix + "ACTION_TIMEOUT"); action != "" {
		config.Timeouts.Action = action
	}
	if parseWait := os.Getenv(EnvPrefix + "PARSE_WAIT_TIMEOUT"); parseWait != "" {
		config.Timeouts.ParseWait = parseWait
	}

	if policy := os.Getenv(EnvPrefix + "VIDEO_POLICY"); policy != "" {
		config.Artifacts.VideoPolicy = policy
	}
	if reportDir := os.Getenv(EnvPrefix + "REPORT_DIR"); reportDir != "" {
		config.Artifacts.ReportDir = reportDir
	}

	if level := os.Getenv(EnvPrefix + "LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv(EnvPrefix + "LOG_OUTPUT"); output != "" {
		outputs := strings.Split(output, ",")
		for i := range outputs {
			outputs[i] = strings.TrimSpace(outputs[i])
		}
		config.Logging.Output = outputs
	}

	if jobFile := os.Getenv(EnvPrefix + "JOB_FILE"); jobFile != "" {
		config.Fixtures.JobFile = jobFile
	}
	if credFile := os.Getenv(EnvPrefix + "CREDENTIALS_FILE"); credFile != "" {
		config.CredentialsFile = credFile
	}

	// TALENTCHECK_USER_<ROLE>_USERNAME / TALENTCHECK_USER_<ROLE>_PASSWORD
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvPrefix+"USER_") {
			continue
		}
		rest := strings.TrimPrefix(key, EnvPrefix+"USER_")
		var role, field string
		switch {
		case strings.HasSuffix(rest, "_USERNAME"):
			role, field = strings.TrimSuffix(rest, "_USERNAME"), "username"
		case strings.HasSuffix(rest, "_PASSWORD"):
			role, field = strings.TrimSuffix(rest, "_PASSWORD"), "password"
		default:
			continue
		}
		if role == "" {
			continue
		}
		if config.Users == nil {
			config.Users = map[string]UserConfig{}
		}
		user := config.Users[role]
		if field == "username" {
			user.Username = value
		} else {
			user.Password = value
		}
		config.Users[role] = user
	}
}

// Validate checks struct tags and that every duration parses
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"timeouts.action":        c.Timeouts.Action,
		"timeouts.parse_wait":    c.Timeouts.ParseWait,
		"timeouts.dashboard":     c.Timeouts.Dashboard,
		"timeouts.success_modal": c.Timeouts.SuccessModal,
		"timeouts.view_job":      c.Timeouts.ViewJob,
		"timeouts.generate":      c.Timeouts.Generate,
		"timeouts.teardown":      c.Timeouts.Teardown,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid configuration: %s=%q: %w", name, value, err)
		}
		if d <= 0 {
			return fmt.Errorf("invalid configuration: %s must be positive", name)
		}
	}
	return nil
}

// VideoPolicy returns the parsed video policy
func (c *Config) VideoPolicy() models.VideoPolicy {
	p, err := models.ParseVideoPolicy(c.Artifacts.VideoPolicy)
	if err != nil {
		return models.DefaultVideoPolicy
	}
	return p
}

// RoleError is one role left out of the credential set
type RoleError struct {
	Role string
	Err  error
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("credentials for role %s: %v", e.Role, e.Err)
}

func (e *RoleError) Unwrap() error {
	return e.Err
}

// CredentialsError lists the roles dropped from a credential set, in role order.
// The set returned alongside it still holds every usable role.
type CredentialsError struct {
	Dropped []*RoleError
}

func (e *CredentialsError) Error() string {
	parts := make([]string, len(e.Dropped))
	for i, d := range e.Dropped {
		parts[i] = d.Error()
	}
	return fmt.Sprintf("%d role(s) dropped: %s", len(e.Dropped), strings.Join(parts, "; "))
}

func (e *CredentialsError) Unwrap() []error {
	out := make([]error, len(e.Dropped))
	for i, d := range e.Dropped {
		out[i] = d
	}
	return out
}

// Roles lists the dropped roles
func (e *CredentialsError) Roles() []string {
	out := make([]string, len(e.Dropped))
	for i, d := range e.Dropped {
		out[i] = d.Role
	}
	return out
}

// Credentials merges the credentials file (if any) with inline users.
// Inline entries win over the file for the same role. {NAME} references
// resolve from the environment. A role with an unresolved reference or
// missing fields is left out and reported through *CredentialsError; the
// other roles are still returned. An unreadable credentials file fails
// the whole set.
func (c *Config) Credentials() (models.CredentialSet, error) {
	return c.credentialsWith(os.LookupEnv)
}

func (c *Config) credentialsWith(lookup LookupFunc) (models.CredentialSet, error) {
	users := make(map[string]models.Credential)

	if c.CredentialsFile != "" {
		fileUsers, err := loadCredentialsFile(c.CredentialsFile)
		if err != nil {
			return models.CredentialSet{}, err
		}
		for role, cred := range fileUsers {
			users[role] = cred
		}
	}

	for role, u := range c.Users {
		users[role] = models.Credential{Username: u.Username, Password: u.Password}
	}

	roles := make([]string, 0, len(users))
	for role := range users {
		roles = append(roles, role)
	}
	sort.Strings(roles)

	validate := validator.New()
	usable := make(map[string]models.Credential, len(users))
	var dropped []*RoleError
	for _, role := range roles {
		cred, err := resolveCredential(users[role], lookup)
		if err == nil {
			if verr := validate.Struct(cred); verr != nil {
				err = fmt.Errorf("incomplete credentials: %w", verr)
			}
		}
		if err != nil {
			dropped = append(dropped, &RoleError{Role: role, Err: err})
			continue
		}
		usable[role] = cred
	}

	set := models.NewCredentialSet(usable)
	if len(dropped) > 0 {
		return set, &CredentialsError{Dropped: dropped}
	}
	return set, nil
}

type credentialsFile struct {
	Users map[string]models.Credential `yaml:"users"`
}

func loadCredentialsFile(path string) (map[string]models.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file %s: %w", path, err)
	}
	return file.Users, nil
}

// Duration helpers. Validate has already rejected unparsable values,
// so a parse failure here falls back to the default.

func (t TimeoutsConfig) ActionTimeout() time.Duration {
	return parseDurationOr(t.Action, 60*time.Second)
}

func (t TimeoutsConfig) ParseWaitTimeout() time.Duration {
	return parseDurationOr(t.ParseWait, 150*time.Second)
}

func (t TimeoutsConfig) DashboardTimeout() time.Duration {
	return parseDurationOr(t.Dashboard, 10*time.Second)
}

func (t TimeoutsConfig) SuccessModalTimeout() time.Duration {
	return parseDurationOr(t.SuccessModal, 20*time.Second)
}

func (t TimeoutsConfig) ViewJobTimeout() time.Duration {
	return parseDurationOr(t.ViewJob, 30*time.Second)
}

func (t TimeoutsConfig) GenerateTimeout() time.Duration {
	return parseDurationOr(t.Generate, 150*time.Second)
}

func (t TimeoutsConfig) TeardownTimeout() time.Duration {
	return parseDurationOr(t.Teardown, 15*time.Second)
}

func parseDurationOr(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
