package harness

import (
	"flag"

	"github.com/ternarybob/talentcheck/internal/common"
	"github.com/ternarybob/talentcheck/internal/models"
)

// Flags are the command-line switches a test binary accepts after -args
type Flags struct {
	Video      models.VideoPolicy
	ReportDir  string
	ConfigPath string

	fs *flag.FlagSet
}

// RegisterFlags adds -video, -reportdir and -config to fs
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{Video: models.DefaultVideoPolicy, fs: fs}
	fs.Var(&f.Video, "video", "video recording policy: on, off or retain-on-failure")
	fs.StringVar(&f.ReportDir, "reportdir", "", "attach failure artifacts to a report in this directory")
	fs.StringVar(&f.ConfigPath, "config", "", "path to talentcheck.toml")
	return f
}

// Apply copies the flags that were given on the command line onto config
func (f *Flags) Apply(config *common.Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "video":
			config.Artifacts.VideoPolicy = string(f.Video)
		case "reportdir":
			config.Artifacts.ReportDir = f.ReportDir
		}
	})
}

// LoadConfig loads the config file named by -config, then environment
// overrides, then the explicitly set flags.
func (f *Flags) LoadConfig() (*common.Config, error) {
	config, err := common.LoadFromFile(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	f.Apply(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
