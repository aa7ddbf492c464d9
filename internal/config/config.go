// Package config loads the pipeline configuration. Every command and cloud
// function receives a *Config; nothing reads environment variables on its
// own.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrMissingProject is returned by RequireProject when no Firestore project
// is configured.
var ErrMissingProject = errors.New("project_id must be set (flag --project, MATHPIPE_PROJECT_ID or PROJECT_ID)")

// Config holds every setting the pipeline recognizes.
type Config struct {
	// Google Cloud
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`

	// Firestore
	ProblemsCollection    string `mapstructure:"problems_collection" validate:"required"`
	SchoolsCollection     string `mapstructure:"schools_collection" validate:"required"`
	ExtractionsCollection string `mapstructure:"extractions_collection" validate:"required"`
	BatchLimit            int    `mapstructure:"batch_limit" validate:"min=1,max=500"`

	// Local files
	ProblemsDir string `mapstructure:"problems_dir" validate:"required"`
	SchoolsFile string `mapstructure:"schools_file" validate:"required"`
	OutputPath  string `mapstructure:"output_path" validate:"required"`
	TaggedPath  string `mapstructure:"tagged_path" validate:"required"`

	// School directory API
	NEISAPIKey   string `mapstructure:"neis_api_key"`
	NEISBaseURL  string `mapstructure:"neis_base_url" validate:"required,url"`
	NEISPageSize int    `mapstructure:"neis_page_size" validate:"min=1,max=1000"`

	// Tagging
	VertexRegion string   `mapstructure:"vertex_region" validate:"required"`
	VertexModel  string   `mapstructure:"vertex_model" validate:"required"`
	Categories   []string `mapstructure:"categories" validate:"min=1,dive,required"`

	// Cloud functions
	OutputBucket     string `mapstructure:"output_bucket"`
	WorkflowID       string `mapstructure:"workflow_id"`
	WorkflowLocation string `mapstructure:"workflow_location"`
}

// DefaultCategories are the CSAT math units problems are tagged with.
var DefaultCategories = []string{
	"지수함수와 로그함수",
	"삼각함수",
	"수열",
	"함수의 극한과 연속",
	"미분",
	"적분",
	"확률과 통계",
	"미적분",
	"기하",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project_id", "")
	v.SetDefault("credentials_file", "firebase-credentials.json")

	v.SetDefault("problems_collection", "problems")
	v.SetDefault("schools_collection", "schools")
	v.SetDefault("extractions_collection", "extractions")
	v.SetDefault("batch_limit", 500)

	v.SetDefault("problems_dir", "~/.claude/projects/problem-generator/outputs")
	v.SetDefault("schools_file", "schools.json")
	v.SetDefault("output_path", "extracted_problems.csv")
	v.SetDefault("tagged_path", "problems_tagged.csv")

	v.SetDefault("neis_api_key", "")
	v.SetDefault("neis_base_url", "https://open.neis.go.kr/hub/schoolInfo")
	v.SetDefault("neis_page_size", 1000)

	v.SetDefault("vertex_region", "us-central1")
	v.SetDefault("vertex_model", "gemini-1.5-pro")
	v.SetDefault("categories", DefaultCategories)

	v.SetDefault("output_bucket", "")
	v.SetDefault("workflow_id", "")
	v.SetDefault("workflow_location", "us-central1")
}

// Load reads configuration from, in increasing precedence: defaults, the
// optional YAML file at path, MATHPIPE_* environment variables, and
// overrides (typically flags the user set explicitly).
func Load(path string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("MATHPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("project_id", "MATHPIPE_PROJECT_ID", "PROJECT_ID", "GOOGLE_CLOUD_PROJECT"); err != nil {
		return nil, fmt.Errorf("failed to bind project env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ProblemsDir = expandHome(cfg.ProblemsDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and required values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RequireProject is called by operations that talk to Google Cloud.
func (c *Config) RequireProject() error {
	if c.ProjectID == "" {
		return ErrMissingProject
	}
	return nil
}
