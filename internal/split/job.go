package split

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Job is a saved split definition, used by the watcher and by
// "sheetsplit split --job".
type Job struct {
	Key        string   `yaml:"key" json:"key"`
	Columns    []string `yaml:"columns,omitempty" json:"columns,omitempty"`
	AllColumns bool     `yaml:"all_columns,omitempty" json:"all_columns,omitempty"`
	Output     string   `yaml:"output,omitempty" json:"output,omitempty"`
	Bucket     string   `yaml:"bucket,omitempty" json:"bucket,omitempty"`
	Unnamed    string   `yaml:"unnamed,omitempty" json:"unnamed,omitempty"`
}

// LoadJob reads and parses a job YAML file.
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job file not found: %s — check that the path is correct", path)
		}
		return nil, fmt.Errorf("could not read job file %s: %w", path, err)
	}
	return ParseJob(data)
}

// ParseJob parses a job from YAML bytes.
func ParseJob(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("invalid job YAML: %w", err)
	}
	if j.Key == "" {
		return nil, fmt.Errorf("job is missing a 'key' field")
	}
	if len(j.Columns) == 0 && !j.AllColumns {
		return nil, fmt.Errorf("job needs 'columns' or 'all_columns: true'")
	}
	return &j, nil
}

// Request returns the export request the job describes.
func (j *Job) Request() Request {
	return Request{Key: j.Key, Columns: j.Columns, AllColumns: j.AllColumns}
}

// Options returns the job's naming overrides on top of base.
func (j *Job) Options(base Options) Options {
	if j.Bucket != "" {
		base.Bucket = j.Bucket
	}
	if j.Unnamed != "" {
		base.Placeholder = j.Unnamed
	}
	return base
}

// Marshal renders the job as YAML.
func (j *Job) Marshal() ([]byte, error) {
	return yaml.Marshal(j)
}
