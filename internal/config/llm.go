package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Backend defaults target the LLM Foundry Groq gateway.
const (
	defaultLLMBaseURL     = "https://llmfoundry.straive.com/groq/openai/v1"
	defaultLLMModel       = "llama-3.3-70b-versatile"
	defaultLLMTimeout     = 30 * time.Second
	defaultLLMTemperature = 0.3
)

// LLMSettings configures the generative-text backend and prompt.
type LLMSettings struct {
	BaseURL     string
	Model       string
	Token       string
	Timeout     time.Duration
	Temperature float64
	// Role replaces the prompt's opening line when set.
	Role string
}

// LLMFile is the optional YAML overlay named by LLM_CONFIG_PATH:
//
//	llm:
//	  model: llama-3.3-70b-versatile
//	  base_url: https://example.com/openai/v1
//	  temperature: 0.2
//	  timeout: 45s
//	  role: You are a county emergency desk analyst.
type LLMFile struct {
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	Temperature *float64 `yaml:"temperature"`
	Timeout     string   `yaml:"timeout"`
	Role        string   `yaml:"role"`
}

// DefaultLLMSettings returns the baked-in backend defaults.
func DefaultLLMSettings() LLMSettings {
	return LLMSettings{
		BaseURL:     defaultLLMBaseURL,
		Model:       defaultLLMModel,
		Timeout:     defaultLLMTimeout,
		Temperature: defaultLLMTemperature,
	}
}

// LoadLLMFile reads a YAML overlay and merges it onto base.
func LoadLLMFile(path string, base LLMSettings) (LLMSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read LLM_CONFIG_PATH: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return base, errors.New("LLM_CONFIG_PATH: empty config file")
	}
	var parsed struct {
		LLM LLMFile `yaml:"llm"`
	}
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return base, fmt.Errorf("parse LLM_CONFIG_PATH: %w", err)
	}
	return MergeLLMFile(base, parsed.LLM)
}

// MergeLLMFile overlays the non-empty fields of override onto base.
func MergeLLMFile(base LLMSettings, override LLMFile) (LLMSettings, error) {
	if s := strings.TrimSpace(override.Model); s != "" {
		base.Model = s
	}
	if s := strings.TrimSpace(override.BaseURL); s != "" {
		base.BaseURL = s
	}
	if override.Temperature != nil {
		if *override.Temperature < 0 || *override.Temperature > 2 {
			return base, errors.New("LLM_CONFIG_PATH: temperature must be between 0 and 2")
		}
		base.Temperature = *override.Temperature
	}
	if s := strings.TrimSpace(override.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return base, errors.New("LLM_CONFIG_PATH: timeout must be a positive duration")
		}
		base.Timeout = d
	}
	if s := strings.TrimSpace(override.Role); s != "" {
		base.Role = s
	}
	return base, nil
}

// loadLLMSettings layers defaults, then the YAML overlay, then environment
// variables.
func loadLLMSettings() (LLMSettings, error) {
	s := DefaultLLMSettings()
	if path := os.Getenv("LLM_CONFIG_PATH"); path != "" {
		var err error
		if s, err = LoadLLMFile(path, s); err != nil {
			return s, err
		}
	}

	s.BaseURL = sharedcfg.EnvOrDefault("LLM_BASE_URL", s.BaseURL)
	s.Model = sharedcfg.EnvOrDefault("LLM_MODEL", s.Model)
	s.Token = sharedcfg.EnvOrDefault("LLM_TOKEN", os.Getenv("LLMFOUNDRY_TOKEN"))

	if v := os.Getenv("LLM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return s, errors.New("invalid LLM_TIMEOUT: must be a positive duration")
		}
		s.Timeout = d
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 || t > 2 {
			return s, errors.New("invalid LLM_TEMPERATURE: must be between 0 and 2")
		}
		s.Temperature = t
	}
	return s, nil
}
