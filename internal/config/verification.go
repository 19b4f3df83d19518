package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/reactit/kycdesk/pkg/formatting"
)

const (
	EnvVerificationRejectOnInfraFailure = "KYCDESK_VERIFICATION_REJECT_ON_INFRA_FAILURE"
	EnvVerificationTimeout              = "KYCDESK_VERIFICATION_TIMEOUT"
	EnvVerificationMaxImageSize         = "KYCDESK_VERIFICATION_MAX_IMAGE_SIZE"
	EnvVerificationRequireQuality       = "KYCDESK_VERIFICATION_REQUIRE_QUALITY"

	EnvFaceMatchBaseURL = "KYCDESK_FACE_MATCH_BASE_URL"
	EnvFaceMatchTimeout = "KYCDESK_FACE_MATCH_TIMEOUT"

	EnvAnalyzerCommand = "KYCDESK_ANALYZER_COMMAND"
	EnvAnalyzerArgs    = "KYCDESK_ANALYZER_ARGS"
	EnvAnalyzerTimeout = "KYCDESK_ANALYZER_TIMEOUT"

	EnvAnalyzerAllowPrivateFetch = "KYCDESK_ANALYZER_ALLOW_PRIVATE_FETCH"

	EnvOCRCommand  = "KYCDESK_OCR_COMMAND"
	EnvOCRLanguage = "KYCDESK_OCR_LANGUAGE"
	EnvOCRTimeout  = "KYCDESK_OCR_TIMEOUT"
)

// VerificationConfig controls the document verification pipeline.
type VerificationConfig struct {
	// RejectOnInfraFailure records REJECTED when OCR or analysis cannot run
	// instead of reporting the failure to the caller.
	RejectOnInfraFailure bool   `toml:"reject_on_infra_failure"`
	Timeout              string `toml:"timeout"`
	MaxImageSize         string `toml:"max_image_size"`
	// RequireQuality fails verification when the quality analyzer errors.
	// When false, analyzer failures are logged and the decision proceeds on OCR alone.
	RequireQuality bool `toml:"require_quality"`
}

func (c *VerificationConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

// MaxImageSizeBytes parses MaxImageSize. Call after Finalize.
func (c *VerificationConfig) MaxImageSizeBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxImageSize)
	return n
}

func (c *VerificationConfig) Finalize() error {
	if c.Timeout == "" {
		c.Timeout = "90s"
	}
	if c.MaxImageSize == "" {
		c.MaxImageSize = "10MB"
	}

	envBool(EnvVerificationRejectOnInfraFailure, &c.RejectOnInfraFailure)
	envString(EnvVerificationTimeout, &c.Timeout)
	envString(EnvVerificationMaxImageSize, &c.MaxImageSize)
	envBool(EnvVerificationRequireQuality, &c.RequireQuality)

	if err := validateDuration("timeout", c.Timeout); err != nil {
		return err
	}
	if n, err := formatting.ParseBytes(c.MaxImageSize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_image_size: %q", c.MaxImageSize)
	}
	return nil
}

// Merge overwrites fields that are set in overlay. Booleans can only be
// switched on by an overlay.
func (c *VerificationConfig) Merge(overlay *VerificationConfig) {
	c.RejectOnInfraFailure = c.RejectOnInfraFailure || overlay.RejectOnInfraFailure
	c.RequireQuality = c.RequireQuality || overlay.RequireQuality
	mergeString(&c.Timeout, overlay.Timeout)
	mergeString(&c.MaxImageSize, overlay.MaxImageSize)
}

// FaceMatchConfig locates the face comparison service.
type FaceMatchConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

func (c *FaceMatchConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

func (c *FaceMatchConfig) Finalize() error {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8000"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}

	envString(EnvFaceMatchBaseURL, &c.BaseURL)
	envString(EnvFaceMatchTimeout, &c.Timeout)

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	return validateDuration("timeout", c.Timeout)
}

func (c *FaceMatchConfig) Merge(overlay *FaceMatchConfig) {
	mergeString(&c.BaseURL, overlay.BaseURL)
	mergeString(&c.Timeout, overlay.Timeout)
}

// AnalyzerConfig describes the document quality analyzer process. The image
// path is appended after Args.
type AnalyzerConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
	Timeout string   `toml:"timeout"`

	// AllowPrivateFetch lets image URLs resolve to loopback, private and
	// link-local addresses.
	AllowPrivateFetch bool `toml:"allow_private_fetch"`
}

func (c *AnalyzerConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

func (c *AnalyzerConfig) Finalize() error {
	if c.Command == "" {
		c.Command = "python3"
	}
	if len(c.Args) == 0 {
		c.Args = []string{"scripts/image_analyzer.py"}
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}

	envString(EnvAnalyzerCommand, &c.Command)
	envList(EnvAnalyzerArgs, &c.Args)
	envString(EnvAnalyzerTimeout, &c.Timeout)
	envBool(EnvAnalyzerAllowPrivateFetch, &c.AllowPrivateFetch)

	return validateDuration("timeout", c.Timeout)
}

func (c *AnalyzerConfig) Merge(overlay *AnalyzerConfig) {
	mergeString(&c.Command, overlay.Command)
	mergeList(&c.Args, overlay.Args)
	mergeString(&c.Timeout, overlay.Timeout)
	c.AllowPrivateFetch = c.AllowPrivateFetch || overlay.AllowPrivateFetch
}

// OCRConfig describes the tesseract executable.
type OCRConfig struct {
	Command  string `toml:"command"`
	Language string `toml:"language"`
	Timeout  string `toml:"timeout"`
}

func (c *OCRConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout)
}

func (c *OCRConfig) Finalize() error {
	if c.Command == "" {
		c.Command = "tesseract"
	}
	if c.Language == "" {
		c.Language = "eng"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}

	envString(EnvOCRCommand, &c.Command)
	envString(EnvOCRLanguage, &c.Language)
	envString(EnvOCRTimeout, &c.Timeout)

	return validateDuration("timeout", c.Timeout)
}

func (c *OCRConfig) Merge(overlay *OCRConfig) {
	mergeString(&c.Command, overlay.Command)
	mergeString(&c.Language, overlay.Language)
	mergeString(&c.Timeout, overlay.Timeout)
}
