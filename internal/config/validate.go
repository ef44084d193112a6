package config

import (
	"errors"
	"strings"
)

// Validate ensures the configuration is usable. Rule problems are not
// validation failures; they surface as warnings when the rules are compiled.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateTransfer(); err != nil {
		return err
	}
	return c.validateWorkflow()
}

func (c *Config) validateSource() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return errors.New("source.url must be set")
	}
	if c.Source.RequestTimeout <= 0 {
		return errors.New("source.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTransfer() error {
	if strings.TrimSpace(c.Transfer.Binary) == "" {
		return errors.New("transfer.binary must be set")
	}
	if strings.TrimSpace(c.Transfer.Remote) == "" {
		return errors.New("transfer.remote must be set (e.g. \"gdrive:archive\")")
	}
	if c.Transfer.UploadTimeout <= 0 {
		return errors.New("transfer.upload_timeout must be positive")
	}
	if c.Transfer.VerifyTimeout <= 0 {
		return errors.New("transfer.verify_timeout must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollIntervalMS <= 0 {
		return errors.New("workflow.poll_interval_ms must be positive")
	}
	if c.Workflow.MaxConcurrent < 1 {
		return errors.New("workflow.max_concurrent must be at least 1")
	}
	if c.Workflow.UploadRetryLimit < 1 {
		return errors.New("workflow.upload_retry_limit must be at least 1")
	}
	if c.Workflow.VerificationRetryLimit < 1 {
		return errors.New("workflow.verification_retry_limit must be at least 1")
	}
	return nil
}
