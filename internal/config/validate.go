package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and provider credentials.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RequireProviderKeys reports missing API keys for the configured providers.
// Commands that only read the store skip this check.
func (c *Config) RequireProviderKeys() error {
	if c.APIKey(c.Generation.Provider) == "" {
		return fmt.Errorf("generation provider %s: API key not configured", c.Generation.Provider)
	}
	if c.Transcription.Provider != "whisper" && c.APIKey(c.Transcription.Provider) == "" {
		return fmt.Errorf("transcription provider %s: API key not configured", c.Transcription.Provider)
	}
	return nil
}
