// Package file provides file-based implementations of driven port interfaces
// rooted in the ~/.sitesage directory.
//
// Adapters:
//   - ConfigStore: TOML configuration with dot-notation keys
//   - PromptStore: user-editable answer prompts with embedded defaults
package file
