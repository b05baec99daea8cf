package common

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// CommonFlags contains flags that are shared across subcommands
type CommonFlags struct {
	EnvFile     *string
	LogLevel    *string
	LogDir      *string
	ConsoleOnly *bool
}

// RegisterCommonFlags registers common flags on fs
func RegisterCommonFlags(fs *flag.FlagSet) *CommonFlags {
	return &CommonFlags{
		EnvFile:     fs.String("env", ".env", "Environment file path"),
		LogLevel:    fs.String("log-level", "", "Log level (debug, info, warn, error), overrides ADPARAMS_LOG_LEVEL"),
		LogDir:      fs.String("log-dir", "", "Log directory, overrides ADPARAMS_LOG_DIR"),
		ConsoleOnly: fs.Bool("console-only", false, "Console output only (no log file)"),
	}
}

// StringList is a repeatable string flag
type StringList []string

func (l *StringList) String() string { return strings.Join(*l, ",") }

// Set appends one value
func (l *StringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// FlagValidator collects flag validation errors
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{
		errors: make([]string, 0),
	}
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateRequired validates that a string flag is set
func (v *FlagValidator) ValidateRequired(name, value string) *FlagValidator {
	if strings.TrimSpace(value) == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
	}
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// ValidateSuffix validates that path ends with one of the given extensions
func (v *FlagValidator) ValidateSuffix(name, path string, suffixes ...string) *FlagValidator {
	if path == "" {
		return v
	}
	lower := strings.ToLower(path)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) {
			return v
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must end with one of [%s], got: %s", name, strings.Join(suffixes, ", "), path))
	return v
}

// AddError adds a custom validation error
func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error message with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// UsageFormatter prints the top-level usage of a multi-command tool
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Commands       []UsageCommand
	Examples       []UsageExample
}

// UsageCommand is one subcommand line
type UsageCommand struct {
	Name        string
	Description string
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a new usage formatter
func NewUsageFormatter(appName, description string) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
	}
}

// AddCommand adds a subcommand
func (u *UsageFormatter) AddCommand(name, description string) *UsageFormatter {
	u.Commands = append(u.Commands, UsageCommand{Name: name, Description: description})
	return u
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// PrintUsage prints formatted usage information
func (u *UsageFormatter) PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n\n", u.AppName, u.AppDescription)

	fmt.Fprintf(w, "USAGE:\n")
	fmt.Fprintf(w, "  %s <command> [OPTIONS]\n\n", u.AppName)

	if len(u.Commands) > 0 {
		fmt.Fprintf(w, "COMMANDS:\n")
		for _, c := range u.Commands {
			fmt.Fprintf(w, "  %-10s %s\n", c.Name, c.Description)
		}
		fmt.Fprintln(w)
	}

	if len(u.Examples) > 0 {
		fmt.Fprintf(w, "EXAMPLES:\n")
		for _, example := range u.Examples {
			fmt.Fprintf(w, "  # %s\n", example.Description)
			fmt.Fprintf(w, "  %s\n\n", example.Command)
		}
	}

	fmt.Fprintf(w, "Use '%s <command> -h' for command options.\n", u.AppName)
}
