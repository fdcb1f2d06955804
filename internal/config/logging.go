package config

// LoggingConfig selects the zerolog level, sink and encoding.
type LoggingConfig struct {
    Level    string // debug, info, warn, error
    Format   string // json (default) or console
    Output   string // stdout (default), stderr or file
    FilePath string // required when Output is file
}

// LoadLoggingConfig reads LOG_LEVEL, LOG_FORMAT, LOG_OUTPUT and LOG_FILE.
func LoadLoggingConfig() LoggingConfig {
    return LoggingConfig{
        Level:    envStr("LOG_LEVEL", "info"),
        Format:   envStr("LOG_FORMAT", "json"),
        Output:   envStr("LOG_OUTPUT", "stdout"),
        FilePath: envStr("LOG_FILE", ""),
    }
}
