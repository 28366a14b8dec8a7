package userconfig

// userconfig reads the application's YAML (or JSON) config file, applies
// environment overrides, and validates the result.
