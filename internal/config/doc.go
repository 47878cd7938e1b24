// Package config loads, normalizes, and validates NoteWise configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks for LLM
// credentials (NOTEWISE_LLM_API_KEY plus the provider specific variables) and
// the unioffice license key. The Config type centralizes every knob the CLI
// and API server need so the session store, LLM backend, and speech
// capability are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical provider names, and clear validation errors.
package config
