// Package language maps the language spellings users put in config files and
// CLI flags onto the ISO 639-1 codes WhisperX accepts.
package language
