// Package config loads vibegrep settings and sets up logging.
//
// Settings are resolved with this priority, highest first:
//
//  1. Explicit overrides, normally the command-line flags the user set
//  2. Environment variables prefixed with VIBEGREP_
//  3. A .env file in the working directory
//  4. Built-in defaults
//
// The endpoint identity comes from VIBEGREP_BASE_URL, VIBEGREP_API_KEY and
// VIBEGREP_MODEL. A dry run does not need any of them.
package config
