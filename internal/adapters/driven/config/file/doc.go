// Package file keeps ragchat's user-editable state under the config
// directory (~/.ragchat by default): config.toml for settings and
// prompts/*.txt for the LLM prompt templates.
package file
