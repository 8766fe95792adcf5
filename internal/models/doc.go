// Package models provides functionality for listing the models an
// OpenAI-compatible endpoint offers. It helps users discover which chat
// models are available for translation with their API key.
package models
