// Package ignore evaluates path exclusion rules for the translation pipeline
package ignore
